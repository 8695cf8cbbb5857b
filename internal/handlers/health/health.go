package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const checkTimeout = 2 * time.Second

// Check vérifie une dépendance (Redis, Scylla...).
type Check func(ctx context.Context) error

type Handler struct {
	checks map[string]Check
	log    *zap.Logger
}

func NewHandler(checks map[string]Check, log *zap.Logger) *Handler {
	return &Handler{checks: checks, log: log}
}

// 🩺 État des dépendances
func (h *Handler) Health(c *gin.Context) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	services := gin.H{}
	healthy := true
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		err := h.checks[name](ctx)
		cancel()

		if err != nil {
			healthy = false
			services[name] = "down"
			h.log.Warn("⚠️ Dépendance indisponible", zap.String("service", name), zap.Error(err))
			continue
		}
		services[name] = "ok"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "services": services})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "services": services})
}
