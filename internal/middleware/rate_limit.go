package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	APIMaxRequests = 100 // Par minute pour les endpoints généraux
	APIWindow      = 1 * time.Minute

	CartMaxRequests   = 20 // Ajouts au panier par minute
	SearchMaxRequests = 30
)

// RateCounter incrémente un compteur à fenêtre fixe.
type RateCounter interface {
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// LoginAttempts suit les échecs de connexion par identifiant.
type LoginAttempts interface {
	LoginCooldownRemaining(ctx context.Context, identity string) (time.Duration, error)
	RecordFailedLogin(ctx context.Context, identity string) (int, error)
	ResetLogin(ctx context.Context, identity string) error
}

// RateLimit limite le nombre de requêtes par IP sur une fenêtre.
// Si Redis ne répond pas, la requête passe.
func RateLimit(counter RateCounter, prefix string, max int64, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := prefix + ":" + c.ClientIP()

		requests, err := counter.IncrementRateLimit(c.Request.Context(), key, window)
		if err != nil {
			log.Warn("⚠️ Rate limit indisponible", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		remaining := max - requests
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(max, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if requests > max {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de requêtes. Réessayez dans %d secondes", int(window.Seconds())),
				"retry_after": int(window.Seconds()),
			})
			return
		}

		c.Next()
	}
}

// LoginRateLimit bloque un email après trop d'échecs de connexion.
func LoginRateLimit(attempts LoginAttempts, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Lire le body sans le consommer
		bodyBytes, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Email == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		identity := strings.ToLower(strings.TrimSpace(input.Email))

		ttl, err := attempts.LoginCooldownRemaining(ctx, identity)
		if err != nil {
			log.Warn("⚠️ Lecture du blocage de connexion impossible", zap.Error(err))
		}
		if ttl > 0 {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Réessayez dans %d minutes", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			remaining, err := attempts.RecordFailedLogin(ctx, identity)
			if err != nil {
				log.Warn("⚠️ Échec de connexion non comptabilisé", zap.Error(err))
				return
			}
			if remaining == 0 {
				log.Warn("🔒 Connexion admin bloquée", zap.String("email", identity))
			}
		case http.StatusOK:
			if err := attempts.ResetLogin(ctx, identity); err != nil {
				log.Warn("⚠️ Réinitialisation des tentatives impossible", zap.Error(err))
			}
		}
	}
}
