package middleware

import (
	"context"
	"net/http"
	"strings"

	"storefront_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenRevocations indique si un jeton a été révoqué (logout admin).
type TokenRevocations interface {
	IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// AuthRequired valide le jeton Bearer et place email, rôle et claims dans le contexte gin.
func AuthRequired(secret string, revocations TokenRevocations, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token manquant"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Format Authorization invalide"})
			return
		}

		claims, err := utils.ParseJWT(secret, parts[1])
		if err != nil {
			log.Debug("❌ Jeton refusé", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			return
		}

		if revocations != nil && claims.ID != "" {
			revoked, err := revocations.IsTokenBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				log.Warn("⚠️ Erreur vérification blacklist", zap.Error(err))
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token révoqué"})
				return
			}
		}

		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set("claims", claims)
		c.Next()
	}
}
