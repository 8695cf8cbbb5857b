package admin

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenTTL est la durée de validité d'une session admin.
const TokenTTL = 24 * time.Hour

// Credentials identifie l'unique compte admin.
type Credentials struct {
	Email        string
	PasswordHash string
	JWTSecret    string
}

type TokenRevoker interface {
	BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error
}

type ProductCounter interface {
	Count(ctx context.Context) (int, error)
}

type OrderStats interface {
	Stats(ctx context.Context) (models.DashboardStats, error)
}

type Handler struct {
	creds    Credentials
	revoker  TokenRevoker
	products ProductCounter
	orders   OrderStats
	log      *zap.Logger
}

func NewHandler(creds Credentials, revoker TokenRevoker, products ProductCounter, orders OrderStats, log *zap.Logger) *Handler {
	return &Handler{creds: creds, revoker: revoker, products: products, orders: orders, log: log}
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// 🔐 Connexion admin
func (h *Handler) Login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(strings.ToLower(h.creds.Email))) == 1

	// Le hash est vérifié même si l'email ne correspond pas
	passwordOK, err := utils.VerifyPassword(in.Password, h.creds.PasswordHash)
	if err != nil {
		h.log.Error("❌ Hash du mot de passe admin invalide", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}
	if !emailOK || !passwordOK {
		h.log.Warn("⚠️ Échec de connexion admin", zap.String("email", email), zap.String("ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	token, err := utils.GenerateJWT(h.creds.JWTSecret, email, utils.RoleAdmin, TokenTTL)
	if err != nil {
		h.log.Error("❌ Erreur génération token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}

	h.log.Info("✅ Connexion admin", zap.String("email", email))
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(TokenTTL.Seconds()),
	})
}

// 🚪 Déconnexion : le jeton est révoqué jusqu'à son expiration
func (h *Handler) Logout(c *gin.Context) {
	v, _ := c.Get("claims")
	claims, ok := v.(*utils.Claims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	if claims.ID != "" && claims.ExpiresAt != nil {
		if err := h.revoker.BlacklistToken(c.Request.Context(), claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			h.log.Error("❌ Révocation du jeton impossible", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la déconnexion"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Déconnecté"})
}

// 📊 Tableau de bord
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.orders.Stats(ctx)
	if err != nil {
		h.log.Error("❌ Erreur statistiques commandes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors du calcul des statistiques"})
		return
	}

	total, err := h.products.Count(ctx)
	if err != nil {
		h.log.Error("❌ Erreur comptage produits", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors du calcul des statistiques"})
		return
	}
	stats.TotalProducts = total

	c.JSON(http.StatusOK, stats)
}
