package middleware

import (
	"context"
	"net/http"

	"storefront_back_end/internal/cart"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	CartSessionName = "storefront_session"
	cartSessionKey  = "sid"
	cartContextKey  = "cart"
)

// CartProvider retourne le panier hydraté d'une session.
type CartProvider interface {
	Get(ctx context.Context, sessionID, clientIP string) *cart.Store
}

// NewSessionStore crée le cookie store signé qui porte l'identifiant de session.
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cart.StorageTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// CartSession attache à la requête le panier de la session, en créant la session au besoin.
func CartSession(store sessions.Store, carts CartProvider, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Un cookie invalide (clé changée) donne une session neuve
		session, _ := store.Get(c.Request, CartSessionName)

		sessionID, _ := session.Values[cartSessionKey].(string)
		if sessionID == "" {
			sessionID = uuid.NewString()
			session.Values[cartSessionKey] = sessionID
			if err := session.Save(c.Request, c.Writer); err != nil {
				log.Error("❌ Erreur création session", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Session indisponible"})
				return
			}
			log.Debug("🆕 Nouvelle session panier", zap.String("session", sessionID))
		}

		c.Set(cartContextKey, carts.Get(c.Request.Context(), sessionID, c.ClientIP()))
		c.Next()
	}
}

// CartFrom retourne le panier placé par CartSession.
func CartFrom(c *gin.Context) *cart.Store {
	v, ok := c.Get(cartContextKey)
	if !ok {
		return nil
	}
	store, _ := v.(*cart.Store)
	return store
}
