package payment

import (
	"context"
	"errors"
	"net/http"

	"storefront_back_end/internal/cart"
	"storefront_back_end/internal/checkout"
	"storefront_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Checkout interface {
	CreatePaymentIntent(ctx context.Context, store *cart.Store, customer checkout.Customer) (*checkout.IntentResult, error)
	Complete(ctx context.Context, store *cart.Store, paymentIntentID string, customer checkout.Customer) (*checkout.CompleteResult, error)
}

type Handler struct {
	checkout Checkout
	log      *zap.Logger
}

func NewHandler(c Checkout, log *zap.Logger) *Handler {
	return &Handler{checkout: c, log: log}
}

type intentInput struct {
	Customer checkout.Customer `json:"customer"`
}

type completeInput struct {
	PaymentIntentID string            `json:"payment_intent_id" binding:"required"`
	Customer        checkout.Customer `json:"customer"`
}

// 💳 Crée le PaymentIntent du panier de la session
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	var in intentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	res, err := h.checkout.CreatePaymentIntent(c.Request.Context(), middleware.CartFrom(c), in.Customer)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ✅ Confirme le paiement et enregistre la commande
func (h *Handler) Complete(c *gin.Context) {
	var in completeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	res, err := h.checkout.Complete(c.Request.Context(), middleware.CartFrom(c), in.PaymentIntentID, in.Customer)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if res.Warning != "" {
		c.JSON(http.StatusOK, gin.H{
			"warning":           res.Warning,
			"order_number":      res.OrderNumber,
			"payment_intent_id": res.PaymentIntentID,
			"message":           "Paiement reçu, la commande sera confirmée par notre équipe",
		})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrSessionMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": "Ce paiement n'appartient pas à votre session"})
	case errors.Is(err, checkout.ErrPaymentNotCompleted):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrPaymentProvider):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Le service de paiement est indisponible, réessayez plus tard"})
	default:
		h.log.Error("❌ Erreur paiement", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	}
}
