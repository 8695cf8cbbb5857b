package orders

import (
	"context"
	"errors"
	"net/http"

	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
	orderservice "storefront_back_end/internal/orders"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Orders interface {
	List(ctx context.Context) ([]models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
}

type Handler struct {
	orders Orders
	log    *zap.Logger
}

func NewHandler(o Orders, log *zap.Logger) *Handler {
	return &Handler{orders: o, log: log}
}

type statusInput struct {
	Status string `json:"status" binding:"required,order_status"`
}

// 🧾 Page de confirmation : commande par numéro
func (h *Handler) GetByNumber(c *gin.Context) {
	order, err := h.orders.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// 📋 Liste des commandes (admin), plus récentes d'abord
func (h *Handler) List(c *gin.Context) {
	list, err := h.orders.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// 📦 Changement de statut (admin)
func (h *Handler) UpdateStatus(c *gin.Context) {
	var in statusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), models.OrderStatus(in.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orderservice.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
	case errors.Is(err, orderservice.ErrInvalidStatus), errors.Is(err, orderservice.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("❌ Erreur commande", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	}
}
