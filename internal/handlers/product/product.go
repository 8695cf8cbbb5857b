package product

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Catalog regroupe les opérations produit exposées en HTTP.
type Catalog interface {
	List(ctx context.Context, f catalog.ListFilter) ([]models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	Create(ctx context.Context, in catalog.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id string, patch catalog.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	catalog Catalog
	log     *zap.Logger
}

func NewHandler(c Catalog, log *zap.Logger) *Handler {
	return &Handler{catalog: c, log: log}
}

// 📦 Liste des produits (filtres de la page boutique)
func (h *Handler) List(c *gin.Context) {
	f := catalog.ListFilter{
		Category: c.Query("category"),
		Query:    c.Query("q"),
		Sort:     c.Query("sort"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre limit invalide"})
			return
		}
		f.Limit = limit
	}

	products, err := h.catalog.List(c.Request.Context(), f)
	if err != nil {
		h.log.Error("❌ Erreur chargement catalogue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors du chargement des produits"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// 🔍 Recherche rapide
func (h *Handler) Search(c *gin.Context) {
	products, err := h.catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.log.Error("❌ Erreur recherche produits", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la recherche"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) Get(c *gin.Context) {
	p, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) GetBySlug(c *gin.Context) {
	p, err := h.catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// 🟢 Créer un produit (admin)
func (h *Handler) Create(c *gin.Context) {
	var in catalog.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	p, err := h.catalog.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// ✏️ Modifier un produit (admin)
func (h *Handler) Update(c *gin.Context) {
	var patch catalog.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	p, err := h.catalog.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// 🗑️ Supprimer un produit (admin)
func (h *Handler) Delete(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produit supprimé"})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
	case errors.Is(err, catalog.ErrSlugTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error("❌ Erreur produit", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	}
}
