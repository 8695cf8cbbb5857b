package cart

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sort"

	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// MaxItemQuantity borne les contrôles de quantité d'une ligne.
const MaxItemQuantity = 10

// ProductLookup retrouve le produit ajouté au panier.
type ProductLookup interface {
	Get(ctx context.Context, id string) (*models.Product, error)
}

type Handler struct {
	products ProductLookup
	redis    *redis.Client
	origins  []string
	log      *zap.Logger
}

// NewHandler prépare les routes panier. origins limite les connexions WebSocket
// (vide : toutes les origines).
func NewHandler(products ProductLookup, client *redis.Client, origins []string, log *zap.Logger) *Handler {
	return &Handler{products: products, redis: client, origins: origins, log: log}
}

type addItemInput struct {
	ProductID   string `json:"product_id" binding:"required"`
	Size        string `json:"size"`
	OpenSidebar bool   `json:"open_sidebar"`
}

// quantityInput : une quantité nulle ou négative retire la ligne.
type quantityInput struct {
	Quantity *int `json:"quantity" binding:"required,max=10"`
}

type currencyInput struct {
	Code string `json:"code" binding:"required"`
}

type sidebarInput struct {
	Open *bool `json:"open" binding:"required"`
}

// 🛒 Contenu du panier
func (h *Handler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CartFrom(c).Snapshot())
}

// ➕ Ajouter un produit
func (h *Handler) AddItem(c *gin.Context) {
	var in addItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	product, err := h.products.Get(c.Request.Context(), in.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		}
		h.log.Error("❌ Erreur lecture produit", zap.String("product_id", in.ProductID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de l'ajout au panier"})
		return
	}
	if !product.InStock {
		c.JSON(http.StatusConflict, gin.H{"error": "Produit en rupture de stock"})
		return
	}
	if len(product.Sizes) > 0 && !slices.Contains(product.Sizes, in.Size) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Taille indisponible pour ce produit"})
		return
	}

	store := middleware.CartFrom(c)
	item := store.AddItem(*product, in.Size)
	if in.OpenSidebar {
		store.Open()
	}

	c.JSON(http.StatusCreated, gin.H{
		"item": item,
		"cart": store.Snapshot(),
	})
}

// 🔢 Modifier la quantité (0 ou moins retire la ligne)
func (h *Handler) UpdateQuantity(c *gin.Context) {
	var in quantityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	store := middleware.CartFrom(c)
	itemID := c.Param("id")
	if _, ok := store.Item(itemID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article introuvable dans le panier"})
		return
	}

	store.UpdateQuantity(itemID, *in.Quantity)
	c.JSON(http.StatusOK, store.Snapshot())
}

// ❌ Retirer une ligne
func (h *Handler) RemoveItem(c *gin.Context) {
	store := middleware.CartFrom(c)
	store.RemoveItem(c.Param("id"))
	c.JSON(http.StatusOK, store.Snapshot())
}

// 🧹 Vider le panier
func (h *Handler) Clear(c *gin.Context) {
	store := middleware.CartFrom(c)
	store.ClearCart()
	c.JSON(http.StatusOK, store.Snapshot())
}

// 💱 Choix explicite de la devise d'affichage
func (h *Handler) SetCurrency(c *gin.Context) {
	var in currencyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	currency, ok := models.LookupCurrency(in.Code)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Devise non prise en charge"})
		return
	}

	store := middleware.CartFrom(c)
	store.SetCurrency(currency)
	c.JSON(http.StatusOK, store.Snapshot())
}

// Currencies liste les devises proposées, triées par code.
func (h *Handler) Currencies(c *gin.Context) {
	list := make([]models.Currency, 0, len(models.Currencies))
	for _, cur := range models.Currencies {
		list = append(list, cur)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	c.JSON(http.StatusOK, list)
}

// 📂 Ouvrir / fermer le panneau latéral
func (h *Handler) Sidebar(c *gin.Context) {
	var in sidebarInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	store := middleware.CartFrom(c)
	if *in.Open {
		store.Open()
	} else {
		store.Close()
	}
	c.JSON(http.StatusOK, store.Snapshot())
}
