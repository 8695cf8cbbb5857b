package routes

import (
	"time"

	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/handlers/admin"
	carthandler "storefront_back_end/internal/handlers/cart"
	"storefront_back_end/internal/handlers/health"
	ordershandler "storefront_back_end/internal/handlers/orders"
	"storefront_back_end/internal/handlers/payment"
	"storefront_back_end/internal/handlers/product"
	"storefront_back_end/internal/handlers/upload"
	"storefront_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Deps regroupe ce dont les routes ont besoin, construit dans main.
type Deps struct {
	Log         *zap.Logger
	CORSOrigins []string
	JWTSecret   string
	Sessions    sessions.Store
	Carts       middleware.CartProvider
	Counters    *cache.Counters

	Products *product.Handler
	Cart     *carthandler.Handler
	Payment  *payment.Handler
	Orders   *ordershandler.Handler
	Admin    *admin.Handler
	Upload   *upload.Handler
	Health   *health.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", d.Health.Health)

	api := r.Group("/api")
	api.Use(middleware.RateLimit(d.Counters, "api_requests", middleware.APIMaxRequests, middleware.APIWindow, d.Log))

	auth := middleware.AuthRequired(d.JWTSecret, d.Counters, d.Log)
	cartSession := middleware.CartSession(d.Sessions, d.Carts, d.Log)

	// Catalogue
	api.GET("/products", d.Products.List)
	api.GET("/products/search",
		middleware.RateLimit(d.Counters, "search_requests", middleware.SearchMaxRequests, time.Minute, d.Log),
		d.Products.Search)
	api.GET("/products/slug/:slug", d.Products.GetBySlug)
	api.GET("/products/:id", d.Products.Get)
	api.GET("/currencies", d.Cart.Currencies)
	api.GET("/orders/number/:number", d.Orders.GetByNumber)

	// Panier de la session
	cart := api.Group("/cart", cartSession)
	{
		cart.GET("", d.Cart.Get)
		cart.POST("/items",
			middleware.RateLimit(d.Counters, "cart_add", middleware.CartMaxRequests, time.Minute, d.Log),
			d.Cart.AddItem)
		cart.PATCH("/items/:id", d.Cart.UpdateQuantity)
		cart.DELETE("/items/:id", d.Cart.RemoveItem)
		cart.DELETE("", d.Cart.Clear)
		cart.PUT("/currency", d.Cart.SetCurrency)
		cart.POST("/sidebar", d.Cart.Sidebar)
		cart.GET("/ws", d.Cart.Subscribe)
	}

	// Paiement
	api.POST("/create-payment-intent", cartSession, d.Payment.CreatePaymentIntent)
	api.POST("/checkout/complete", cartSession, d.Payment.Complete)

	// Admin
	api.POST("/admin/login", middleware.LoginRateLimit(d.Counters, d.Log), d.Admin.Login)

	protected := api.Group("", auth, middleware.RequireAdmin)
	{
		protected.POST("/products", d.Products.Create)
		protected.PUT("/products/:id", d.Products.Update)
		protected.DELETE("/products/:id", d.Products.Delete)
		protected.POST("/upload", d.Upload.UploadImage)

		protected.POST("/admin/logout", d.Admin.Logout)
		protected.GET("/admin/stats", d.Admin.Stats)
		protected.GET("/admin/orders", d.Orders.List)
		protected.GET("/admin/orders/:id", d.Orders.Get)
		protected.PUT("/admin/orders/:id", d.Orders.UpdateStatus)
	}
}
