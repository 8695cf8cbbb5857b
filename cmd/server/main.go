package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/cart"
	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/checkout"
	"storefront_back_end/internal/config"
	"storefront_back_end/internal/currency"
	"storefront_back_end/internal/database"
	"storefront_back_end/internal/handlers/admin"
	carthandler "storefront_back_end/internal/handlers/cart"
	"storefront_back_end/internal/handlers/health"
	ordershandler "storefront_back_end/internal/handlers/orders"
	"storefront_back_end/internal/handlers/payment"
	"storefront_back_end/internal/handlers/product"
	"storefront_back_end/internal/handlers/upload"
	"storefront_back_end/internal/logger"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/orders"
	"storefront_back_end/internal/routes"
	"storefront_back_end/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"go.uber.org/zap"
)

const (
	sweepInterval   = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration invalide : %v", err)
	}

	logg, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("❌ Impossible d'initialiser le logger : %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stripe.Key = cfg.StripeSecretKey
	logg.Info("✅ Stripe initialisé", zap.String("currency", cfg.PaymentCurrency))

	// --- Connexions ---
	rdb, err := database.NewRedis(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("❌ Connexion Redis impossible", zap.Error(err))
	}
	defer rdb.Close()

	scylla, err := database.NewScyllaSession(cfg, logg)
	if err != nil {
		logg.Fatal("❌ Connexion ScyllaDB impossible", zap.Error(err))
	}
	defer scylla.Close()

	es, err := database.NewElastic(cfg, logg)
	if err != nil {
		logg.Warn("⚠️ Elasticsearch indisponible, recherche en mémoire", zap.Error(err))
	}

	minioClient, err := database.NewMinIO(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("❌ Connexion MinIO impossible", zap.Error(err))
	}

	// --- Services ---
	counters := cache.NewCounters(rdb)
	mailer := services.NewMailer(cfg, logg)
	var (
		statusMailer  orders.Mailer
		confirmMailer checkout.Mailer
	)
	if mailer.Enabled() {
		statusMailer, confirmMailer = mailer, mailer
	} else {
		logg.Warn("⚠️ SMTP non configuré, aucun e-mail ne sera envoyé")
	}

	catalogService := catalog.NewService(
		database.NewProductRepository(scylla, logg),
		cache.NewProductCache(rdb, logg),
		services.NewProductIndex(es, logg),
		logg)
	orderService := orders.NewService(database.NewOrderRepository(scylla), statusMailer, logg)
	checkoutService := checkout.NewService(
		services.NewStripeGateway(cfg.PaymentCurrency),
		orderService,
		checkout.NewRedisPending(rdb),
		confirmMailer,
		logg)

	registry := cart.NewRegistry(
		cart.NewRedisPersister(rdb),
		cart.NewRedisNotifier(rdb, logg),
		currency.NewResolver(cfg.GeoAPIURL, cfg.DefaultCurrency, logg),
		cfg.CartIdleTTL,
		logg)
	go registry.Run(ctx, sweepInterval)

	// Pré-chauffer le cache produits
	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if products, err := catalogService.All(warmCtx); err == nil {
			logg.Info("✅ Cache produits pré-chauffé", zap.Int("count", len(products)))
		} else {
			logg.Warn("⚠️ Pré-chauffage du cache produits échoué", zap.Error(err))
		}
	}()

	// --- HTTP ---
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	r := gin.New()
	r.Use(logger.GinMiddleware(logg), logger.Recovery(logg))

	routes.RegisterRoutes(r, routes.Deps{
		Log:         logg,
		CORSOrigins: cfg.CORSOriginList(),
		JWTSecret:   cfg.JWTSecret,
		Sessions:    middleware.NewSessionStore(cfg.SessionSecret, cfg.IsProduction()),
		Carts:       registry,
		Counters:    counters,

		Products: product.NewHandler(catalogService, logg),
		Cart:     carthandler.NewHandler(catalogService, rdb, cfg.CORSOriginList(), logg),
		Payment:  payment.NewHandler(checkoutService, logg),
		Orders:   ordershandler.NewHandler(orderService, logg),
		Admin: admin.NewHandler(admin.Credentials{
			Email:        cfg.AdminEmail,
			PasswordHash: cfg.AdminPasswordHash,
			JWTSecret:    cfg.JWTSecret,
		}, counters, catalogService, orderService, logg),
		Upload: upload.NewHandler(services.NewImageStore(minioClient, cfg.MinioBucket, cfg.MinioPublicURL), logg),
		Health: health.NewHandler(map[string]health.Check{
			"redis":  func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			"scylla": func(ctx context.Context) error { return database.PingScylla(ctx, scylla) },
		}, logg),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logg.Info("🚀 Serveur lancé", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("❌ Serveur arrêté", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logg.Info("🛑 Arrêt demandé, fermeture des connexions")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("❌ Arrêt forcé du serveur", zap.Error(err))
	}
}
