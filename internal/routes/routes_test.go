package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/cart"
	"storefront_back_end/internal/handlers/admin"
	carthandler "storefront_back_end/internal/handlers/cart"
	"storefront_back_end/internal/handlers/health"
	ordershandler "storefront_back_end/internal/handlers/orders"
	"storefront_back_end/internal/handlers/payment"
	"storefront_back_end/internal/handlers/product"
	"storefront_back_end/internal/handlers/upload"
	"storefront_back_end/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// Les services ne sont pas branchés : seules les réponses qui précèdent
// les handlers (auth, CORS, routes statiques) sont vérifiées ici.
func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	log := zap.NewNop()

	r := gin.New()
	RegisterRoutes(r, Deps{
		Log:         log,
		CORSOrigins: []string{"http://localhost:3000"},
		JWTSecret:   "test-secret",
		Sessions:    middleware.NewSessionStore("0123456789abcdef0123456789abcdef", false),
		Carts:       cart.NewRegistry(nil, nil, nil, time.Hour, log),
		Counters:    cache.NewCounters(client),
		Products:    product.NewHandler(nil, log),
		Cart:        carthandler.NewHandler(nil, client, nil, log),
		Payment:     payment.NewHandler(nil, log),
		Orders:      ordershandler.NewHandler(nil, log),
		Admin:       admin.NewHandler(admin.Credentials{}, nil, nil, nil, log),
		Upload:      upload.NewHandler(nil, log),
		Health:      health.NewHandler(nil, log),
	})
	return r
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r := newRouter(t)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/products"},
		{http.MethodPut, "/api/products/p1"},
		{http.MethodDelete, "/api/products/p1"},
		{http.MethodPost, "/api/upload"},
		{http.MethodGet, "/api/admin/orders"},
		{http.MethodGet, "/api/admin/orders/o1"},
		{http.MethodPut, "/api/admin/orders/o1"},
		{http.MethodGet, "/api/admin/stats"},
		{http.MethodPost, "/api/admin/logout"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, strings.NewReader("{}")))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestPublicRoutes(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/currencies", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestCORS(t *testing.T) {
	r := newRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "http://evil.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
