package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const secret = "test-secret"

type memRevoker map[string]time.Duration

func (m memRevoker) BlacklistToken(_ context.Context, id string, ttl time.Duration) error {
	m[id] = ttl
	return nil
}

func (m memRevoker) IsTokenBlacklisted(_ context.Context, id string) (bool, error) {
	_, ok := m[id]
	return ok, nil
}

type counter struct {
	n   int
	err error
}

func (c counter) Count(context.Context) (int, error) { return c.n, c.err }

type stats struct{ s models.DashboardStats }

func (s stats) Stats(context.Context) (models.DashboardStats, error) { return s.s, nil }

func setup(t *testing.T, hash string, revoker memRevoker, products counter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	h := NewHandler(
		Credentials{Email: "Admin@Shop.test", PasswordHash: hash, JWTSecret: secret},
		revoker, products,
		stats{models.DashboardStats{TotalOrders: 2, TotalRevenue: 59.5, StatusCount: map[models.OrderStatus]int{models.OrderStatusCompleted: 2}}},
		zap.NewNop())

	r := gin.New()
	r.POST("/api/admin/login", h.Login)
	admin := r.Group("/api/admin", middleware.AuthRequired(secret, revoker, zap.NewNop()), middleware.RequireAdmin)
	admin.POST("/logout", h.Logout)
	admin.GET("/stats", h.Stats)
	return r
}

func request(r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine, email, password string) (int, string) {
	t.Helper()
	w := request(r, http.MethodPost, "/api/admin/login", `{"email":"`+email+`","password":"`+password+`"}`, "")
	var body struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body.Token
}

func TestLogin(t *testing.T) {
	argon, err := utils.HashPassword("s3cret")
	require.NoError(t, err)
	bc, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	for name, hash := range map[string]string{"argon2id": argon, "bcrypt": string(bc)} {
		t.Run(name, func(t *testing.T) {
			r := setup(t, hash, memRevoker{}, counter{n: 3})

			code, token := login(t, r, "admin@shop.test", "s3cret")
			require.Equal(t, http.StatusOK, code)
			claims, err := utils.ParseJWT(secret, token)
			require.NoError(t, err)
			assert.Equal(t, utils.RoleAdmin, claims.Role)
			assert.WithinDuration(t, time.Now().Add(TokenTTL), claims.ExpiresAt.Time, time.Minute)

			code, _ = login(t, r, "admin@shop.test", "wrong")
			assert.Equal(t, http.StatusUnauthorized, code)

			code, _ = login(t, r, "intruder@shop.test", "s3cret")
			assert.Equal(t, http.StatusUnauthorized, code)

			code, _ = login(t, r, "not-an-email", "s3cret")
			assert.Equal(t, http.StatusBadRequest, code)
		})
	}
}

func TestLogout(t *testing.T) {
	hash, err := utils.HashPassword("s3cret")
	require.NoError(t, err)
	revoker := memRevoker{}
	r := setup(t, hash, revoker, counter{n: 3})

	_, token := login(t, r, "admin@shop.test", "s3cret")
	require.NotEmpty(t, token)

	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/api/admin/stats", "", token).Code)
	assert.Equal(t, http.StatusOK, request(r, http.MethodPost, "/api/admin/logout", "", token).Code)
	require.Len(t, revoker, 1)

	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/api/admin/stats", "", token).Code)
}

func TestStats(t *testing.T) {
	hash, err := utils.HashPassword("s3cret")
	require.NoError(t, err)

	t.Run("merges product count", func(t *testing.T) {
		r := setup(t, hash, memRevoker{}, counter{n: 7})
		_, token := login(t, r, "admin@shop.test", "s3cret")

		w := request(r, http.MethodGet, "/api/admin/stats", "", token)
		require.Equal(t, http.StatusOK, w.Code)

		var s models.DashboardStats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
		assert.Equal(t, 7, s.TotalProducts)
		assert.Equal(t, 2, s.TotalOrders)
		assert.Equal(t, 59.5, s.TotalRevenue)
		assert.Equal(t, 2, s.StatusCount[models.OrderStatusCompleted])
	})

	t.Run("requires a token", func(t *testing.T) {
		r := setup(t, hash, memRevoker{}, counter{n: 7})
		assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/api/admin/stats", "", "").Code)
	})

	t.Run("catalog failure", func(t *testing.T) {
		r := setup(t, hash, memRevoker{}, counter{err: errors.New("scylla down")})
		_, token := login(t, r, "admin@shop.test", "s3cret")
		assert.Equal(t, http.StatusInternalServerError, request(r, http.MethodGet, "/api/admin/stats", "", token).Code)
	})
}
