package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	cartstore "storefront_back_end/internal/cart"
	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProducts map[string]models.Product

func (f fakeProducts) Get(_ context.Context, id string) (*models.Product, error) {
	p, ok := f[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

var testProducts = fakeProducts{
	"tee":  {ID: "tee", Name: "Basic Tee", Price: 49, DiscountedPrice: 49, Category: "tops", Sizes: []string{"S", "M"}, InStock: true},
	"mug":  {ID: "mug", Name: "Mug", Price: 10, DiscountedPrice: 10, Category: "home", InStock: true},
	"gone": {ID: "gone", Name: "Sold out", Price: 5, DiscountedPrice: 5, Category: "home"},
}

type testEnv struct {
	router *gin.Engine
	redis  *redis.Client
	mr     *miniredis.Miniredis
	cookie *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := zap.NewNop()
	registry := cartstore.NewRegistry(
		cartstore.NewRedisPersister(client),
		cartstore.NewRedisNotifier(client, log),
		nil, time.Hour, log)

	h := NewHandler(testProducts, client, nil, log)
	r := gin.New()
	api := r.Group("/api", middleware.CartSession(middleware.NewSessionStore("0123456789abcdef0123456789abcdef", false), registry, log))
	api.GET("/cart", h.Get)
	api.POST("/cart/items", h.AddItem)
	api.PATCH("/cart/items/:id", h.UpdateQuantity)
	api.DELETE("/cart/items/:id", h.RemoveItem)
	api.DELETE("/cart", h.Clear)
	api.PUT("/cart/currency", h.SetCurrency)
	api.POST("/cart/sidebar", h.Sidebar)
	api.GET("/cart/ws", h.Subscribe)
	r.GET("/api/currencies", h.Currencies)

	return &testEnv{router: r, redis: client, mr: mr}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, models.CartSnapshot) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == middleware.CartSessionName {
			e.cookie = ck
		}
	}

	var snap models.CartSnapshot
	if w.Code == http.StatusOK {
		_ = json.Unmarshal(w.Body.Bytes(), &snap)
	}
	return w, snap
}

func TestAddItem(t *testing.T) {
	e := newTestEnv(t)

	w, _ := e.do(t, http.MethodPost, "/api/cart/items", `{"product_id":"tee","size":"M","open_sidebar":true}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Item models.CartItem     `json:"item"`
		Cart models.CartSnapshot `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Item.Quantity)
	assert.True(t, strings.HasPrefix(body.Item.ID, "tee-M-"))
	assert.True(t, body.Cart.SidebarOpen)
	assert.Equal(t, 49.0, body.Cart.TotalPrice)

	// même taille : fusion
	e.do(t, http.MethodPost, "/api/cart/items", `{"product_id":"tee","size":"M"}`)
	_, snap := e.do(t, http.MethodGet, "/api/cart", "")
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Quantity)

	// autre taille : nouvelle ligne
	e.do(t, http.MethodPost, "/api/cart/items", `{"product_id":"tee","size":"S"}`)
	_, snap = e.do(t, http.MethodGet, "/api/cart", "")
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, 3, snap.TotalItems)

	stored, err := e.redis.Get(context.Background(), cartstore.CartKeyPrefix+sessionFromRedis(t, e)).Result()
	require.NoError(t, err)
	assert.Contains(t, stored, "tee-S-")
}

func sessionFromRedis(t *testing.T, e *testEnv) string {
	t.Helper()
	for _, k := range e.mr.Keys() {
		if strings.HasPrefix(k, cartstore.CartKeyPrefix) {
			return strings.TrimPrefix(k, cartstore.CartKeyPrefix)
		}
	}
	t.Fatal("no cart key in redis")
	return ""
}

func TestAddItem_Rejections(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing product", `{}`, http.StatusBadRequest},
		{"unknown product", `{"product_id":"nope"}`, http.StatusNotFound},
		{"out of stock", `{"product_id":"gone"}`, http.StatusConflict},
		{"size required", `{"product_id":"tee"}`, http.StatusBadRequest},
		{"unknown size", `{"product_id":"tee","size":"XXL"}`, http.StatusBadRequest},
		{"no sizes", `{"product_id":"mug"}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := e.do(t, http.MethodPost, "/api/cart/items", tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestUpdateQuantity(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/api/cart/items", `{"product_id":"mug"}`)
	_, snap := e.do(t, http.MethodGet, "/api/cart", "")
	require.Len(t, snap.Items, 1)
	id := snap.Items[0].ID

	w, snap := e.do(t, http.MethodPatch, "/api/cart/items/"+id, `{"quantity":4}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, snap.TotalItems)
	assert.Equal(t, 40.0, snap.TotalPrice)

	w, _ = e.do(t, http.MethodPatch, "/api/cart/items/"+id, `{"quantity":11}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(t, http.MethodPatch, "/api/cart/items/unknown", `{"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, snap = e.do(t, http.MethodPatch, "/api/cart/items/"+id, `{"quantity":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, snap.Items)
}

func TestUpdateQuantity_NegativeRemoves(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/api/cart/items", `{"product_id":"mug"}`)
	_, snap := e.do(t, http.MethodGet, "/api/cart", "")
	require.Len(t, snap.Items, 1)

	w, snap := e.do(t, http.MethodPatch, "/api/cart/items/"+snap.Items[0].ID, `{"quantity":-3}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, snap.Items)
	assert.Zero(t, snap.TotalItems)
}

func TestRemoveAndClear(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/api/cart/items", `{"product_id":"mug"}`)
	e.do(t, http.MethodPost, "/api/cart/items", `{"product_id":"tee","size":"S"}`)
	_, snap := e.do(t, http.MethodGet, "/api/cart", "")
	require.Len(t, snap.Items, 2)

	w, snap := e.do(t, http.MethodDelete, "/api/cart/items/"+snap.Items[0].ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, snap.Items, 1)

	w, _ = e.do(t, http.MethodDelete, "/api/cart/items/absent", "")
	assert.Equal(t, http.StatusOK, w.Code)

	_, snap = e.do(t, http.MethodDelete, "/api/cart", "")
	assert.Empty(t, snap.Items)
	assert.Zero(t, snap.TotalPrice)
}

func TestCurrency(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/api/cart/items", `{"product_id":"tee","size":"M"}`)

	w, snap := e.do(t, http.MethodPut, "/api/cart/currency", `{"code":"eur"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EUR", snap.Currency.Code)
	assert.InDelta(t, 41.65, snap.TotalPrice, 1e-9)
	assert.Equal(t, 49.0, snap.Items[0].Product.Price)

	w, _ = e.do(t, http.MethodPut, "/api/cart/currency", `{"code":"JPY"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/currencies", nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	var list []models.Currency
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 5)
	assert.Equal(t, "AUD", list[0].Code)
}

func TestSidebar(t *testing.T) {
	e := newTestEnv(t)

	_, snap := e.do(t, http.MethodPost, "/api/cart/sidebar", `{"open":true}`)
	assert.True(t, snap.SidebarOpen)

	_, snap = e.do(t, http.MethodPost, "/api/cart/sidebar", `{"open":false}`)
	assert.False(t, snap.SidebarOpen)

	w, _ := e.do(t, http.MethodPost, "/api/cart/sidebar", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscribe(t *testing.T) {
	e := newTestEnv(t)
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/cart/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.CartSessionName {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev struct {
		Type string              `json:"type"`
		Cart models.CartSnapshot `json:"cart"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "cart_snapshot", ev.Type)
	assert.Empty(t, ev.Cart.Items)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/cart/items", strings.NewReader(`{"product_id":"mug","open_sidebar":true}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	// ajout puis ouverture : deux notifications, la dernière porte le panneau ouvert
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "cart_updated", ev.Type)
	require.Len(t, ev.Cart.Items, 1)

	require.NoError(t, conn.ReadJSON(&ev))
	assert.True(t, ev.Cart.SidebarOpen)
}
