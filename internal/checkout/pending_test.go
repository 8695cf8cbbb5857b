package checkout

import (
	"context"
	"testing"

	"storefront_back_end/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPending(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisPending(client)
	ctx := context.Background()

	got, err := store.Load(ctx, "pi_1")
	require.NoError(t, err)
	assert.Nil(t, got)

	want := Pending{
		SessionID:  "sess-1",
		Items:      []models.CartItem{{ID: "p1-M-1", Product: models.CartProduct{ID: "p1", Name: "Tee", Price: 20}, Quantity: 2, Size: "M"}},
		Currency:   models.Currencies["EUR"],
		TotalPrice: 34,
		Amount:     3400,
		Customer:   customer,
	}
	require.NoError(t, store.Save(ctx, "pi_1", want))
	assert.Equal(t, PendingTTL, mr.TTL("checkout:pi_1"))

	got, err = store.Load(ctx, "pi_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	require.NoError(t, mr.Set("checkout:pi_2", "{oops"))
	_, err = store.Load(ctx, "pi_2")
	assert.Error(t, err)
}
