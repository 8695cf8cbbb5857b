package cart

import (
	"context"
	"testing"
	"time"

	"storefront_back_end/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_Get(t *testing.T) {
	p := newMemPersister()
	r := &fixedResolver{currency: models.Currencies["EUR"]}
	reg := NewRegistry(p, nil, r, time.Hour, nil)
	ctx := context.Background()

	a := reg.Get(ctx, "a", "1.2.3.4")
	again := reg.Get(ctx, "a", "1.2.3.4")
	b := reg.Get(ctx, "b", "1.2.3.4")

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, 2, r.calls)
	assert.Equal(t, "EUR", a.Currency().Code)
}

func TestRegistry_Sweep(t *testing.T) {
	p := newMemPersister()
	reg := NewRegistry(p, nil, nil, time.Hour, nil)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }
	ctx := context.Background()

	old := reg.Get(ctx, "old", "")
	old.AddItem(testProduct("p1", 10), "")

	now = now.Add(50 * time.Minute)
	reg.Get(ctx, "recent", "")

	now = now.Add(20 * time.Minute)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())

	// le panier évincé est relu depuis le stockage
	back := reg.Get(ctx, "old", "")
	assert.NotSame(t, old, back)
	assert.Equal(t, 1, back.TotalItems())
}

func TestRegistry_Run(t *testing.T) {
	reg := NewRegistry(nil, nil, nil, time.Nanosecond, nil)
	reg.Get(context.Background(), "a", "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.Run(ctx, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return reg.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

type blockingResolver struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingResolver) Resolve(context.Context, string) models.Currency {
	close(b.started)
	<-b.release
	return models.Currencies["USD"]
}

func TestRegistry_SweepSparesStoreBeingLoaded(t *testing.T) {
	r := &blockingResolver{started: make(chan struct{}), release: make(chan struct{})}
	reg := NewRegistry(newMemPersister(), nil, r, time.Hour, nil)
	now := time.Now().Add(48 * time.Hour)
	reg.now = func() time.Time { return now }
	ctx := context.Background()

	got := make(chan *Store)
	go func() { got <- reg.Get(ctx, "a", "") }()

	<-r.started
	assert.Zero(t, reg.Sweep())
	close(r.release)

	s := <-got
	assert.Same(t, s, reg.Get(ctx, "a", ""))
}
