package orders

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"storefront_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	orders    map[string]models.Order
	writes    int
	createErr error
}

func newFakeRepo(orders ...models.Order) *fakeRepo {
	r := &fakeRepo{orders: map[string]models.Order{}}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, o *models.Order) error {
	r.writes++
	if r.createErr != nil {
		return r.createErr
	}
	if o.ID == "" {
		o.ID = "o-" + o.OrderNumber
	}
	r.orders[o.ID] = *o
	return nil
}

func (r *fakeRepo) List(context.Context) ([]models.Order, error) {
	out := []models.Order{}
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*models.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (r *fakeRepo) GetByNumber(_ context.Context, n string) (*models.Order, error) {
	for _, o := range r.orders {
		if o.OrderNumber == n {
			cp := o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) GetByPaymentIntent(_ context.Context, pi string) (*models.Order, error) {
	for _, o := range r.orders {
		if o.PaymentIntentID == pi {
			cp := o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status models.OrderStatus) error {
	r.writes++
	o := r.orders[id]
	o.Status = status
	r.orders[id] = o
	return nil
}

type fakeMailer struct {
	sent []models.Order
	err  error
}

func (m *fakeMailer) SendOrderStatus(_ context.Context, o models.Order) error {
	m.sent = append(m.sent, o)
	return m.err
}

func newTestService(repo Repository, mailer Mailer) *Service {
	s := NewService(repo, mailer, nil)
	s.async = func(f func()) { f() }
	return s
}

func validOrder() *models.Order {
	return &models.Order{
		OrderNumber:   "ORD-1-ABCDEFGHI",
		CustomerEmail: "ada@example.com",
		CustomerName:  "Ada Lovelace",
		Items:         []models.OrderItem{{ID: "p1", Name: "Tee", Price: 20, Quantity: 2}},
		Subtotal:      33.999,
		Currency:      "EUR",
	}
}

func TestNewOrderNumber(t *testing.T) {
	now := time.UnixMilli(1712345678901)
	n := NewOrderNumber(now)
	assert.Regexp(t, regexp.MustCompile(`^ORD-1712345678901-[0-9A-Z]{9}$`), n)
	assert.NotEqual(t, n, NewOrderNumber(now))
}

func TestRoundAmount(t *testing.T) {
	assert.Equal(t, 34.0, RoundAmount(33.999))
	assert.Equal(t, 41.65, RoundAmount(41.649999))
	assert.Equal(t, 49.0, RoundAmount(49))
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("valid order", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo, nil)
		o := validOrder()

		require.NoError(t, svc.Create(ctx, o))
		assert.Equal(t, 34.0, o.Subtotal)
		assert.Equal(t, models.OrderStatusCompleted, o.Status)
		assert.False(t, o.CreatedAt.IsZero())
		assert.Equal(t, 1, repo.writes)
	})

	t.Run("missing customer email is rejected before any write", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo, nil)
		o := validOrder()
		o.CustomerEmail = ""

		err := svc.Create(ctx, o)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "customer_email")
		assert.Zero(t, repo.writes)
	})

	t.Run("missing number and name", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo, nil)
		o := validOrder()
		o.OrderNumber = " "
		o.CustomerName = ""

		err := svc.Create(ctx, o)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "order_number")
		assert.Contains(t, err.Error(), "customer_name")
		assert.Zero(t, repo.writes)
	})

	t.Run("malformed email", func(t *testing.T) {
		repo := newFakeRepo()
		o := validOrder()
		o.CustomerEmail = "not-an-email"
		assert.ErrorIs(t, newTestService(repo, nil).Create(ctx, o), ErrValidation)
		assert.Zero(t, repo.writes)
	})

	t.Run("repository failure is returned", func(t *testing.T) {
		repo := newFakeRepo()
		repo.createErr = errors.New("scylla timeout")
		assert.Error(t, newTestService(repo, nil).Create(ctx, validOrder()))
	})
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	existing := models.Order{ID: "o1", OrderNumber: "ORD-1", CustomerEmail: "a@b.c", Status: models.OrderStatusCompleted}

	t.Run("changes status and mails the customer", func(t *testing.T) {
		repo := newFakeRepo(existing)
		mailer := &fakeMailer{}
		svc := newTestService(repo, mailer)

		o, err := svc.UpdateStatus(ctx, "o1", models.OrderStatusShipped)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusShipped, o.Status)
		assert.Equal(t, models.OrderStatusShipped, repo.orders["o1"].Status)
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, models.OrderStatusShipped, mailer.sent[0].Status)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		repo := newFakeRepo(existing)
		mailer := &fakeMailer{}
		svc := newTestService(repo, mailer)

		_, err := svc.UpdateStatus(ctx, "o1", models.OrderStatusCompleted)
		require.NoError(t, err)
		assert.Zero(t, repo.writes)
		assert.Empty(t, mailer.sent)
	})

	t.Run("mail failure does not fail the update", func(t *testing.T) {
		repo := newFakeRepo(existing)
		svc := newTestService(repo, &fakeMailer{err: errors.New("smtp down")})

		_, err := svc.UpdateStatus(ctx, "o1", models.OrderStatusCancelled)
		assert.NoError(t, err)
	})

	t.Run("unknown status", func(t *testing.T) {
		repo := newFakeRepo(existing)
		_, err := newTestService(repo, nil).UpdateStatus(ctx, "o1", "lost")
		assert.ErrorIs(t, err, ErrInvalidStatus)
		assert.Zero(t, repo.writes)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := newTestService(newFakeRepo(), nil).UpdateStatus(ctx, "nope", models.OrderStatusShipped)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_Stats(t *testing.T) {
	repo := newFakeRepo(
		models.Order{ID: "1", Subtotal: 10.10, Status: models.OrderStatusCompleted},
		models.Order{ID: "2", Subtotal: 20.20, Status: models.OrderStatusShipped},
		models.Order{ID: "3", Subtotal: 0.70, Status: models.OrderStatusCompleted},
	)
	stats, err := newTestService(repo, nil).Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, 31.0, stats.TotalRevenue)
	assert.Equal(t, 2, stats.StatusCount[models.OrderStatusCompleted])
	assert.Equal(t, 1, stats.StatusCount[models.OrderStatusShipped])
}

func TestService_Lookups(t *testing.T) {
	repo := newFakeRepo(models.Order{ID: "o1", OrderNumber: "ORD-9", PaymentIntentID: "pi_1"})
	svc := newTestService(repo, nil)
	ctx := context.Background()

	o, err := svc.GetByNumber(ctx, "ORD-9")
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)

	o, err = svc.GetByPaymentIntent(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
