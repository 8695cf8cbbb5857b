package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront_back_end/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	PendingKeyPrefix = "checkout:"
	// Un PaymentIntent non confirmé au-delà de ce délai n'est plus rattaché à un panier
	PendingTTL = 72 * time.Hour
)

// Pending fige le panier soumis au paiement : la commande est construite à partir
// de ces lignes, jamais du panier courant.
type Pending struct {
	SessionID   string            `json:"sessionId"`
	Items       []models.CartItem `json:"items"`
	Currency    models.Currency   `json:"currency"`
	TotalPrice  float64           `json:"totalPrice"`
	Amount      int64             `json:"amount"`
	Customer    Customer          `json:"customer"`
	OrderNumber string            `json:"orderNumber,omitempty"`
	CartCleared bool              `json:"cartCleared,omitempty"`
}

type PendingStore interface {
	Save(ctx context.Context, paymentIntentID string, p Pending) error
	// Load retourne nil sans erreur quand aucune entrée n'existe.
	Load(ctx context.Context, paymentIntentID string) (*Pending, error)
}

type RedisPending struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPending(client *redis.Client) *RedisPending {
	return &RedisPending{client: client, ttl: PendingTTL}
}

func (r *RedisPending) Save(ctx context.Context, paymentIntentID string, p Pending) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encodage paiement en attente: %w", err)
	}
	return r.client.Set(ctx, PendingKeyPrefix+paymentIntentID, data, r.ttl).Err()
}

func (r *RedisPending) Load(ctx context.Context, paymentIntentID string) (*Pending, error) {
	data, err := r.client.Get(ctx, PendingKeyPrefix+paymentIntentID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture paiement en attente: %w", err)
	}

	var p Pending
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("décodage paiement en attente: %w", err)
	}
	return &p, nil
}
