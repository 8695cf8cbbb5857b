package cart

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
	CartKeyPrefix     = "cart:"
	CurrencyKeyPrefix = "currency:"
	// Durée de conservation d'un panier inactif
	StorageTTL = 30 * 24 * time.Hour
)

// ErrCorrupted signale une entrée illisible ; elle est traitée comme absente.
var ErrCorrupted = errors.New("entrée de stockage illisible")

// Persister conserve le panier et la devise d'une session entre deux visites.
type Persister interface {
	LoadItems(ctx context.Context, sessionID string) ([]models.CartItem, error)
	SaveItems(ctx context.Context, sessionID string, items []models.CartItem) error
	LoadCurrency(ctx context.Context, sessionID string) (*models.Currency, error)
	SaveCurrency(ctx context.Context, sessionID string, c models.Currency) error
}

type RedisPersister struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPersister(client *redis.Client) *RedisPersister {
	return &RedisPersister{client: client, ttl: StorageTTL}
}

// LoadItems retourne nil sans erreur quand aucune entrée n'existe.
func (p *RedisPersister) LoadItems(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	data, err := p.client.Get(ctx, CartKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture panier: %w", err)
	}

	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: décodage panier: %v", ErrCorrupted, err)
	}
	return items, nil
}

func (p *RedisPersister) SaveItems(ctx context.Context, sessionID string, items []models.CartItem) error {
	if items == nil {
		items = []models.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encodage panier: %w", err)
	}
	return p.client.Set(ctx, CartKeyPrefix+sessionID, data, p.ttl).Err()
}

func (p *RedisPersister) LoadCurrency(ctx context.Context, sessionID string) (*models.Currency, error) {
	data, err := p.client.Get(ctx, CurrencyKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture devise: %w", err)
	}

	var c models.Currency
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: décodage devise: %v", ErrCorrupted, err)
	}
	// Une devise inconnue ou corrompue est ignorée
	known, ok := models.LookupCurrency(c.Code)
	if !ok {
		return nil, nil
	}
	return &known, nil
}

func (p *RedisPersister) SaveCurrency(ctx context.Context, sessionID string, c models.Currency) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encodage devise: %w", err)
	}
	return p.client.Set(ctx, CurrencyKeyPrefix+sessionID, data, p.ttl).Err()
}
