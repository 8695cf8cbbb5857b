package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"storefront_back_end/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	ProductsCacheKey = "products:all"
	ProductCacheTTL  = 10 * time.Minute
)

// ProductCache garde la liste complète du catalogue dans Redis.
// Les lectures concurrentes sur un cache vide ne déclenchent qu'un seul chargement.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	sfg    singleflight.Group
	log    *zap.Logger
}

func NewProductCache(client *redis.Client, log *zap.Logger) *ProductCache {
	return &ProductCache{client: client, ttl: ProductCacheTTL, log: log}
}

// Products retourne la liste en cache ou la charge via load puis la met en cache.
// Une panne Redis n'empêche pas la lecture : on passe directement à load.
func (c *ProductCache) Products(ctx context.Context, load func(context.Context) ([]models.Product, error)) ([]models.Product, error) {
	v, err, _ := c.sfg.Do(ProductsCacheKey, func() (interface{}, error) {
		data, err := c.client.Get(ctx, ProductsCacheKey).Bytes()
		if err == nil {
			var cached []models.Product
			if json.Unmarshal(data, &cached) == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.log.Warn("⚠️ Lecture cache produits", zap.Error(err))
		}

		products, err := load(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(products); err == nil {
			if err := c.client.Set(ctx, ProductsCacheKey, data, c.ttl).Err(); err != nil {
				c.log.Warn("⚠️ Écriture cache produits", zap.Error(err))
			}
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}

	// copie : les appelants trient et filtrent la liste
	products := v.([]models.Product)
	out := make([]models.Product, len(products))
	copy(out, products)
	return out, nil
}

// Invalidate est appelé après toute écriture sur le catalogue.
func (c *ProductCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, ProductsCacheKey).Err(); err != nil {
		c.log.Warn("⚠️ Invalidation cache produits", zap.Error(err))
	}
}
