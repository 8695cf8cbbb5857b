package cart

import (
	"context"
	"encoding/json"
	"time"

	"storefront_back_end/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Notifier est prévenu après chaque changement visible du panier.
type Notifier interface {
	Notify(sessionID string, snapshot models.CartSnapshot)
}

// RedisNotifier publie l'état du panier sur le canal "cart:<session>".
// Chaque onglet ouvert sur /api/cart/ws y est abonné.
type RedisNotifier struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisNotifier(client *redis.Client, log *zap.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, log: log}
}

func Channel(sessionID string) string {
	return CartKeyPrefix + sessionID
}

func (n *RedisNotifier) Notify(sessionID string, snapshot models.CartSnapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		n.log.Error("❌ Encodage notification panier", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := n.client.Publish(ctx, Channel(sessionID), payload).Err(); err != nil {
		n.log.Warn("⚠️ Publication panier échouée", zap.String("session", sessionID), zap.Error(err))
	}
}
