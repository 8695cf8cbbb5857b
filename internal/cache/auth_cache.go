package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	LoginMaxAttempts = 5
	LoginCooldown    = 15 * time.Minute
)

// LoginCooldownRemaining retourne la durée de blocage restante pour cet identifiant, ou 0.
func (c *Counters) LoginCooldownRemaining(ctx context.Context, identity string) (time.Duration, error) {
	ttl, err := c.client.TTL(ctx, "login_cooldown:"+identity).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// RecordFailedLogin compte un échec ; au-delà de LoginMaxAttempts l'identifiant est bloqué.
// Retourne le nombre d'essais restants.
func (c *Counters) RecordFailedLogin(ctx context.Context, identity string) (int, error) {
	attempts, err := c.IncrementRateLimit(ctx, "login_attempts:"+identity, LoginCooldown)
	if err != nil {
		return 0, err
	}
	if attempts >= LoginMaxAttempts {
		pipe := c.client.TxPipeline()
		pipe.Set(ctx, "login_cooldown:"+identity, "1", LoginCooldown)
		pipe.Del(ctx, "login_attempts:"+identity)
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return LoginMaxAttempts - int(attempts), nil
}

// ResetLogin efface compteur et blocage après une connexion réussie.
func (c *Counters) ResetLogin(ctx context.Context, identity string) error {
	err := c.client.Del(ctx, "login_attempts:"+identity, "login_cooldown:"+identity).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
