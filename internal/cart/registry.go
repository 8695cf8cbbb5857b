package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry associe chaque session à son Store et libère les paniers inactifs.
// Un panier évincé est rechargé depuis le stockage à la prochaine requête.
type Registry struct {
	mu      sync.Mutex
	stores  map[string]*Store
	idleTTL time.Duration

	persister Persister
	notifier  Notifier
	resolver  CurrencyResolver
	log       *zap.Logger
	now       func() time.Time
}

func NewRegistry(persister Persister, notifier Notifier, resolver CurrencyResolver, idleTTL time.Duration, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		stores:    make(map[string]*Store),
		idleTTL:   idleTTL,
		persister: persister,
		notifier:  notifier,
		resolver:  resolver,
		log:       log,
		now:       time.Now,
	}
}

// Get retourne le panier hydraté de la session, en le créant au besoin.
func (r *Registry) Get(ctx context.Context, sessionID, clientIP string) *Store {
	r.mu.Lock()
	store, ok := r.stores[sessionID]
	if !ok {
		store = NewStore(sessionID, r.persister, r.notifier, r.log)
		store.now = r.now
		r.stores[sessionID] = store
	}
	// Marqué actif sous le verrou : Sweep ne peut plus évincer un panier en cours d'utilisation
	store.touch(r.now())
	r.mu.Unlock()

	// Hors du verrou du registre : la résolution de devise peut prendre quelques secondes
	store.Hydrate(ctx, clientIP, r.resolver)
	return store
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep retire les paniers inactifs depuis plus de idleTTL et retourne leur nombre.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, store := range r.stores {
		if store.idleSince().Before(cutoff) {
			delete(r.stores, id)
			evicted++
		}
	}
	return evicted
}

// Run balaie périodiquement jusqu'à l'annulation du contexte.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.log.Info("🧹 Paniers inactifs libérés", zap.Int("count", n))
			}
		}
	}
}
