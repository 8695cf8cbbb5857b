package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"storefront_back_end/internal/models"

	"go.uber.org/zap"
)

const persistTimeout = 3 * time.Second

// CurrencyResolver choisit la devise d'affichage d'une première visite.
type CurrencyResolver interface {
	Resolve(ctx context.Context, clientIP string) models.Currency
}

// Store est le panier d'une session : lignes, devise active et état du sidebar.
// Toutes les mutations passent par le mutex ; l'écriture en stockage suit la
// mutation sous le même verrou, le stockage n'est donc jamais en retard d'une mutation terminée.
type Store struct {
	mu        sync.Mutex
	sessionID string
	items     []models.CartItem
	currency  models.Currency
	open      bool
	lastSeen  atomic.Int64

	itemsLoaded    bool
	currencyLoaded bool

	// itemsUnsynced bloque l'écriture tant qu'une lecture du stockage a échoué
	itemsUnsynced bool

	persister Persister
	notifier  Notifier
	log       *zap.Logger
	now       func() time.Time
}

func NewStore(sessionID string, persister Persister, notifier Notifier, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		sessionID: sessionID,
		items:     []models.CartItem{},
		currency:  models.Currencies["USD"],
		persister: persister,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
	s.lastSeen.Store(time.Now().UnixNano())
	return s
}

func (s *Store) SessionID() string {
	return s.sessionID
}

// Hydrate recharge le panier et la devise depuis le stockage.
// Sans devise enregistrée, le resolver est interrogé une seule fois et le résultat est conservé.
// Une lecture en échec n'est pas considérée comme faite : elle est retentée au prochain appel,
// et le panier enregistré n'est pas écrasé entre-temps.
func (s *Store) Hydrate(ctx context.Context, clientIP string, resolver CurrencyResolver) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.itemsLoaded && s.currencyLoaded {
		return
	}

	if s.persister == nil {
		if !s.currencyLoaded && resolver != nil {
			s.currency = resolver.Resolve(ctx, clientIP)
		}
		s.itemsLoaded, s.currencyLoaded = true, true
		return
	}

	// La lecture survit à l'abandon de la requête qui l'a déclenchée
	ctx = context.WithoutCancel(ctx)
	if !s.itemsLoaded {
		s.loadItemsLocked(ctx)
	}
	if !s.currencyLoaded {
		s.loadCurrencyLocked(ctx, clientIP, resolver)
	}
}

func (s *Store) loadItemsLocked(ctx context.Context) {
	loadCtx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	items, err := s.persister.LoadItems(loadCtx, s.sessionID)
	switch {
	case errors.Is(err, ErrCorrupted):
		s.log.Warn("⚠️ Panier enregistré illisible, il sera remplacé",
			zap.String("session", s.sessionID), zap.Error(err))
		items = nil
	case err != nil:
		s.log.Warn("⚠️ Lecture du panier impossible, nouvel essai à la prochaine requête",
			zap.String("session", s.sessionID), zap.Error(err))
		s.itemsUnsynced = true
		return
	}
	s.itemsLoaded = true

	if !s.itemsUnsynced {
		if items != nil {
			s.items = items
		}
		return
	}

	// Lignes ajoutées pendant l'indisponibilité du stockage : fusionnées avec le panier enregistré
	s.itemsUnsynced = false
	added := s.items
	if items == nil {
		items = []models.CartItem{}
	}
	s.items = items
	for _, it := range added {
		s.mergeLocked(it)
	}
	s.changedLocked(true)
}

func (s *Store) loadCurrencyLocked(ctx context.Context, clientIP string, resolver CurrencyResolver) {
	loadCtx, cancel := context.WithTimeout(ctx, persistTimeout)
	stored, err := s.persister.LoadCurrency(loadCtx, s.sessionID)
	cancel()
	if err != nil && !errors.Is(err, ErrCorrupted) {
		// Sans savoir si un choix existe, la devise n'est pas devinée
		s.log.Warn("⚠️ Lecture de la devise impossible",
			zap.String("session", s.sessionID), zap.Error(err))
		return
	}
	s.currencyLoaded = true

	if stored != nil {
		s.currency = *stored
		return
	}
	if resolver != nil {
		s.currency = resolver.Resolve(ctx, clientIP)
		s.saveCurrencyLocked()
	}
}

func (s *Store) mergeLocked(item models.CartItem) {
	for i := range s.items {
		if s.items[i].Product.ID == item.Product.ID && s.items[i].Size == item.Size {
			s.items[i].Quantity += item.Quantity
			return
		}
	}
	s.items = append(s.items, item)
}

// AddItem fusionne sur (produit, taille) ou ajoute une nouvelle ligne de quantité 1.
func (s *Store) AddItem(product models.Product, size string) models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].Product.ID == product.ID && s.items[i].Size == size {
			s.items[i].Quantity++
			item := s.items[i]
			s.changedLocked(true)
			return item
		}
	}

	item := models.CartItem{
		ID:       newItemID(product.ID, size, s.now()),
		Product:  product.Snapshot(),
		Quantity: 1,
		Size:     size,
	}
	s.items = append(s.items, item)
	s.changedLocked(true)
	return item
}

// RemoveItem ne fait rien si la ligne n'existe pas.
func (s *Store) RemoveItem(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(itemID)
}

// UpdateQuantity fixe la quantité exacte ; zéro ou négatif supprime la ligne.
func (s *Store) UpdateQuantity(itemID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(itemID)
		return
	}
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Quantity = quantity
			s.changedLocked(true)
			return
		}
	}
}

func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []models.CartItem{}
	s.changedLocked(true)
}

// Item retourne une copie de la ligne demandée.
func (s *Store) Item(itemID string) (models.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ID == itemID {
			return it, true
		}
	}
	return models.CartItem{}, false
}

// Items retourne une copie des lignes, indépendante du panier.
func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsLocked()
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalItemsLocked()
}

// TotalPrice est exprimé dans la devise active, sans arrondi.
func (s *Store) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPriceLocked()
}

func (s *Store) Currency() models.Currency {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currency
}

// SetCurrency enregistre le choix explicite de l'utilisateur. Les prix des lignes ne changent pas.
func (s *Store) SetCurrency(c models.Currency) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currency = c
	s.currencyLoaded = true
	s.saveCurrencyLocked()
	s.changedLocked(false)
}

func (s *Store) Open() {
	s.setOpen(true)
}

func (s *Store) Close() {
	s.setOpen(false)
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Store) setOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open == open {
		return
	}
	s.open = open
	s.changedLocked(false)
}

func (s *Store) Snapshot() models.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) touch(t time.Time) {
	s.lastSeen.Store(t.UnixNano())
}

func (s *Store) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Store) removeLocked(itemID string) {
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.changedLocked(true)
			return
		}
	}
}

func (s *Store) itemsLocked() []models.CartItem {
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) totalItemsLocked() int {
	total := 0
	for _, it := range s.items {
		total += it.Quantity
	}
	return total
}

func (s *Store) totalPriceLocked() float64 {
	total := 0.0
	for _, it := range s.items {
		total += it.Product.Price * float64(it.Quantity) * s.currency.Rate
	}
	return total
}

func (s *Store) snapshotLocked() models.CartSnapshot {
	return models.CartSnapshot{
		Items:       s.itemsLocked(),
		Currency:    s.currency,
		TotalItems:  s.totalItemsLocked(),
		TotalPrice:  s.totalPriceLocked(),
		SidebarOpen: s.open,
	}
}

// changedLocked persiste les lignes si besoin puis notifie les abonnés.
func (s *Store) changedLocked(itemsChanged bool) {
	if itemsChanged && s.persister != nil && !s.itemsUnsynced {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := s.persister.SaveItems(ctx, s.sessionID, s.items); err != nil {
			s.log.Warn("⚠️ Sauvegarde du panier échouée, état conservé en mémoire",
				zap.String("session", s.sessionID), zap.Error(err))
		}
		cancel()
	}
	if s.notifier != nil {
		s.notifier.Notify(s.sessionID, s.snapshotLocked())
	}
}

func (s *Store) saveCurrencyLocked() {
	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persister.SaveCurrency(ctx, s.sessionID, s.currency); err != nil {
		s.log.Warn("⚠️ Sauvegarde de la devise échouée",
			zap.String("session", s.sessionID), zap.Error(err))
	}
}

func newItemID(productID, size string, t time.Time) string {
	if size == "" {
		size = "no-size"
	}
	return fmt.Sprintf("%s-%s-%d", productID, size, t.UnixMilli())
}
