package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront_back_end/internal/cart"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/orders"
	"storefront_back_end/internal/services"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WarningOrderSaveFailed signale un paiement réussi dont la commande n'a pas pu être enregistrée.
const WarningOrderSaveFailed = "order-save-failed"

const mailTimeout = 30 * time.Second

var (
	ErrEmptyCart           = errors.New("le panier est vide")
	ErrValidation          = errors.New("informations client invalides")
	ErrPaymentProvider     = errors.New("le prestataire de paiement est indisponible")
	ErrPaymentNotCompleted = errors.New("le paiement n'est pas confirmé")
	ErrSessionMismatch     = errors.New("ce paiement n'appartient pas à cette session")
)

type Gateway interface {
	Currency() string
	CreateIntent(ctx context.Context, amount int64, receiptEmail string, metadata map[string]string) (*services.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*services.PaymentIntent, error)
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error)
}

type Mailer interface {
	SendOrderConfirmation(ctx context.Context, order models.Order) error
}

// Customer reprend le formulaire de livraison.
type Customer struct {
	Email      string `json:"email" binding:"omitempty,email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c Customer) validate() error {
	var missing []string
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(c.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	if strings.TrimSpace(c.LastName) == "" {
		missing = append(missing, "lastName")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: champs obligatoires manquants: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

type IntentResult struct {
	ClientSecret    string  `json:"clientSecret"`
	PaymentIntentID string  `json:"paymentIntentId"`
	Amount          int64   `json:"amount"`
	Currency        string  `json:"currency"`
	DisplayTotal    float64 `json:"displayTotal"`
	DisplayCurrency string  `json:"displayCurrency"`
}

type CompleteResult struct {
	Order           *models.Order `json:"order,omitempty"`
	OrderNumber     string        `json:"orderNumber,omitempty"`
	PaymentIntentID string        `json:"paymentIntentId"`
	Warning         string        `json:"warning,omitempty"`
}

type Service struct {
	gateway Gateway
	orders  OrderStore
	pending PendingStore
	mailer  Mailer
	log     *zap.Logger
	now     func() time.Time
	async   func(func())
}

func NewService(gateway Gateway, orderStore OrderStore, pending PendingStore, mailer Mailer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		gateway: gateway,
		orders:  orderStore,
		pending: pending,
		mailer:  mailer,
		log:     log,
		now:     time.Now,
		async:   func(f func()) { go f() },
	}
}

// MinorUnits convertit un total affiché en centimes entiers.
func MinorUnits(total float64) int64 {
	return decimal.NewFromFloat(total).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CreatePaymentIntent ouvre un paiement du montant du panier.
// Le montant est le total dans la devise affichée, mais il est facturé dans la
// devise de traitement configurée ; l'écart est journalisé, pas converti.
// Les lignes soumises sont figées sous l'identifiant du paiement.
func (s *Service) CreatePaymentIntent(ctx context.Context, store *cart.Store, customer Customer) (*IntentResult, error) {
	snap := store.Snapshot()
	if len(snap.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if err := customer.validate(); err != nil {
		return nil, err
	}

	amount := MinorUnits(snap.TotalPrice)
	if !strings.EqualFold(snap.Currency.Code, s.gateway.Currency()) {
		s.log.Warn("⚠️ Devise affichée différente de la devise de paiement",
			zap.String("display", snap.Currency.Code),
			zap.String("charged", s.gateway.Currency()),
			zap.Int64("amount", amount))
	}

	metadata := map[string]string{
		"customerEmail":   customer.Email,
		"customerName":    customer.FullName(),
		"itemCount":       strconv.Itoa(snap.TotalItems),
		"displayCurrency": snap.Currency.Code,
		"session":         store.SessionID(),
	}

	intent, err := s.gateway.CreateIntent(ctx, amount, customer.Email, metadata)
	if err != nil {
		s.log.Error("❌ Erreur création PaymentIntent", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	pending := Pending{
		SessionID:  store.SessionID(),
		Items:      snap.Items,
		Currency:   snap.Currency,
		TotalPrice: snap.TotalPrice,
		Amount:     amount,
		Customer:   customer,
	}
	if err := s.pending.Save(ctx, intent.ID, pending); err != nil {
		// Complete retombera sur le panier courant s'il correspond au montant payé
		s.log.Warn("⚠️ Panier soumis non enregistré", zap.String("payment_intent", intent.ID), zap.Error(err))
	}

	s.log.Info("💳 PaymentIntent créé",
		zap.String("payment_intent", intent.ID),
		zap.Int64("amount", amount),
		zap.String("currency", s.gateway.Currency()))

	return &IntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          amount,
		Currency:        s.gateway.Currency(),
		DisplayTotal:    snap.TotalPrice,
		DisplayCurrency: snap.Currency.Code,
	}, nil
}

// Complete enregistre la commande d'un paiement confirmé puis vide le panier.
// La commande reprend les lignes figées à la création du paiement. Seule la
// session qui a créé le paiement peut le confirmer.
// Si l'enregistrement échoue, le paiement reste acquis : le résultat porte un
// avertissement, le numéro de commande et la référence de paiement. Un nouvel
// appel retente l'enregistrement avec le même numéro.
func (s *Service) Complete(ctx context.Context, store *cart.Store, paymentIntentID string, customer Customer) (*CompleteResult, error) {
	if strings.TrimSpace(paymentIntentID) == "" {
		return nil, fmt.Errorf("%w: payment_intent_id manquant", ErrValidation)
	}

	intent, err := s.gateway.GetIntent(ctx, paymentIntentID)
	if err != nil {
		s.log.Error("❌ Lecture PaymentIntent", zap.String("payment_intent", paymentIntentID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}
	if intent.Metadata["session"] != store.SessionID() {
		s.log.Warn("🚫 Confirmation depuis une autre session",
			zap.String("payment_intent", intent.ID),
			zap.String("session", store.SessionID()))
		return nil, ErrSessionMismatch
	}

	// Une seconde confirmation du même paiement renvoie la commande déjà créée
	existing, err := s.orders.GetByPaymentIntent(ctx, intent.ID)
	if err == nil {
		return &CompleteResult{Order: existing, OrderNumber: existing.OrderNumber, PaymentIntentID: intent.ID}, nil
	}
	if !errors.Is(err, orders.ErrNotFound) {
		s.log.Warn("⚠️ Vérification de commande existante impossible", zap.String("payment_intent", intent.ID), zap.Error(err))
	}

	if !intent.Succeeded() {
		return nil, fmt.Errorf("%w: statut %s", ErrPaymentNotCompleted, intent.Status)
	}

	pending, err := s.pending.Load(ctx, intent.ID)
	if err != nil {
		s.log.Warn("⚠️ Lecture du panier soumis impossible", zap.String("payment_intent", intent.ID), zap.Error(err))
		pending = nil
	}
	if pending != nil && pending.SessionID != store.SessionID() {
		return nil, ErrSessionMismatch
	}
	if pending == nil {
		snap := store.Snapshot()
		if len(snap.Items) == 0 || MinorUnits(snap.TotalPrice) != intent.Amount {
			// Rien ne permet de retrouver les lignes payées : la commande sera reprise à la main
			s.log.Error("❌ Paiement réussi sans panier soumis correspondant",
				zap.String("payment_intent", intent.ID),
				zap.Int64("charged", intent.Amount),
				zap.Int64("cart", MinorUnits(snap.TotalPrice)))
			return &CompleteResult{PaymentIntentID: intent.ID, Warning: WarningOrderSaveFailed}, nil
		}
		pending = &Pending{
			SessionID:  store.SessionID(),
			Items:      snap.Items,
			Currency:   snap.Currency,
			TotalPrice: snap.TotalPrice,
			Amount:     intent.Amount,
		}
	}

	customer = withMetadata(withDefaults(customer, pending.Customer), intent.Metadata)
	if err := customer.validate(); err != nil {
		return nil, err
	}

	if pending.OrderNumber == "" {
		pending.OrderNumber = orders.NewOrderNumber(s.now())
	}
	order := buildOrder(*pending, customer, intent.ID, s.now())
	result := &CompleteResult{OrderNumber: order.OrderNumber, PaymentIntentID: intent.ID}

	if !pending.CartCleared {
		s.finish(store)
		pending.CartCleared = true
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.log.Error("❌ Paiement réussi mais commande non enregistrée",
			zap.String("payment_intent", intent.ID),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
		if err := s.pending.Save(ctx, intent.ID, *pending); err != nil {
			s.log.Warn("⚠️ Numéro de commande non conservé", zap.String("payment_intent", intent.ID), zap.Error(err))
		}
		result.Warning = WarningOrderSaveFailed
		return result, nil
	}

	result.Order = order
	s.sendConfirmation(*order)
	return result, nil
}

func (s *Service) finish(store *cart.Store) {
	store.ClearCart()
	store.Close()
}

func (s *Service) sendConfirmation(order models.Order) {
	if s.mailer == nil {
		return
	}
	s.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := s.mailer.SendOrderConfirmation(ctx, order); err != nil {
			s.log.Warn("⚠️ E-mail de confirmation non envoyé", zap.String("order_number", order.OrderNumber), zap.Error(err))
		}
	})
}

func buildOrder(p Pending, c Customer, paymentIntentID string, now time.Time) *models.Order {
	items := make([]models.OrderItem, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, models.OrderItem{
			ID:       it.Product.ID,
			Name:     it.Product.Name,
			Price:    it.Product.Price,
			Quantity: it.Quantity,
			Size:     it.Size,
		})
	}

	return &models.Order{
		OrderNumber:   p.OrderNumber,
		CustomerEmail: strings.TrimSpace(c.Email),
		CustomerName:  c.FullName(),
		CustomerAddress: models.CustomerAddress{
			FirstName:  c.FirstName,
			LastName:   c.LastName,
			Address:    c.Address,
			City:       c.City,
			PostalCode: c.PostalCode,
			Country:    c.Country,
		},
		Items:           items,
		Subtotal:        orders.RoundAmount(p.TotalPrice),
		Currency:        p.Currency.Code,
		PaymentIntentID: paymentIntentID,
		Status:          models.OrderStatusCompleted,
		CreatedAt:       now,
	}
}

// withDefaults complète le formulaire reçu avec celui transmis à la création du paiement.
func withDefaults(c, submitted Customer) Customer {
	if strings.TrimSpace(c.Email) == "" && strings.TrimSpace(c.FirstName) == "" && strings.TrimSpace(c.LastName) == "" {
		return submitted
	}
	return c
}

// withMetadata complète le client avec ce qui a été transmis à la création du paiement.
func withMetadata(c Customer, md map[string]string) Customer {
	if c.Email == "" {
		c.Email = md["customerEmail"]
	}
	if c.FirstName == "" && c.LastName == "" {
		if name := strings.TrimSpace(md["customerName"]); name != "" {
			first, last, _ := strings.Cut(name, " ")
			c.FirstName, c.LastName = first, last
		}
	}
	return c
}
