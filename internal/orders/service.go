package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"storefront_back_end/internal/database"
	"storefront_back_end/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const mailTimeout = 30 * time.Second

var (
	ErrValidation    = errors.New("commande invalide")
	ErrInvalidStatus = errors.New("statut de commande inconnu")
	ErrNotFound      = database.ErrNotFound
)

type Repository interface {
	Create(ctx context.Context, o *models.Order) error
	List(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
}

// Mailer prévient le client d'un changement de statut.
type Mailer interface {
	SendOrderStatus(ctx context.Context, order models.Order) error
}

type Service struct {
	repo   Repository
	mailer Mailer
	log    *zap.Logger
	now    func() time.Time
	// async lance les envois d'e-mails hors de la requête
	async func(func())
}

func NewService(repo Repository, mailer Mailer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		mailer: mailer,
		log:    log,
		now:    time.Now,
		async:  func(f func()) { go f() },
	}
}

// NewOrderNumber produit "ORD-<millisecondes>-<9 caractères base36 majuscules>".
func NewOrderNumber(now time.Time) string {
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return "ORD-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + string(suffix)
}

// RoundAmount arrondit un montant au centime.
func RoundAmount(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Create valide la commande avant toute écriture puis l'enregistre.
func (s *Service) Create(ctx context.Context, o *models.Order) error {
	if err := validate(o); err != nil {
		return err
	}

	now := s.now()
	o.Subtotal = RoundAmount(o.Subtotal)
	if o.Status == "" {
		o.Status = models.OrderStatusCompleted
	}
	if o.Items == nil {
		o.Items = []models.OrderItem{}
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	if err := s.repo.Create(ctx, o); err != nil {
		return err
	}
	s.log.Info("🧾 Commande enregistrée",
		zap.String("order_number", o.OrderNumber),
		zap.Float64("subtotal", o.Subtotal),
		zap.String("currency", o.Currency))
	return nil
}

func validate(o *models.Order) error {
	var missing []string
	if strings.TrimSpace(o.OrderNumber) == "" {
		missing = append(missing, "order_number")
	}
	if strings.TrimSpace(o.CustomerEmail) == "" {
		missing = append(missing, "customer_email")
	}
	if strings.TrimSpace(o.CustomerName) == "" {
		missing = append(missing, "customer_name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: champs obligatoires manquants: %s", ErrValidation, strings.Join(missing, ", "))
	}
	if _, err := mail.ParseAddress(o.CustomerEmail); err != nil {
		return fmt.Errorf("%w: e-mail invalide", ErrValidation)
	}
	if !o.Status.IsValid() && o.Status != "" {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, o.Status)
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]models.Order, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	return s.repo.GetByNumber(ctx, number)
}

func (s *Service) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	return s.repo.GetByPaymentIntent(ctx, paymentIntentID)
}

// UpdateStatus est la seule mutation autorisée après création.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	previous := order.Status
	order.Status = status
	order.UpdatedAt = s.now()

	s.log.Info("📦 Statut de commande modifié",
		zap.String("order_number", order.OrderNumber),
		zap.String("from", string(previous)),
		zap.String("to", string(status)))

	if s.mailer != nil {
		snapshot := *order
		s.async(func() {
			ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
			defer cancel()
			if err := s.mailer.SendOrderStatus(ctx, snapshot); err != nil {
				s.log.Warn("⚠️ E-mail de statut non envoyé", zap.String("order_number", snapshot.OrderNumber), zap.Error(err))
			}
		})
	}
	return order, nil
}

// Stats calcule les indicateurs du tableau de bord admin (hors nombre de produits).
func (s *Service) Stats(ctx context.Context) (models.DashboardStats, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}

	revenue := decimal.Zero
	counts := make(map[models.OrderStatus]int)
	for _, o := range orders {
		revenue = revenue.Add(decimal.NewFromFloat(o.Subtotal))
		counts[o.Status]++
	}

	return models.DashboardStats{
		TotalOrders:  len(orders),
		TotalRevenue: revenue.Round(2).InexactFloat64(),
		StatusCount:  counts,
	}, nil
}
