package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"storefront_back_end/internal/models"

	"github.com/gocql/gocql"
)

// OrderRepository stocke les commandes. Adresse et lignes sont sérialisées en JSON :
// ce sont des copies figées, jamais interrogées champ par champ.
type OrderRepository struct {
	session *gocql.Session
}

func NewOrderRepository(session *gocql.Session) *OrderRepository {
	return &OrderRepository{session: session}
}

func scanOrder(s scanner, o *models.Order) (bool, error) {
	var (
		id             gocql.UUID
		address, items string
		status         string
	)
	if !s.Scan(&id, &o.OrderNumber, &o.CustomerEmail, &o.CustomerName, &address, &items,
		&o.Subtotal, &o.Currency, &o.PaymentIntentID, &status, &o.CreatedAt, &o.UpdatedAt) {
		return false, nil
	}
	o.ID = id.String()
	o.Status = models.OrderStatus(status)
	if address != "" {
		if err := json.Unmarshal([]byte(address), &o.CustomerAddress); err != nil {
			return true, fmt.Errorf("décodage adresse commande %s: %w", o.ID, err)
		}
	}
	o.Items = []models.OrderItem{}
	if items != "" {
		if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
			return true, fmt.Errorf("décodage lignes commande %s: %w", o.ID, err)
		}
	}
	return true, nil
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = gocql.TimeUUID().String()
	}
	uid, err := gocql.ParseUUID(o.ID)
	if err != nil {
		return fmt.Errorf("identifiant commande invalide: %w", err)
	}

	address, err := json.Marshal(o.CustomerAddress)
	if err != nil {
		return fmt.Errorf("encodage adresse: %w", err)
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encodage lignes: %w", err)
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}

	b := r.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	b.Query(stmtInsertOrder, uid, o.OrderNumber, o.CustomerEmail, o.CustomerName, string(address), string(items),
		o.Subtotal, o.Currency, o.PaymentIntentID, string(o.Status), o.CreatedAt, o.UpdatedAt)
	b.Query(stmtInsertOrderByNumber, o.OrderNumber, uid)
	if o.PaymentIntentID != "" {
		b.Query(stmtInsertOrderByPayment, o.PaymentIntentID, uid)
	}
	if err := r.session.ExecuteBatch(b); err != nil {
		return fmt.Errorf("création commande: %w", err)
	}
	return nil
}

// List retourne toutes les commandes, de la plus récente à la plus ancienne.
func (r *OrderRepository) List(ctx context.Context) ([]models.Order, error) {
	iter := r.session.Query(stmtSelectOrders).WithContext(ctx).Iter()

	orders := []models.Order{}
	for {
		var o models.Order
		ok, err := scanOrder(iter, &o)
		if err != nil {
			_ = iter.Close()
			return nil, err
		}
		if !ok {
			break
		}
		orders = append(orders, o)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture commandes: %w", err)
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	uid, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	iter := r.session.Query(stmtSelectOrderByID, uid).WithContext(ctx).Iter()
	var o models.Order
	found, scanErr := scanOrder(iter, &o)
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture commande %s: %w", id, err)
	}
	if scanErr != nil {
		return nil, scanErr
	}
	if !found {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	return r.getByIndex(ctx, stmtSelectOrderByNumber, number)
}

func (r *OrderRepository) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	return r.getByIndex(ctx, stmtSelectOrderByPayment, paymentIntentID)
}

func (r *OrderRepository) getByIndex(ctx context.Context, stmt, key string) (*models.Order, error) {
	var id gocql.UUID
	err := r.session.Query(stmt, key).WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture index commande %s: %w", key, err)
	}
	return r.GetByID(ctx, id.String())
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	uid, err := gocql.ParseUUID(id)
	if err != nil {
		return ErrNotFound
	}
	if err := r.session.Query(stmtUpdateStatus, string(status), time.Now(), uid).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("mise à jour statut %s: %w", id, err)
	}
	return nil
}
