package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"storefront_back_end/internal/models"

	"github.com/gocql/gocql"
	"go.uber.org/zap"
)

type ProductRepository struct {
	session *gocql.Session
	slugs   slugIndex
	log     *zap.Logger
}

func NewProductRepository(session *gocql.Session, log *zap.Logger) *ProductRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductRepository{session: session, slugs: cqlSlugIndex{session: session}, log: log}
}

// slugIndex réserve et libère les slugs de products_by_slug.
type slugIndex interface {
	// Claim retourne false quand un autre produit détient déjà le slug.
	Claim(ctx context.Context, slug string, id gocql.UUID) (bool, error)
	Release(ctx context.Context, slug string, id gocql.UUID) error
}

type cqlSlugIndex struct {
	session *gocql.Session
}

func (x cqlSlugIndex) Claim(ctx context.Context, slug string, id gocql.UUID) (bool, error) {
	existing := map[string]interface{}{}
	applied, err := x.session.Query(stmtClaimSlug, slug, id).WithContext(ctx).MapScanCAS(existing)
	if err != nil {
		return false, fmt.Errorf("réservation slug %s: %w", slug, err)
	}
	if applied {
		return true, nil
	}
	// Une réservation rejouée par le même produit reste valable
	owner, _ := existing["product_id"].(gocql.UUID)
	return owner == id, nil
}

func (x cqlSlugIndex) Release(ctx context.Context, slug string, id gocql.UUID) error {
	_, err := x.session.Query(stmtReleaseSlug, slug, id).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("libération slug %s: %w", slug, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) bool
}

func scanProduct(s scanner, p *models.Product) bool {
	var id gocql.UUID
	ok := s.Scan(&id, &p.Name, &p.Slug, &p.Description, &p.Price, &p.DiscountPercentage, &p.DiscountedPrice,
		&p.Category, &p.Colors, &p.Sizes, &p.Images, &p.InStock, &p.CreatedAt, &p.UpdatedAt)
	if ok {
		p.ID = id.String()
	}
	return ok
}

// List retourne tous les produits, du plus récent au plus ancien.
// Scylla ne trie pas un scan complet : le tri se fait ici.
func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	iter := r.session.Query(stmtSelectProducts).WithContext(ctx).Iter()

	products := []models.Product{}
	var p models.Product
	for scanProduct(iter, &p) {
		products = append(products, p)
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture produits: %w", err)
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	uid, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var p models.Product
	iter := r.session.Query(stmtSelectProductByID, uid).WithContext(ctx).Iter()
	found := scanProduct(iter, &p)
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture produit %s: %w", id, err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var id gocql.UUID
	err := r.session.Query(stmtSelectSlug, slug).WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture slug %s: %w", slug, err)
	}
	return r.GetByID(ctx, id.String())
}

// Create attribue un identifiant si besoin, réserve le slug puis écrit le produit.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = gocql.TimeUUID().String()
	}
	uid, err := gocql.ParseUUID(p.ID)
	if err != nil {
		return fmt.Errorf("identifiant produit invalide: %w", err)
	}

	if err := r.claimSlug(ctx, p.Slug, uid); err != nil {
		return err
	}
	if err := r.session.Query(stmtInsertProduct, productValues(uid, p)...).WithContext(ctx).Exec(); err != nil {
		r.releaseSlug(ctx, p.Slug, uid)
		return fmt.Errorf("création produit: %w", err)
	}
	return nil
}

// Update réécrit la ligne complète. Un renommage réserve le nouveau slug avant
// l'écriture et ne libère l'ancien qu'après.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product, previousSlug string) error {
	uid, err := gocql.ParseUUID(p.ID)
	if err != nil {
		return ErrNotFound
	}

	renamed := previousSlug != p.Slug
	if renamed {
		if err := r.claimSlug(ctx, p.Slug, uid); err != nil {
			return err
		}
	}
	if err := r.session.Query(stmtInsertProduct, productValues(uid, p)...).WithContext(ctx).Exec(); err != nil {
		if renamed {
			r.releaseSlug(ctx, p.Slug, uid)
		}
		return fmt.Errorf("mise à jour produit %s: %w", p.ID, err)
	}
	if renamed {
		r.releaseSlug(ctx, previousSlug, uid)
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, p *models.Product) error {
	uid, err := gocql.ParseUUID(p.ID)
	if err != nil {
		return ErrNotFound
	}

	if err := r.session.Query(stmtDeleteProduct, uid).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("suppression produit %s: %w", p.ID, err)
	}
	r.releaseSlug(ctx, p.Slug, uid)
	return nil
}

func (r *ProductRepository) claimSlug(ctx context.Context, slug string, uid gocql.UUID) error {
	ok, err := r.slugs.Claim(ctx, slug, uid)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrSlugTaken, slug)
	}
	return nil
}

// releaseSlug ne libère le slug que s'il appartient encore au produit.
func (r *ProductRepository) releaseSlug(ctx context.Context, slug string, uid gocql.UUID) {
	if err := r.slugs.Release(ctx, slug, uid); err != nil {
		r.log.Warn("⚠️ Slug non libéré, réservation orpheline", zap.String("slug", slug), zap.String("id", uid.String()), zap.Error(err))
	}
}

func productValues(uid gocql.UUID, p *models.Product) []interface{} {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	return []interface{}{
		uid, p.Name, p.Slug, p.Description, p.Price, p.DiscountPercentage, p.DiscountedPrice,
		p.Category, p.Colors, p.Sizes, p.Images, p.InStock, p.CreatedAt, p.UpdatedAt,
	}
}
