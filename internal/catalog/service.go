package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"storefront_back_end/internal/database"
	"storefront_back_end/internal/models"

	"go.uber.org/zap"
)

// SearchLimit est le nombre de résultats montrés par la boîte de recherche.
const SearchLimit = 6

var (
	ErrValidation = errors.New("données produit invalides")
	ErrNotFound   = database.ErrNotFound
	ErrSlugTaken  = database.ErrSlugTaken
)

type Repository interface {
	List(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product, previousSlug string) error
	Delete(ctx context.Context, p *models.Product) error
}

type Cache interface {
	Products(ctx context.Context, load func(context.Context) ([]models.Product, error)) ([]models.Product, error)
	Invalidate(ctx context.Context)
}

type SearchIndex interface {
	Index(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]models.Product, error)
}

// ProductInput est la charge utile de création. Name, Price et Category sont obligatoires.
type ProductInput struct {
	Name               string   `json:"name" binding:"required"`
	Description        string   `json:"description"`
	Price              *float64 `json:"price" binding:"required,gte=0"`
	DiscountPercentage float64  `json:"discount_percentage" binding:"gte=0,lte=100"`
	Category           string   `json:"category" binding:"required"`
	Colors             []string `json:"colors"`
	Sizes              []string `json:"sizes"`
	Images             []string `json:"images"`
	InStock            *bool    `json:"in_stock"`
}

// ProductPatch ne modifie que les champs présents.
type ProductPatch struct {
	Name               *string   `json:"name" binding:"omitempty,min=1"`
	Description        *string   `json:"description"`
	Price              *float64  `json:"price" binding:"omitempty,gte=0"`
	DiscountPercentage *float64  `json:"discount_percentage" binding:"omitempty,gte=0,lte=100"`
	Category           *string   `json:"category" binding:"omitempty,min=1"`
	Colors             *[]string `json:"colors"`
	Sizes              *[]string `json:"sizes"`
	Images             *[]string `json:"images"`
	InStock            *bool     `json:"in_stock"`
}

// ListFilter reprend les filtres de la page boutique.
type ListFilter struct {
	Category string
	Query    string
	Sort     string
	Limit    int
}

const (
	SortName      = "name"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
)

type Service struct {
	repo  Repository
	cache Cache
	index SearchIndex
	log   *zap.Logger
	now   func() time.Time
}

func NewService(repo Repository, cache Cache, index SearchIndex, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, cache: cache, index: index, log: log, now: time.Now}
}

// All retourne le catalogue complet, du plus récent au plus ancien.
func (s *Service) All(ctx context.Context) ([]models.Product, error) {
	if s.cache == nil {
		return s.repo.List(ctx)
	}
	return s.cache.Products(ctx, s.repo.List)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Product, error) {
	products, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(products, f), nil
}

// Filter applique catégorie, recherche texte, tri et limite sur une liste déjà chargée.
func Filter(products []models.Product, f ListFilter) []models.Product {
	out := make([]models.Product, 0, len(products))
	q := strings.ToLower(strings.TrimSpace(f.Query))
	for _, p := range products {
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if q != "" && !matches(p, q) {
			continue
		}
		out = append(out, p)
	}

	switch f.Sort {
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].DiscountedPrice < out[j].DiscountedPrice })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].DiscountedPrice > out[j].DiscountedPrice })
	}

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func matches(p models.Product, q string) bool {
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Category), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

// Search interroge Elasticsearch et retombe sur le filtrage en mémoire si l'index
// est indisponible ou ne trouve rien.
func (s *Service) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Product{}, nil
	}

	if s.index != nil {
		results, err := s.index.Search(ctx, query, SearchLimit)
		if err == nil && len(results) > 0 {
			return results, nil
		}
		if err != nil {
			s.log.Debug("🔎 Recherche Elastic indisponible, repli en mémoire", zap.Error(err))
		}
	}

	return s.List(ctx, ListFilter{Query: query, Limit: SearchLimit})
}

func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	products, err := s.All(ctx)
	if err != nil {
		return 0, err
	}
	return len(products), nil
}

func (s *Service) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if strings.TrimSpace(in.Name) == "" || in.Price == nil || strings.TrimSpace(in.Category) == "" {
		return nil, fmt.Errorf("%w: nom, prix et catégorie sont obligatoires", ErrValidation)
	}
	if err := validateAmounts(*in.Price, in.DiscountPercentage); err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Product{
		Name:               strings.TrimSpace(in.Name),
		Description:        in.Description,
		Price:              *in.Price,
		DiscountPercentage: in.DiscountPercentage,
		Category:           strings.TrimSpace(in.Category),
		Colors:             nonNil(in.Colors),
		Sizes:              nonNil(in.Sizes),
		Images:             nonNil(in.Images),
		InStock:            true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
	p.ApplyDerivedFields()
	if p.Slug == "" {
		return nil, fmt.Errorf("%w: le nom doit contenir au moins une lettre ou un chiffre", ErrValidation)
	}
	if err := s.ensureSlugFree(ctx, p.Slug, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, p)
	return p, nil
}

// Update applique un patch partiel. Un renommage régénère le slug ; un changement
// de prix ou de remise recalcule le prix remisé.
func (s *Service) Update(ctx context.Context, id string, patch ProductPatch) (*models.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousSlug := p.Slug

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.DiscountPercentage != nil {
		p.DiscountPercentage = *patch.DiscountPercentage
	}
	if patch.Category != nil {
		p.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Colors != nil {
		p.Colors = nonNil(*patch.Colors)
	}
	if patch.Sizes != nil {
		p.Sizes = nonNil(*patch.Sizes)
	}
	if patch.Images != nil {
		p.Images = nonNil(*patch.Images)
	}
	if patch.InStock != nil {
		p.InStock = *patch.InStock
	}

	if p.Name == "" || p.Category == "" {
		return nil, fmt.Errorf("%w: nom et catégorie ne peuvent pas être vides", ErrValidation)
	}
	if err := validateAmounts(p.Price, p.DiscountPercentage); err != nil {
		return nil, err
	}
	p.ApplyDerivedFields()
	if p.Slug == "" {
		return nil, fmt.Errorf("%w: le nom doit contenir au moins une lettre ou un chiffre", ErrValidation)
	}
	if p.Slug != previousSlug {
		if err := s.ensureSlugFree(ctx, p.Slug, p.ID); err != nil {
			return nil, err
		}
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p, previousSlug); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, p)
	return p, nil
}

// Delete retire le produit. Les paniers et commandes existants gardent leur copie.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, p); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	if s.index != nil {
		if err := s.index.Delete(ctx, p.ID); err != nil {
			s.log.Warn("⚠️ Suppression de l'index de recherche échouée", zap.String("id", p.ID), zap.Error(err))
		}
	}
	s.log.Info("🗑️ Produit supprimé", zap.String("id", p.ID), zap.String("slug", p.Slug))
	return nil
}

// ensureSlugFree donne une erreur claire avant écriture ; le dépôt réserve le slug de façon atomique.
func (s *Service) ensureSlugFree(ctx context.Context, slug, ownerID string) error {
	existing, err := s.repo.GetBySlug(ctx, slug)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != ownerID {
		return fmt.Errorf("%w: %s", ErrSlugTaken, slug)
	}
	return nil
}

// afterWrite invalide le cache et réindexe. L'index est secondaire : un échec est journalisé.
func (s *Service) afterWrite(ctx context.Context, p *models.Product) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	if s.index != nil {
		if err := s.index.Index(ctx, *p); err != nil {
			s.log.Warn("⚠️ Indexation Elasticsearch échouée", zap.String("id", p.ID), zap.Error(err))
		}
	}
	s.log.Info("✅ Produit enregistré", zap.String("id", p.ID), zap.String("slug", p.Slug))
}

func validateAmounts(price, discount float64) error {
	if price < 0 {
		return fmt.Errorf("%w: le prix doit être positif", ErrValidation)
	}
	if discount < 0 || discount > 100 {
		return fmt.Errorf("%w: la remise doit être comprise entre 0 et 100", ErrValidation)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
