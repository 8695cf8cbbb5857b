package models

import (
	"regexp"
	"strings"
	"time"
)

type Product struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Slug               string    `json:"slug"`
	Description        string    `json:"description"`
	Price              float64   `json:"price"`
	DiscountPercentage float64   `json:"discount_percentage"`
	DiscountedPrice    float64   `json:"discounted_price"`
	Category           string    `json:"category"`
	Colors             []string  `json:"colors"`
	Sizes              []string  `json:"sizes"`
	Images             []string  `json:"images"`
	InStock            bool      `json:"in_stock"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9 -]`)
	slugSpaces       = regexp.MustCompile(`\s+`)
	slugHyphens      = regexp.MustCompile(`-+`)
)

// GenerateSlug dérive un slug URL-safe à partir du nom du produit.
// "Relaxed Trousers!!" -> "relaxed-trousers"
func GenerateSlug(name string) string {
	s := strings.ToLower(name)
	s = slugInvalidChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// CalculateDiscountedPrice applique un pourcentage de remise au prix.
func CalculateDiscountedPrice(price, discountPercentage float64) float64 {
	return price - (price*discountPercentage)/100
}

// ApplyDerivedFields recalcule le slug et le prix remisé, stockés de façon redondante.
func (p *Product) ApplyDerivedFields() {
	p.Slug = GenerateSlug(p.Name)
	p.DiscountedPrice = CalculateDiscountedPrice(p.Price, p.DiscountPercentage)
}

// PrimaryImage retourne la première image ou une chaîne vide.
func (p *Product) PrimaryImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

// Snapshot copie les champs affichés dans le panier au moment de l'ajout.
// Le prix retenu est le prix remisé.
func (p *Product) Snapshot() CartProduct {
	return CartProduct{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.DiscountedPrice,
		Image:    p.PrimaryImage(),
		Category: p.Category,
		InStock:  p.InStock,
	}
}
