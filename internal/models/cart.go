package models

// CartProduct est la copie figée d'un produit prise au moment de l'ajout au panier.
// Les modifications ultérieures du catalogue ne la touchent pas.
type CartProduct struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Category string  `json:"category"`
	InStock  bool    `json:"inStock"`
}

type CartItem struct {
	ID       string      `json:"id"`
	Product  CartProduct `json:"product"`
	Quantity int         `json:"quantity"`
	Size     string      `json:"size,omitempty"`
}

// LineTotal retourne prix × quantité dans l'unité de base.
func (i CartItem) LineTotal() float64 {
	return i.Product.Price * float64(i.Quantity)
}

// CartSnapshot est la vue du panier renvoyée au client (REST et WebSocket).
type CartSnapshot struct {
	Items       []CartItem `json:"items"`
	Currency    Currency   `json:"currency"`
	TotalItems  int        `json:"total_items"`
	TotalPrice  float64    `json:"total_price"`
	SidebarOpen bool       `json:"sidebar_open"`
}
