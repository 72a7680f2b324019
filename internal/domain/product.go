package domain

// Product is a catalog entry. Products are owned by the remote catalog
// service; the storefront only reads them and never mutates the source
// of truth.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Discount    float64 `json:"discount,omitempty"`
	Badge       string  `json:"badge,omitempty"`
	Stock       int     `json:"stock"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// EffectivePrice is the unit price after the optional percentage
// discount. A zero or absent discount leaves the price unchanged.
func (p Product) EffectivePrice() float64 {
	if p.Discount > 0 {
		return p.Price * (1 - p.Discount/100)
	}
	return p.Price
}

// Categories is the fixed category set of the storefront catalog.
var Categories = []string{"Игры", "Ключи", "Аккаунты", "ПО", "Гифты"}
