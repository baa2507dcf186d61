package catalog

import (
	"math"
	"time"

	"github.com/smallbiznis/scanprice/internal/product/domain"
)

// PublicProduct is the read-only view behind a product link.
type PublicProduct struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	ImageURL           string     `json:"imageUrl"`
	Price              float64    `json:"price"`
	Discount           float64    `json:"discount"`
	FinalPrice         float64    `json:"finalPrice"`
	OnPromotion        bool       `json:"onPromotion"`
	DiscountExpiration *time.Time `json:"discountExpiration,omitempty"`
	URL                string     `json:"url"`
}

func PublicView(products []domain.Product, id, base string) (PublicProduct, error) {
	for _, p := range products {
		if p.ID != id {
			continue
		}
		return PublicProduct{
			ID:                 p.ID,
			Name:               p.Name,
			Description:        p.Description,
			ImageURL:           p.ImageURL,
			Price:              p.Price,
			Discount:           p.Discount,
			FinalPrice:         roundCents(p.DiscountedPrice()),
			OnPromotion:        p.OnPromotion(),
			DiscountExpiration: p.DiscountExpiration,
			URL:                ProductURL(base, p.ID),
		}, nil
	}
	return PublicProduct{}, domain.ErrNotFound
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
