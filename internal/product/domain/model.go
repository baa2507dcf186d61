package domain

import "time"

// Product is one catalog entry. The JSON field names are the persisted blob
// format and must stay stable.
type Product struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Price              float64    `json:"price"`
	Discount           float64    `json:"discount"`
	DiscountExpiration *time.Time `json:"discountExpiration,omitempty"`
	Description        string     `json:"description"`
	Scans              int64      `json:"scans"`
	Sales              int64      `json:"sales"`
	Stock              int64      `json:"stock"`
	LastScanned        *time.Time `json:"lastScanned,omitempty"`
	ImageURL           string     `json:"imageUrl"`
}

// OnPromotion reports whether the discount is live, ignoring expiration.
func (p Product) OnPromotion() bool {
	return p.Discount > 0
}

// DiscountedPrice applies the percentage discount when one is set.
func (p Product) DiscountedPrice() float64 {
	if !p.OnPromotion() {
		return p.Price
	}
	return p.Price * (1 - p.Discount/100)
}

// Draft is the input to AddProduct. Nil pointers take defaults.
type Draft struct {
	Name               string     `json:"name"`
	Price              float64    `json:"price"`
	Discount           *float64   `json:"discount,omitempty"`
	DiscountExpiration *time.Time `json:"discountExpiration,omitempty"`
	Description        string     `json:"description"`
	Stock              *int64     `json:"stock,omitempty"`
	ImageURL           string     `json:"imageUrl,omitempty"`
}

// UploadRow is a pre-validated import row. Nil optional fields keep the
// existing value on merge.
type UploadRow struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Price              float64    `json:"price"`
	Discount           *float64   `json:"discount,omitempty"`
	Sales              *int64     `json:"sales,omitempty"`
	Stock              *int64     `json:"stock,omitempty"`
	DiscountExpiration *time.Time `json:"discountExpiration,omitempty"`
}

type SaleEntry struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// WithStatus pairs a product with its derived status for read models.
type WithStatus struct {
	Product
	Status Status `json:"status"`
}

type Summary struct {
	TotalScans     int64          `json:"totalScans"`
	TotalSales     int64          `json:"totalSales"`
	ActiveProducts int            `json:"activeProducts"`
	ByStatus       map[Status]int `json:"byStatus"`
}

const (
	DefaultStock = 100
)

// Clone copies the slice and every pointer field so the result shares no
// memory with the input.
func Clone(products []Product) []Product {
	if products == nil {
		return []Product{}
	}
	out := make([]Product, len(products))
	for i, p := range products {
		out[i] = p
		out[i].DiscountExpiration = cloneTime(p.DiscountExpiration)
		out[i].LastScanned = cloneTime(p.LastScanned)
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
