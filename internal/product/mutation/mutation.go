// Package mutation holds the pure collection transforms behind every product
// operation. Each function returns a fresh slice and never modifies its
// input; the boolean result reports whether anything changed.
package mutation

import (
	"fmt"
	"time"

	"github.com/smallbiznis/scanprice/internal/product/domain"
)

// PlaceholderImage is the generated image reference for products without one.
func PlaceholderImage(seed string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/400/400", seed)
}

// PlaceholderDescription is the description given to import-created products.
func PlaceholderDescription(name string) string {
	return fmt.Sprintf("Product description for %s", name)
}

// AddProduct appends a product built from draft. id must be unique in the
// collection; now seeds the placeholder image.
func AddProduct(products []domain.Product, draft domain.Draft, id string, now time.Time) ([]domain.Product, domain.Product) {
	created := domain.Product{
		ID:                 id,
		Name:               draft.Name,
		Price:              draft.Price,
		Description:        draft.Description,
		DiscountExpiration: draft.DiscountExpiration,
		ImageURL:           draft.ImageURL,
		Stock:              domain.DefaultStock,
	}
	if draft.Discount != nil {
		created.Discount = *draft.Discount
	}
	if draft.Stock != nil {
		created.Stock = max(0, *draft.Stock)
	}
	if created.ImageURL == "" {
		created.ImageURL = PlaceholderImage(fmt.Sprintf("%d", now.UnixMilli()))
	}

	next := domain.Clone(products)
	next = append(next, created)
	return next, created
}

// EditProduct replaces the entry with the same id wholesale.
func EditProduct(products []domain.Product, updated domain.Product) ([]domain.Product, bool) {
	return mapByID(products, updated.ID, func(domain.Product) domain.Product {
		updated.Stock = max(0, updated.Stock)
		return updated
	})
}

func DeleteProduct(products []domain.Product, id string) ([]domain.Product, bool) {
	next := make([]domain.Product, 0, len(products))
	changed := false
	for _, p := range domain.Clone(products) {
		if p.ID == id {
			changed = true
			continue
		}
		next = append(next, p)
	}
	return next, changed
}

func IncrementScan(products []domain.Product, id string, now time.Time) ([]domain.Product, bool) {
	return BulkIncrementScan(products, []string{id}, now)
}

// BulkIncrementScan stamps every matched product with the same now.
// Repeated ids count once.
func BulkIncrementScan(products []domain.Product, ids []string, now time.Time) ([]domain.Product, bool) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	next := domain.Clone(products)
	changed := false
	for i := range next {
		if _, ok := set[next[i].ID]; !ok {
			continue
		}
		stamp := now
		next[i].Scans++
		next[i].LastScanned = &stamp
		changed = true
	}
	return next, changed
}

// DecrementStock lowers stock by quantity, clamping at zero. Non-positive
// quantities are ignored.
func DecrementStock(products []domain.Product, id string, quantity int64) ([]domain.Product, bool) {
	if quantity <= 0 {
		return domain.Clone(products), false
	}
	return mapByID(products, id, func(p domain.Product) domain.Product {
		p.Stock = max(0, p.Stock-quantity)
		return p
	})
}

// ProcessSales applies entries in order. Unknown ids and non-positive
// quantities are dropped; repeated ids accumulate.
func ProcessSales(products []domain.Product, entries []domain.SaleEntry) ([]domain.Product, bool) {
	next := domain.Clone(products)
	index := indexByID(next)
	changed := false
	for _, entry := range entries {
		if entry.Quantity <= 0 {
			continue
		}
		i, ok := index[entry.ProductID]
		if !ok {
			continue
		}
		next[i].Sales += entry.Quantity
		next[i].Stock = max(0, next[i].Stock-entry.Quantity)
		changed = true
	}
	return next, changed
}

// AddProductsBatch merges rows into the collection keyed by id. Rows apply
// in order, so a later duplicate row merges over the result of an earlier
// one. Existing products keep their position; new products are appended in
// first-seen order.
func AddProductsBatch(products []domain.Product, rows []domain.UploadRow) ([]domain.Product, bool) {
	next := domain.Clone(products)
	index := indexByID(next)
	for _, row := range rows {
		if i, ok := index[row.ID]; ok {
			next[i] = mergeRow(next[i], row)
			continue
		}
		index[row.ID] = len(next)
		next = append(next, newFromRow(row))
	}
	return next, len(rows) > 0
}

func mergeRow(existing domain.Product, row domain.UploadRow) domain.Product {
	existing.Name = row.Name
	existing.Price = row.Price
	if row.Discount != nil {
		existing.Discount = *row.Discount
	}
	if row.Sales != nil {
		existing.Sales = *row.Sales
	}
	if row.Stock != nil {
		existing.Stock = max(0, *row.Stock)
	}
	if row.DiscountExpiration != nil {
		exp := *row.DiscountExpiration
		existing.DiscountExpiration = &exp
	}
	return existing
}

func newFromRow(row domain.UploadRow) domain.Product {
	created := domain.Product{
		ID:          row.ID,
		Name:        row.Name,
		Price:       row.Price,
		Description: PlaceholderDescription(row.Name),
		ImageURL:    PlaceholderImage(row.ID),
		Stock:       domain.DefaultStock,
	}
	if row.Discount != nil {
		created.Discount = *row.Discount
	}
	if row.Sales != nil {
		created.Sales = *row.Sales
	}
	if row.Stock != nil {
		created.Stock = max(0, *row.Stock)
	}
	if row.DiscountExpiration != nil {
		exp := *row.DiscountExpiration
		created.DiscountExpiration = &exp
	}
	return created
}

func mapByID(products []domain.Product, id string, fn func(domain.Product) domain.Product) ([]domain.Product, bool) {
	next := domain.Clone(products)
	for i := range next {
		if next[i].ID == id {
			next[i] = fn(next[i])
			return next, true
		}
	}
	return next, false
}

func indexByID(products []domain.Product) map[string]int {
	index := make(map[string]int, len(products))
	for i, p := range products {
		index[p.ID] = i
	}
	return index
}
