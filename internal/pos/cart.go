package pos

import (
	"github.com/smallbiznis/scanprice/internal/product/domain"
)

type Item struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// Cart keeps items in first-added order. Methods return a new Cart.
type Cart struct {
	ID    string `json:"id"`
	Items []Item `json:"items"`
}

func (c Cart) Add(productID string, quantity int64) Cart {
	if quantity <= 0 {
		return c
	}
	next := c.clone()
	for i := range next.Items {
		if next.Items[i].ProductID == productID {
			next.Items[i].Quantity += quantity
			return next
		}
	}
	next.Items = append(next.Items, Item{ProductID: productID, Quantity: quantity})
	return next
}

// Remove takes one unit off productID and drops the line at zero.
func (c Cart) Remove(productID string) Cart {
	next := Cart{ID: c.ID, Items: make([]Item, 0, len(c.Items))}
	for _, item := range c.Items {
		if item.ProductID == productID {
			item.Quantity--
			if item.Quantity <= 0 {
				continue
			}
		}
		next.Items = append(next.Items, item)
	}
	return next
}

func (c Cart) Clear() Cart {
	return Cart{ID: c.ID, Items: []Item{}}
}

func (c Cart) Empty() bool {
	return len(c.Items) == 0
}

// Entries converts the cart into sales entries for ProcessSales.
func (c Cart) Entries() []domain.SaleEntry {
	out := make([]domain.SaleEntry, 0, len(c.Items))
	for _, item := range c.Items {
		out = append(out, domain.SaleEntry{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

type Line struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type View struct {
	ID    string  `json:"id"`
	Lines []Line  `json:"lines"`
	Total float64 `json:"total"`
}

// Total prices the cart at list price. Lines whose product no longer exists
// are left out.
func (c Cart) Total(products []domain.Product) View {
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	view := View{ID: c.ID, Lines: make([]Line, 0, len(c.Items))}
	for _, item := range c.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		line := Line{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  item.Quantity,
			Subtotal:  p.Price * float64(item.Quantity),
		}
		view.Total += line.Subtotal
		view.Lines = append(view.Lines, line)
	}
	return view
}

func (c Cart) clone() Cart {
	return Cart{ID: c.ID, Items: append([]Item(nil), c.Items...)}
}
