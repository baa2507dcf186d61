package domain

import (
	"math"
	"strings"
)

// ValidateDraft applies the shape checks the add form enforces before
// AddProduct is called.
func ValidateDraft(d Draft) error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrInvalidName
	}
	if d.Price < 0 {
		return ErrInvalidPrice
	}
	if d.Discount != nil && (*d.Discount < 0 || *d.Discount > 100) {
		return ErrInvalidDiscount
	}
	if d.Stock != nil && *d.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

// ValidateProduct applies the edit form checks to a full replacement.
func ValidateProduct(p Product) error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrInvalidID
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	if p.Price < 0 {
		return ErrInvalidPrice
	}
	if p.Discount < 0 || p.Discount > 100 {
		return ErrInvalidDiscount
	}
	if p.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

// ValidateUploadRow is the precondition AddProductsBatch relies on: an id, a
// name, a non-negative price and, when present, a discount in [0,100] and
// non-negative sales and stock.
func ValidateUploadRow(r UploadRow) error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrInvalidID
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Price < 0 || math.IsNaN(r.Price) {
		return ErrInvalidPrice
	}
	if r.Discount != nil && (*r.Discount < 0 || *r.Discount > 100) {
		return ErrInvalidDiscount
	}
	if r.Sales != nil && *r.Sales < 0 {
		return ErrInvalidSales
	}
	if r.Stock != nil && *r.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}
