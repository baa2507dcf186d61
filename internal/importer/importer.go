// Package importer turns uploaded spreadsheets into pre-validated product
// and sales rows. Rows that fail validation are skipped and counted.
package importer

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gocarina/gocsv"
	"github.com/smallbiznis/scanprice/internal/product/domain"
	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

var (
	ErrNoValidRows       = errors.New("no_valid_rows")
	ErrUnsupportedFormat = errors.New("unsupported_format")
	ErrUnreadable        = errors.New("unreadable_file")
)

type productRecord struct {
	ProductID          string `csv:"product_id"`
	Name               string `csv:"name"`
	Price              string `csv:"price"`
	Discount           string `csv:"discount"`
	Sales              string `csv:"sales"`
	Stock              string `csv:"stock"`
	DiscountExpiration string `csv:"discount_expiration"`
}

type salesRecord struct {
	ProductID    string `csv:"product_id"`
	QuantitySold string `csv:"quantity_sold"`
}

type ProductResult struct {
	Rows    []domain.UploadRow `json:"rows"`
	Skipped int                `json:"skipped"`
}

type SalesResult struct {
	Entries []domain.SaleEntry `json:"entries"`
	Skipped int                `json:"skipped"`
}

// ParseProducts reads product rows. A row needs an id, a name and a
// non-negative numeric price; optional columns that are present must parse.
func ParseProducts(filename string, data []byte) (ProductResult, error) {
	table, err := readTable(filename, data)
	if err != nil {
		return ProductResult{}, err
	}
	var records []productRecord
	if err := gocsv.UnmarshalCSV(table, &records); err != nil {
		return ProductResult{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var result ProductResult
	for _, rec := range records {
		row, err := rec.toUploadRow()
		if err != nil {
			result.Skipped++
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	if len(result.Rows) == 0 {
		return result, ErrNoValidRows
	}
	return result, nil
}

// ParseSales reads sales rows. A row needs a product id and a positive
// whole quantity.
func ParseSales(filename string, data []byte) (SalesResult, error) {
	table, err := readTable(filename, data)
	if err != nil {
		return SalesResult{}, err
	}
	var records []salesRecord
	if err := gocsv.UnmarshalCSV(table, &records); err != nil {
		return SalesResult{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var result SalesResult
	for _, rec := range records {
		id := strings.TrimSpace(rec.ProductID)
		qty, err := wholeNumber(rec.QuantitySold)
		if id == "" || err != nil || qty <= 0 {
			result.Skipped++
			continue
		}
		result.Entries = append(result.Entries, domain.SaleEntry{ProductID: id, Quantity: qty})
	}
	if len(result.Entries) == 0 {
		return result, ErrNoValidRows
	}
	return result, nil
}

// toUploadRow parses the raw cells; range checks are left to
// domain.ValidateUploadRow so API batches and imports agree.
func (r productRecord) toUploadRow() (domain.UploadRow, error) {
	row := domain.UploadRow{
		ID:   strings.TrimSpace(r.ProductID),
		Name: strings.TrimSpace(r.Name),
	}
	rawPrice := strings.TrimSpace(r.Price)
	if rawPrice == "" {
		return row, domain.ErrInvalidPrice
	}
	price, err := cast.ToFloat64E(rawPrice)
	if err != nil {
		return row, domain.ErrInvalidPrice
	}
	row.Price = price

	if v := strings.TrimSpace(r.Discount); v != "" {
		discount, err := cast.ToFloat64E(v)
		if err != nil {
			return row, domain.ErrInvalidDiscount
		}
		row.Discount = &discount
	}
	if v := strings.TrimSpace(r.Sales); v != "" {
		sales, err := wholeNumber(v)
		if err != nil {
			return row, domain.ErrInvalidSales
		}
		row.Sales = &sales
	}
	if v := strings.TrimSpace(r.Stock); v != "" {
		stock, err := wholeNumber(v)
		if err != nil {
			return row, domain.ErrInvalidStock
		}
		row.Stock = &stock
	}
	if v := strings.TrimSpace(r.DiscountExpiration); v != "" {
		expires, err := ParseDate(v)
		if err != nil {
			return row, err
		}
		row.DiscountExpiration = &expires
	}
	return row, domain.ValidateUploadRow(row)
}

func wholeNumber(raw string) (int64, error) {
	f, err := cast.ToFloat64E(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a whole number: %q", raw)
	}
	return int64(f), nil
}

// ParseDate accepts free-form dates and raw spreadsheet serial numbers and
// returns them in UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if serial, err := cast.ToFloat64E(raw); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
