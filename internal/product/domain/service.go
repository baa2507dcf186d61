package domain

import (
	"context"
	"errors"
)

// Store owns the persisted collection and publishes whole snapshots.
type Store interface {
	// Load reads the persisted collection; read failures yield an empty one.
	Load(ctx context.Context) []Product
	// Replace persists next and publishes it. On false nothing changed.
	Replace(ctx context.Context, next []Product) bool
	// Refresh re-reads the medium and overwrites the in-memory snapshot.
	Refresh(ctx context.Context) []Product
	// Snapshot returns the last published collection without I/O.
	Snapshot() []Product
	// Update runs read-transform-write-publish as one step. fn reports
	// whether it changed anything; unchanged results skip the write.
	Update(ctx context.Context, fn func(current []Product) ([]Product, bool)) bool
}

type Service interface {
	List(ctx context.Context) []WithStatus
	Get(ctx context.Context, id string) (WithStatus, error)
	Summary(ctx context.Context) Summary
	Refresh(ctx context.Context) []WithStatus

	AddProduct(ctx context.Context, draft Draft) (Product, bool)
	EditProduct(ctx context.Context, product Product) bool
	DeleteProduct(ctx context.Context, id string) bool
	IncrementScan(ctx context.Context, id string) bool
	BulkIncrementScan(ctx context.Context, ids []string) bool
	DecrementStock(ctx context.Context, id string, quantity int64) bool
	ProcessSales(ctx context.Context, entries []SaleEntry) bool
	AddProductsBatch(ctx context.Context, rows []UploadRow) bool
}

// TopicReplaced is published on the event bus with the new []Product
// after every successful write or refresh.
const TopicReplaced = "products:replaced"

var (
	ErrNotFound        = errors.New("not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidStock    = errors.New("invalid_stock")
	ErrInvalidSales    = errors.New("invalid_sales")
	ErrInvalidDiscount = errors.New("invalid_discount")
	ErrStoreWrite      = errors.New("store_write_failed")
)
