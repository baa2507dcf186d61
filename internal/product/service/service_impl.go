package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scanprice/internal/clock"
	"github.com/smallbiznis/scanprice/internal/observability/logger"
	"github.com/smallbiznis/scanprice/internal/observability/metrics"
	"github.com/smallbiznis/scanprice/internal/product/domain"
	"github.com/smallbiznis/scanprice/internal/product/mutation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store   domain.Store
	Log     *zap.Logger
	Clock   clock.Clock
	GenID   *snowflake.Node
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	store   domain.Store
	log     *zap.Logger
	clock   clock.Clock
	genID   *snowflake.Node
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		store:   p.Store,
		log:     p.Log.Named("product.service"),
		clock:   p.Clock,
		genID:   p.GenID,
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context) []domain.WithStatus {
	return domain.Annotate(s.store.Snapshot())
}

func (s *Service) Get(ctx context.Context, id string) (domain.WithStatus, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.WithStatus{}, domain.ErrInvalidID
	}
	for _, p := range s.store.Snapshot() {
		if p.ID == id {
			return domain.WithStatus{Product: p, Status: domain.DeriveStatus(p)}, nil
		}
	}
	return domain.WithStatus{}, domain.ErrNotFound
}

func (s *Service) Summary(ctx context.Context) domain.Summary {
	products := s.store.Snapshot()
	summary := domain.Summary{
		ActiveProducts: len(products),
		ByStatus:       make(map[domain.Status]int, len(domain.Statuses)),
	}
	for _, status := range domain.Statuses {
		summary.ByStatus[status] = 0
	}
	for _, p := range products {
		summary.TotalScans += p.Scans
		summary.TotalSales += p.Sales
		summary.ByStatus[domain.DeriveStatus(p)]++
	}
	return summary
}

func (s *Service) Refresh(ctx context.Context) []domain.WithStatus {
	return domain.Annotate(s.store.Refresh(ctx))
}

func (s *Service) AddProduct(ctx context.Context, draft domain.Draft) (domain.Product, bool) {
	id := "p" + s.genID.Generate().String()
	var created domain.Product
	ok := s.store.Update(ctx, func(current []domain.Product) ([]domain.Product, bool) {
		var next []domain.Product
		next, created = mutation.AddProduct(current, draft, id, s.clock.Now())
		return next, true
	})
	s.record(ctx, "add_product", ok, zap.String("product_id", id))
	if !ok {
		return domain.Product{}, false
	}
	return created, true
}

func (s *Service) EditProduct(ctx context.Context, product domain.Product) bool {
	ok := s.store.Update(ctx, func(current []domain.Product) ([]domain.Product, bool) {
		return mutation.EditProduct(current, product)
	})
	return s.record(ctx, "edit_product", ok, zap.String("product_id", product.ID))
}

func (s *Service) DeleteProduct(ctx context.Context, id string) bool {
	ok := s.store.Update(ctx, func(current []domain.Product) ([]domain.Product, bool) {
		return mutation.DeleteProduct(current, id)
	})
	return s.record(ctx, "delete_product", ok, zap.String("product_id", id))
}

func (s *Service) IncrementScan(ctx context.Context, id string) bool {
	ok := s.store.Update(ctx, func(current []domain.Product) ([]domain.Product, bool) {
		return mutation.IncrementScan(current, id, s.clock.Now())
	})
	return s.record(ctx, "increment_scan", ok, zap.String("product_id", id))
}

func (s *Service) BulkIncrementScan(ctx context.Context, ids []string) bool {
	ok := s.store.Update(ctx, func(current []domain.Product) ([]domain.Product, bool) {
		return mutation.BulkIncrementScan(current, ids, s.clock.Now())
	})
	return s.record(ctx, "bulk_increment_scan", ok, zap.Int("ids", len(ids)))
}

func (s *Service) DecrementStock(ctx context.Context, id string, quantity int64) bool {
	ok := s.store.Update(ctx, func(current []domain.Product) ([]domain.Product, bool) {
		return mutation.DecrementStock(current, id, quantity)
	})
	return s.record(ctx, "decrement_stock", ok, zap.String("product_id", id), zap.Int64("quantity", quantity))
}

func (s *Service) ProcessSales(ctx context.Context, entries []domain.SaleEntry) bool {
	ok := s.store.Update(ctx, func(current []domain.Product) ([]domain.Product, bool) {
		return mutation.ProcessSales(current, entries)
	})
	return s.record(ctx, "process_sales", ok, zap.Int("entries", len(entries)))
}

func (s *Service) AddProductsBatch(ctx context.Context, rows []domain.UploadRow) bool {
	ok := s.store.Update(ctx, func(current []domain.Product) ([]domain.Product, bool) {
		return mutation.AddProductsBatch(current, rows)
	})
	return s.record(ctx, "add_products_batch", ok, zap.Int("rows", len(rows)))
}

func (s *Service) record(ctx context.Context, operation string, ok bool, fields ...zap.Field) bool {
	s.metrics.RecordMutation(ctx, operation, ok)
	if !ok {
		fields = append(fields, zap.String("operation", operation))
		logger.WithContext(ctx, s.log).Warn("mutation not persisted", fields...)
	}
	return ok
}
