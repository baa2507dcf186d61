package importer

import (
	"context"

	"github.com/smallbiznis/scanprice/internal/observability/logger"
	"github.com/smallbiznis/scanprice/internal/observability/metrics"
	"github.com/smallbiznis/scanprice/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	kindProducts = "products"
	kindSales    = "sales"
)

type Params struct {
	fx.In

	Products domain.Service
	Log      *zap.Logger
	Metrics  *metrics.Metrics `optional:"true"`
}

// Service parses an upload and hands the valid rows to the product service.
type Service struct {
	products domain.Service
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		products: p.Products,
		log:      p.Log.Named("importer"),
		metrics:  p.Metrics,
	}
}

type Summary struct {
	Accepted int `json:"accepted"`
	Skipped  int `json:"skipped"`
}

func (s *Service) ImportProducts(ctx context.Context, filename string, data []byte) (Summary, error) {
	parsed, err := ParseProducts(filename, data)
	s.recordRows(ctx, kindProducts, len(parsed.Rows), parsed.Skipped)
	if err != nil {
		logger.WithContext(ctx, s.log).Info("product import rejected", zap.String("file", filename), zap.Error(err))
		return Summary{Skipped: parsed.Skipped}, err
	}
	if !s.products.AddProductsBatch(ctx, parsed.Rows) {
		return Summary{}, domain.ErrStoreWrite
	}
	logger.WithContext(ctx, s.log).Info("products imported",
		zap.String("file", filename),
		zap.Int("accepted", len(parsed.Rows)),
		zap.Int("skipped", parsed.Skipped),
	)
	return Summary{Accepted: len(parsed.Rows), Skipped: parsed.Skipped}, nil
}

func (s *Service) ImportSales(ctx context.Context, filename string, data []byte) (Summary, error) {
	parsed, err := ParseSales(filename, data)
	s.recordRows(ctx, kindSales, len(parsed.Entries), parsed.Skipped)
	if err != nil {
		logger.WithContext(ctx, s.log).Info("sales import rejected", zap.String("file", filename), zap.Error(err))
		return Summary{Skipped: parsed.Skipped}, err
	}
	if !s.products.ProcessSales(ctx, parsed.Entries) {
		return Summary{}, domain.ErrStoreWrite
	}
	logger.WithContext(ctx, s.log).Info("sales imported",
		zap.String("file", filename),
		zap.Int("accepted", len(parsed.Entries)),
		zap.Int("skipped", parsed.Skipped),
	)
	return Summary{Accepted: len(parsed.Entries), Skipped: parsed.Skipped}, nil
}

func (s *Service) recordRows(ctx context.Context, kind string, accepted, skipped int) {
	s.metrics.RecordImportRows(ctx, kind, metrics.ImportAccepted, accepted)
	s.metrics.RecordImportRows(ctx, kind, metrics.ImportRejected, skipped)
}
