package catalog

import (
	"context"
	"io"

	"github.com/smallbiznis/scanprice/internal/config"
	"github.com/smallbiznis/scanprice/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Products domain.Service
	Config   config.Config
	Log      *zap.Logger
}

// Service serves read-only catalog artifacts from the current collection.
type Service struct {
	products domain.Service
	baseURL  string
	appName  string
	log      *zap.Logger
}

func NewService(p Params) *Service {
	return &Service{
		products: p.Products,
		baseURL:  p.Config.PublicBaseURL,
		appName:  p.Config.AppName,
		log:      p.Log.Named("catalog"),
	}
}

func (s *Service) URL(id string) string {
	return ProductURL(s.baseURL, id)
}

func (s *Service) Public(ctx context.Context, id string) (PublicProduct, error) {
	return PublicView(s.snapshot(ctx), id, s.baseURL)
}

func (s *Service) QR(ctx context.Context, id string, size int) ([]byte, error) {
	if _, err := s.products.Get(ctx, id); err != nil {
		return nil, err
	}
	return QRCode(s.URL(id), size)
}

func (s *Service) WriteArchive(ctx context.Context, w io.Writer, size int) error {
	products := s.snapshot(ctx)
	s.log.Debug("writing qr archive", zap.Int("products", len(products)))
	return WriteQRArchive(w, s.baseURL, products, size)
}

func (s *Service) Labels(ctx context.Context) ([]byte, error) {
	return LabelSheet(s.appName, s.baseURL, s.snapshot(ctx))
}

func (s *Service) snapshot(ctx context.Context) []domain.Product {
	annotated := s.products.List(ctx)
	out := make([]domain.Product, 0, len(annotated))
	for _, p := range annotated {
		out = append(out, p.Product)
	}
	return out
}
