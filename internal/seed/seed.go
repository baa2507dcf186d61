package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smallbiznis/scanprice/internal/config"
	"github.com/smallbiznis/scanprice/internal/importer"
	"github.com/smallbiznis/scanprice/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("seed",
	fx.Invoke(register),
)

// Importer is the slice of importer.Service the seeder needs.
type Importer interface {
	ImportProducts(ctx context.Context, filename string, data []byte) (importer.Summary, error)
}

// EnsureCatalog imports path into an empty collection. A collection that
// already holds products is left alone, so restarts never re-seed.
func EnsureCatalog(ctx context.Context, products domain.Service, imp Importer, path string) (importer.Summary, bool, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return importer.Summary{}, false, nil
	}
	if products == nil || imp == nil {
		return importer.Summary{}, false, errors.New("seed requires a product service and an importer")
	}
	if len(products.List(ctx)) > 0 {
		return importer.Summary{}, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return importer.Summary{}, false, fmt.Errorf("read seed file: %w", err)
	}

	summary, err := imp.ImportProducts(ctx, filepath.Base(path), data)
	if err != nil {
		return summary, false, fmt.Errorf("import seed file %s: %w", path, err)
	}
	return summary, true, nil
}

type params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Products  domain.Service
	Importer  *importer.Service
	Log       *zap.Logger
}

func register(p params) {
	if p.Config.SeedFile == "" {
		return
	}
	log := p.Log.Named("seed")

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			summary, seeded, err := EnsureCatalog(ctx, p.Products, p.Importer, p.Config.SeedFile)
			if err != nil {
				return err
			}
			if !seeded {
				log.Info("catalog already populated, skipping seed", zap.String("file", p.Config.SeedFile))
				return nil
			}
			log.Info("catalog seeded",
				zap.String("file", p.Config.SeedFile),
				zap.Int("accepted", summary.Accepted),
				zap.Int("skipped", summary.Skipped),
			)
			return nil
		},
	})
}
