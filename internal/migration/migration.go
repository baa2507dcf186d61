package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/smallbiznis/scanprice/internal/blob/sqlkv"
	"github.com/smallbiznis/scanprice/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var kvSchema embed.FS

var Module = fx.Module("migrations",
	fx.Invoke(Apply),
)

// Apply makes sure the kv_blobs table exists before the blob backend is
// used. Postgres is versioned through golang-migrate; sqlite and mysql are
// created from the sqlkv model.
func Apply(conn *gorm.DB, cfg db.Config, log *zap.Logger) error {
	if cfg.Type != db.TypePostgres {
		if err := conn.AutoMigrate(&sqlkv.Blob{}); err != nil {
			return fmt.Errorf("create kv_blobs: %w", err)
		}
		log.Info("kv_blobs table ready", zap.String("type", cfg.Type))
		return nil
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	version, err := upPostgres(sqlDB)
	if err != nil {
		return err
	}
	log.Info("kv_blobs schema migrated", zap.String("type", cfg.Type), zap.Uint("version", version))
	return nil
}

// upPostgres applies pending kv schema versions and reports the resulting
// one. The migrator is not closed: that would close the shared pool.
func upPostgres(conn *sql.DB) (uint, error) {
	if conn == nil {
		return 0, errors.New("migration database handle is required")
	}

	source, err := iofs.New(kvSchema, "migrations")
	if err != nil {
		return 0, fmt.Errorf("load kv schema: %w", err)
	}
	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		return 0, fmt.Errorf("postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return 0, fmt.Errorf("kv schema migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrate kv schema: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read kv schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("kv schema version %d is dirty", version)
	}
	return version, nil
}
