package backend

import (
	"strings"

	"github.com/smallbiznis/scanprice/internal/blob"
	"github.com/smallbiznis/scanprice/internal/blob/boltkv"
	"github.com/smallbiznis/scanprice/internal/blob/rediskv"
	"github.com/smallbiznis/scanprice/internal/blob/s3kv"
	"github.com/smallbiznis/scanprice/internal/blob/sqlkv"
	"github.com/smallbiznis/scanprice/internal/config"
	"github.com/smallbiznis/scanprice/internal/migration"
	"github.com/smallbiznis/scanprice/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const rawTag = `name:"blob.raw"`

// Module wires the configured medium plus the compression and capacity
// decorators. Only the selected backend's dependencies are constructed.
func Module(name string) fx.Option {
	return fx.Module("blob",
		medium(name),
		fx.Provide(fx.Annotate(decorate, fx.ParamTags(rawTag))),
	)
}

func medium(name string) fx.Option {
	switch name {
	case config.BlobBackendRedis:
		return fx.Options(
			fx.Provide(rediskv.NewClient),
			fx.Provide(fx.Annotate(rediskv.New, fx.ResultTags(rawTag))),
		)
	case config.BlobBackendBolt:
		return fx.Options(
			fx.Provide(boltkv.Provide),
			fx.Provide(fx.Annotate(boltkv.New, fx.ResultTags(rawTag))),
		)
	case config.BlobBackendS3:
		return fx.Provide(fx.Annotate(s3kv.Provide, fx.ResultTags(rawTag)))
	default:
		return fx.Options(
			db.Module,
			migration.Module,
			fx.Provide(fx.Annotate(sqlkv.New, fx.ResultTags(rawTag))),
		)
	}
}

func decorate(raw blob.KV, cfg config.Config, log *zap.Logger) blob.KV {
	kv := raw
	if strings.EqualFold(cfg.Blob.Compression, "snappy") {
		kv = blob.Snappy(kv)
	}
	log.Info("blob store ready",
		zap.String("backend", cfg.Blob.Backend),
		zap.String("key", cfg.Blob.Key),
		zap.String("compression", cfg.Blob.Compression),
		zap.Int64("max_bytes", cfg.Blob.MaxBytes),
	)
	return blob.Limited(kv, cfg.Blob.MaxBytes)
}
