package metricspush

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/scanprice/internal/config"
	productdomain "github.com/smallbiznis/scanprice/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("metrics.push",
	fx.Provide(NewRegistry),
	fx.Provide(NewPusher),
	fx.Invoke(register),
)

// NewRegistry holds the catalog gauges. They are also exposed on /metrics
// through the default registerer.
func NewRegistry(cfg config.Config, store productdomain.Store) (*prometheus.Registry, error) {
	collector := NewCatalogCollector(store, prometheus.Labels{
		"service": cfg.AppName,
		"env":     cfg.Environment,
	})

	registry := prometheus.NewRegistry()
	if err := registry.Register(collector); err != nil {
		return nil, err
	}
	if err := prometheus.DefaultRegisterer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
	}
	return registry, nil
}

func register(lc fx.Lifecycle, cfg config.Config, registry *prometheus.Registry, pusher Pusher, log *zap.Logger) {
	if pusher == nil {
		return
	}
	log = log.Named("metrics.push")

	interval := cfg.MetricsPush.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("starting metrics push", zap.String("exporter", cfg.MetricsPush.Exporter), zap.Duration("interval", interval))
			go func() {
				defer close(done)
				Run(ctx, interval, registry, pusher, log)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

// Run pushes once immediately, then every interval until ctx ends. Push
// failures are logged and retried on the next tick.
func Run(ctx context.Context, interval time.Duration, gatherer prometheus.Gatherer, pusher Pusher, log *zap.Logger) {
	pushOnce := func() {
		pushCtx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
		defer cancel()
		if err := pusher.Push(pushCtx, gatherer); err != nil && ctx.Err() == nil {
			log.Warn("metrics push failed", zap.Error(err))
		}
	}

	pushOnce()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			pushOnce()
		case <-ctx.Done():
			return
		}
	}
}
