package observability

import (
	"github.com/smallbiznis/scanprice/internal/observability/logger"
	"github.com/smallbiznis/scanprice/internal/observability/metrics"
	"github.com/smallbiznis/scanprice/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(LoadConfig),

	fx.Provide(Config.loggerConfig, logger.New),
	fx.Provide(Config.tracingConfig, tracing.NewProvider),
	fx.Provide(
		Config.metricsConfig,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		metrics.NewNotificationMetrics,
	),

	// The tracer provider registers itself globally; nothing else asks for it.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
