package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

const (
	ResultOK     = "ok"
	ResultFailed = "failed"

	ImportAccepted = "accepted"
	ImportRejected = "rejected"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	mutations     metric.Int64Counter
	storeWrites   metric.Int64Counter
	storeReads    metric.Int64Counter
	importRows    metric.Int64Counter
	assistantRuns metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "scanprice"
	}
	meter := provider.Meter(name)

	mutations, err := meter.Int64Counter("scanprice_product_mutations_total")
	if err != nil {
		return nil, err
	}
	storeWrites, err := meter.Int64Counter("scanprice_store_writes_total")
	if err != nil {
		return nil, err
	}
	storeReads, err := meter.Int64Counter("scanprice_store_reads_total")
	if err != nil {
		return nil, err
	}
	importRows, err := meter.Int64Counter("scanprice_import_rows_total")
	if err != nil {
		return nil, err
	}
	assistantRuns, err := meter.Int64Counter("scanprice_assistant_tasks_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		mutations:     mutations,
		storeWrites:   storeWrites,
		storeReads:    storeReads,
		importRows:    importRows,
		assistantRuns: assistantRuns,
	}, nil
}

// RecordMutation counts a mutation engine operation and whether it persisted.
func (m *Metrics) RecordMutation(ctx context.Context, operation string, ok bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.String("result", result(ok)),
	)
	m.mutations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordStoreWrite(ctx context.Context, backend string, ok bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("backend", strings.TrimSpace(backend)),
		attribute.String("result", result(ok)),
	)
	m.storeWrites.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordStoreRead counts loads; failed reads degrade to an empty collection.
func (m *Metrics) RecordStoreRead(ctx context.Context, backend string, ok bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("backend", strings.TrimSpace(backend)),
		attribute.String("result", result(ok)),
	)
	m.storeReads.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordImportRows(ctx context.Context, kind, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("result", strings.TrimSpace(outcome)),
	)
	m.importRows.Add(ctx, int64(n), metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordAssistantTask(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("result", strings.TrimSpace(outcome)),
	)
	m.assistantRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func result(ok bool) string {
	if ok {
		return ResultOK
	}
	return ResultFailed
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"operation":   {},
	"result":      {},
	"backend":     {},
	"kind":        {},
	"status_code": {},
	"route":       {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
