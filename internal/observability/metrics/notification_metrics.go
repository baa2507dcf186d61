package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	TriggerProductsChanged = "products_changed"
	TriggerTimer           = "timer"
	TriggerRefresh         = "refresh"
)

// NotificationMetrics tracks the notification reconcile loop.
type NotificationMetrics struct {
	runs      *prometheus.CounterVec
	duration  prometheus.Histogram
	active    *prometheus.GaugeVec
	created   *prometheus.CounterVec
	retracted *prometheus.CounterVec
	refreshes *prometheus.CounterVec
}

// NewNotificationMetrics registers collectors on the default registry.
func NewNotificationMetrics(cfg Config) *NotificationMetrics {
	return newNotificationMetrics(prometheus.DefaultRegisterer, cfg)
}

func newNotificationMetrics(registerer prometheus.Registerer, cfg Config) *NotificationMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "scanprice"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "scanprice_notification_reconcile_total",
		Help:        "Notification reconcile passes by trigger.",
		ConstLabels: constLabels,
	}, []string{"trigger"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "scanprice_notification_reconcile_duration_seconds",
		Help:        "Notification reconcile latency.",
		Buckets:     []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		ConstLabels: constLabels,
	})
	active := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "scanprice_notifications_active",
		Help:        "Active notifications by type.",
		ConstLabels: constLabels,
	}, []string{"type"})
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "scanprice_notifications_created_total",
		Help:        "Notifications raised by type.",
		ConstLabels: constLabels,
	}, []string{"type"})
	retracted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "scanprice_notifications_retracted_total",
		Help:        "Notifications removed by type and reason.",
		ConstLabels: constLabels,
	}, []string{"type", "reason"})
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "scanprice_store_refresh_total",
		Help:        "Periodic store refreshes by result.",
		ConstLabels: constLabels,
	}, []string{"result"})

	registerer.MustRegister(runs, duration, active, created, retracted, refreshes)

	return &NotificationMetrics{
		runs:      runs,
		duration:  duration,
		active:    active,
		created:   created,
		retracted: retracted,
		refreshes: refreshes,
	}
}

func (m *NotificationMetrics) ObserveReconcile(trigger string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(trigger).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *NotificationMetrics) SetActive(kind string, n int) {
	if m == nil {
		return
	}
	m.active.WithLabelValues(kind).Set(float64(n))
}

func (m *NotificationMetrics) IncCreated(kind string) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(kind).Inc()
}

func (m *NotificationMetrics) IncRetracted(kind, reason string) {
	if m == nil {
		return
	}
	m.retracted.WithLabelValues(kind, reason).Inc()
}

func (m *NotificationMetrics) IncRefresh(ok bool) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result(ok)).Inc()
}
