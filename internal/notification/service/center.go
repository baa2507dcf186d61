package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	EventBus "github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/scanprice/internal/clock"
	"github.com/smallbiznis/scanprice/internal/config"
	"github.com/smallbiznis/scanprice/internal/notification/domain"
	"github.com/smallbiznis/scanprice/internal/notification/liveevents"
	"github.com/smallbiznis/scanprice/internal/observability/metrics"
	productdomain "github.com/smallbiznis/scanprice/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	reasonCleared   = "cleared"
	reasonDismissed = "dismissed"
	reasonExpired   = "expired"
)

type Params struct {
	fx.In

	Store   productdomain.Store
	Bus     EventBus.Bus
	Rules   *config.RulesHolder
	Config  config.Config
	Clock   clock.Clock
	Log     *zap.Logger
	Hub     *liveevents.Hub              `optional:"true"`
	Metrics *metrics.NotificationMetrics `optional:"true"`
}

// Center owns the live notification set. It recomputes on every published
// collection and on a timer; once stopped every entry point is a no-op.
type Center struct {
	store   productdomain.Store
	bus     EventBus.Bus
	rules   *config.RulesHolder
	cfg     config.NotifyConfig
	clock   clock.Clock
	log     *zap.Logger
	hub     *liveevents.Hub
	metrics *metrics.NotificationMetrics

	mu      sync.Mutex
	items   []domain.Notification
	stopped bool
	sched   *cron.Cron
	handler func([]productdomain.Product)
}

func New(p Params) *Center {
	c := &Center{
		store:   p.Store,
		bus:     p.Bus,
		rules:   p.Rules,
		cfg:     p.Config.Notify,
		clock:   p.Clock,
		log:     p.Log.Named("notification.center"),
		hub:     p.Hub,
		metrics: p.Metrics,
	}
	c.handler = c.onReplaced
	return c
}

// Start subscribes to collection changes, runs a first reconciliation and
// schedules the timers.
func (c *Center) Start(ctx context.Context) error {
	if err := c.bus.Subscribe(productdomain.TopicReplaced, c.handler); err != nil {
		return err
	}

	sched := cron.New()
	if _, err := sched.AddFunc(every(c.cfg.Interval), func() {
		c.Recompute(context.Background(), metrics.TriggerTimer)
	}); err != nil {
		return err
	}
	if c.cfg.DisplayTimeout > 0 {
		if _, err := sched.AddFunc(every(time.Second), c.Sweep); err != nil {
			return err
		}
	}
	if c.cfg.RefreshInterval > 0 {
		if _, err := sched.AddFunc(every(c.cfg.RefreshInterval), func() {
			c.refreshStore(context.Background())
		}); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.sched = sched
	c.mu.Unlock()

	c.Recompute(ctx, metrics.TriggerProductsChanged)
	sched.Start()

	c.log.Info("notification center started",
		zap.Duration("interval", c.cfg.Interval),
		zap.Duration("display_timeout", c.cfg.DisplayTimeout),
		zap.Duration("refresh_interval", c.cfg.RefreshInterval),
	)
	return nil
}

func (c *Center) Stop(ctx context.Context) error {
	c.mu.Lock()
	c.stopped = true
	sched := c.sched
	c.mu.Unlock()

	if err := c.bus.Unsubscribe(productdomain.TopicReplaced, c.handler); err != nil {
		c.log.Debug("unsubscribe", zap.Error(err))
	}
	if sched == nil {
		return nil
	}
	select {
	case <-sched.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (c *Center) List(ctx context.Context) []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Notification(nil), c.items...)
}

// Recompute reconciles against the latest published collection.
func (c *Center) Recompute(ctx context.Context, trigger string) {
	c.reconcile(trigger)
}

func (c *Center) Dismiss(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return domain.ErrNotFound
	}
	var removed *domain.Notification
	next := make([]domain.Notification, 0, len(c.items))
	for _, n := range c.items {
		if n.ID == id && removed == nil {
			n := n
			removed = &n
			continue
		}
		next = append(next, n)
	}
	c.items = next
	c.mu.Unlock()

	if removed == nil {
		return domain.ErrNotFound
	}
	c.metrics.IncRetracted(string(removed.Type), reasonDismissed)
	c.hub.Publish(liveevents.Event{Kind: liveevents.KindDismissed, Notification: *removed})
	c.updateGauges()
	return nil
}

// Sweep drops notifications shown for longer than the display timeout.
func (c *Center) Sweep() {
	if c.cfg.DisplayTimeout <= 0 {
		return
	}
	now := c.clock.Now()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	var expired []domain.Notification
	next := make([]domain.Notification, 0, len(c.items))
	for _, n := range c.items {
		if now.Sub(n.Timestamp) >= c.cfg.DisplayTimeout {
			expired = append(expired, n)
			continue
		}
		next = append(next, n)
	}
	c.items = next
	c.mu.Unlock()

	for _, n := range expired {
		c.metrics.IncRetracted(string(n.Type), reasonExpired)
		c.hub.Publish(liveevents.Event{Kind: liveevents.KindExpired, Notification: n})
	}
	if len(expired) > 0 {
		c.updateGauges()
	}
}

// onReplaced ignores the published payload: the store updates its snapshot
// before publishing, so reconcile reads the same or a newer collection.
func (c *Center) onReplaced([]productdomain.Product) {
	c.reconcile(metrics.TriggerProductsChanged)
}

// reconcile reads the snapshot under c.mu so a slow caller can never apply
// a collection older than the one the previous reconcile saw.
func (c *Center) reconcile(trigger string) {
	start := time.Now()
	rules := c.currentRules()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	products := c.store.Snapshot()
	next, changes := domain.Derive(products, c.items, c.clock.Now(), rules)
	c.items = next
	c.mu.Unlock()

	c.metrics.ObserveReconcile(trigger, time.Since(start))
	if changes.Empty() {
		return
	}
	for _, n := range changes.Removed {
		c.metrics.IncRetracted(string(n.Type), reasonCleared)
		c.hub.Publish(liveevents.Event{Kind: liveevents.KindRemoved, Notification: n})
	}
	for _, n := range changes.Created {
		c.metrics.IncCreated(string(n.Type))
		c.hub.Publish(liveevents.Event{Kind: liveevents.KindCreated, Notification: n})
	}
	c.updateGauges()
	c.log.Debug("notifications reconciled",
		zap.String("trigger", trigger),
		zap.Int("created", len(changes.Created)),
		zap.Int("removed", len(changes.Removed)),
	)
}

func (c *Center) refreshStore(ctx context.Context) {
	c.mu.Lock()
	stopped := c.stopped
	c.mu.Unlock()
	if stopped {
		return
	}
	products := c.store.Refresh(ctx)
	c.metrics.IncRefresh(true)
	c.log.Debug("store refreshed", zap.Int("products", len(products)))
}

func (c *Center) updateGauges() {
	if c.metrics == nil {
		return
	}
	counts := map[domain.Type]int{domain.TypeLowStock: 0, domain.TypeExpiringPromo: 0}
	for _, n := range c.List(context.Background()) {
		counts[n.Type]++
	}
	for kind, n := range counts {
		c.metrics.SetActive(string(kind), n)
	}
}

func (c *Center) currentRules() domain.Rules {
	if c.rules == nil {
		return domain.DefaultRules()
	}
	r := c.rules.Get()
	return domain.Rules{
		LowStockThreshold: int64(r.LowStockThreshold),
		PromoExpiringDays: r.PromoExpiringDays,
	}
}

func every(d time.Duration) string {
	if d < time.Second {
		d = time.Second
	}
	return fmt.Sprintf("@every %s", d)
}
