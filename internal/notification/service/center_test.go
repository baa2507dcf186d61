package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	EventBus "github.com/asaskevich/EventBus"
	"github.com/smallbiznis/scanprice/internal/blob/blobtest"
	"github.com/smallbiznis/scanprice/internal/clock"
	"github.com/smallbiznis/scanprice/internal/config"
	"github.com/smallbiznis/scanprice/internal/notification/domain"
	"github.com/smallbiznis/scanprice/internal/notification/liveevents"
	"github.com/smallbiznis/scanprice/internal/observability/metrics"
	productdomain "github.com/smallbiznis/scanprice/internal/product/domain"
	"github.com/smallbiznis/scanprice/internal/product/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	center *Center
	store  *store.Store
	clock  *clock.FakeClock
	hub    *liveevents.Hub
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	bus := EventBus.New()
	cfg := config.Config{
		Blob:   config.BlobConfig{Key: "scanprice_products"},
		Notify: config.NotifyConfig{Interval: time.Minute, DisplayTimeout: 5 * time.Second},
	}
	st := store.New(store.Params{KV: blobtest.NewMemory(), Config: cfg, Log: zap.NewNop(), Bus: bus})
	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	hub := liveevents.NewHub()

	center := New(Params{
		Store:  st,
		Bus:    bus,
		Rules:  config.NewStaticRules(config.DefaultRulesConfig()),
		Config: cfg,
		Clock:  fc,
		Log:    zap.NewNop(),
		Hub:    hub,
	})
	require.NoError(t, center.Start(context.Background()))
	t.Cleanup(func() { _ = center.Stop(context.Background()) })

	return fixture{center: center, store: st, clock: fc, hub: hub}
}

func ids(items []domain.Notification) []string {
	out := make([]string, 0, len(items))
	for _, n := range items {
		out = append(out, n.ID)
	}
	return out
}

func TestCenter_RecomputesOnStoreWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.store.Replace(ctx, []productdomain.Product{{ID: "p1", Name: "Apple", Stock: 5}}))
	assert.Equal(t, []string{"low-stock-p1"}, ids(f.center.List(ctx)))

	require.True(t, f.store.Replace(ctx, []productdomain.Product{{ID: "p1", Name: "Apple", Stock: 20}}))
	assert.Empty(t, f.center.List(ctx))
}

func TestCenter_ExistingNotificationKeepsTimestamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.clock.Now()

	require.True(t, f.store.Replace(ctx, []productdomain.Product{{ID: "p1", Name: "Apple", Stock: 5}}))
	f.clock.Advance(2 * time.Second)
	require.True(t, f.store.Replace(ctx, []productdomain.Product{{ID: "p1", Name: "Apple", Stock: 4}}))
	f.center.Recompute(ctx, "timer")

	items := f.center.List(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, created, items[0].Timestamp)
}

func TestCenter_Dismiss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.True(t, f.store.Replace(ctx, []productdomain.Product{{ID: "p1", Name: "Apple", Stock: 5}}))

	sub, err := f.hub.Subscribe()
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, f.center.Dismiss(ctx, "low-stock-p1"))
	assert.Empty(t, f.center.List(ctx))
	assert.ErrorIs(t, f.center.Dismiss(ctx, "low-stock-p1"), domain.ErrNotFound)

	ev := <-sub.Events()
	assert.Equal(t, liveevents.KindDismissed, ev.Kind)

	f.clock.Advance(time.Minute)
	f.center.Recompute(ctx, "timer")
	items := f.center.List(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, f.clock.Now(), items[0].Timestamp)
}

func TestCenter_SweepDropsAfterDisplayTimeout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.True(t, f.store.Replace(ctx, []productdomain.Product{{ID: "p1", Name: "Apple", Stock: 5}}))

	f.clock.Advance(4 * time.Second)
	f.center.Sweep()
	assert.Len(t, f.center.List(ctx), 1)

	f.clock.Advance(time.Second)
	f.center.Sweep()
	assert.Empty(t, f.center.List(ctx))
}

func TestCenter_StopMakesTimersNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.center.Stop(ctx))

	require.True(t, f.store.Replace(ctx, []productdomain.Product{{ID: "p1", Name: "Apple", Stock: 5}}))
	f.center.Recompute(ctx, "timer")
	f.center.Sweep()

	assert.Empty(t, f.center.List(ctx))
}

func TestCenter_UsesCurrentRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.center.rules = config.NewStaticRules(config.RulesConfig{LowStockThreshold: 2, PromoExpiringDays: 7})

	require.True(t, f.store.Replace(ctx, []productdomain.Product{{ID: "p1", Name: "Apple", Stock: 5}}))

	assert.Empty(t, f.center.List(ctx))
}

// gatedStore holds the first Snapshot call after arm until release is closed,
// returning the collection it read before blocking.
type gatedStore struct {
	*store.Store
	armed   atomic.Bool
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Snapshot() []productdomain.Product {
	products := g.Store.Snapshot()
	if !g.armed.Load() {
		return products
	}
	gate := false
	g.once.Do(func() { gate = true })
	if gate {
		close(g.entered)
		<-g.release
	}
	return products
}

func TestCenter_TimerDoesNotResurrectClearedNotification(t *testing.T) {
	bus := EventBus.New()
	cfg := config.Config{
		Blob:   config.BlobConfig{Key: "scanprice_products"},
		Notify: config.NotifyConfig{Interval: time.Hour},
	}
	gated := &gatedStore{
		Store:   store.New(store.Params{KV: blobtest.NewMemory(), Config: cfg, Log: zap.NewNop(), Bus: bus}),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	center := New(Params{
		Store:  gated,
		Bus:    bus,
		Rules:  config.NewStaticRules(config.DefaultRulesConfig()),
		Config: cfg,
		Clock:  clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		Log:    zap.NewNop(),
	})
	require.NoError(t, center.Start(context.Background()))
	t.Cleanup(func() { _ = center.Stop(context.Background()) })
	ctx := context.Background()

	require.True(t, gated.Replace(ctx, []productdomain.Product{{ID: "p1", Name: "Apple", Stock: 5}}))
	require.Equal(t, []string{"low-stock-p1"}, ids(center.List(ctx)))

	gated.armed.Store(true)
	timerDone := make(chan struct{})
	go func() {
		defer close(timerDone)
		center.Recompute(ctx, metrics.TriggerTimer)
	}()
	<-gated.entered

	written := make(chan bool, 1)
	go func() {
		written <- gated.Replace(ctx, []productdomain.Product{{ID: "p1", Name: "Apple", Stock: 20}})
	}()
	time.Sleep(20 * time.Millisecond)
	close(gated.release)

	select {
	case <-timerDone:
	case <-time.After(time.Second):
		t.Fatal("timer recompute did not finish")
	}
	select {
	case ok := <-written:
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("store write did not finish")
	}

	assert.Empty(t, center.List(ctx))
}
