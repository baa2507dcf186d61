package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	EventBus "github.com/asaskevich/EventBus"
	"github.com/smallbiznis/scanprice/internal/blob"
	"github.com/smallbiznis/scanprice/internal/config"
	"github.com/smallbiznis/scanprice/internal/observability/metrics"
	"github.com/smallbiznis/scanprice/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	KV      blob.KV
	Config  config.Config
	Log     *zap.Logger
	Bus     EventBus.Bus
	Metrics *metrics.Metrics `optional:"true"`
}

// Store keeps the last persisted collection in memory. Writers are
// serialized; readers get whole snapshots without locking.
type Store struct {
	kv      blob.KV
	key     string
	backend string
	log     *zap.Logger
	bus     EventBus.Bus
	metrics *metrics.Metrics

	mu      sync.Mutex
	current atomic.Pointer[[]domain.Product]
}

func New(p Params) *Store {
	s := &Store{
		kv:      p.KV,
		key:     p.Config.Blob.Key,
		backend: p.Config.Blob.Backend,
		log:     p.Log.Named("product.store"),
		bus:     p.Bus,
		metrics: p.Metrics,
	}
	empty := []domain.Product{}
	s.current.Store(&empty)
	return s
}

// Provide exposes the store through the domain interface and loads the
// persisted collection on start.
func Provide(lc fx.Lifecycle, p Params) domain.Store {
	s := New(p)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			products := s.Load(ctx)
			s.log.Info("product collection loaded", zap.Int("products", len(products)))
			return nil
		},
	})
	return s
}

func (s *Store) Load(ctx context.Context) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.read(ctx)
	switch {
	case errors.Is(err, blob.ErrNotFound):
		s.log.Info("no persisted collection, starting empty", zap.String("key", s.key))
		products = []domain.Product{}
		if err := s.write(ctx, products); err != nil {
			s.log.Warn("failed to persist empty collection", zap.Error(err))
		}
	case err != nil:
		s.log.Error("unreadable collection, falling back to empty", zap.String("key", s.key), zap.Error(err))
		products = []domain.Product{}
	}

	s.current.Store(&products)
	return domain.Clone(products)
}

func (s *Store) Replace(ctx context.Context, next []domain.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(ctx, next)
}

// Refresh overwrites the snapshot with whatever the medium holds. Read
// failures leave an empty collection, as Load does.
func (s *Store) Refresh(ctx context.Context) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.read(ctx)
	if err != nil {
		if !errors.Is(err, blob.ErrNotFound) {
			s.log.Warn("refresh read failed", zap.Error(err))
		}
		products = []domain.Product{}
	}
	s.publishLocked(products)
	return domain.Clone(products)
}

func (s *Store) Snapshot() []domain.Product {
	return domain.Clone(*s.current.Load())
}

func (s *Store) Update(ctx context.Context, fn func(current []domain.Product) ([]domain.Product, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := fn(domain.Clone(*s.current.Load()))
	if !changed {
		return true
	}
	return s.replaceLocked(ctx, next)
}

func (s *Store) replaceLocked(ctx context.Context, next []domain.Product) bool {
	next = domain.Clone(next)
	if err := s.write(ctx, next); err != nil {
		s.log.Warn("collection write rejected",
			zap.String("key", s.key),
			zap.Int("products", len(next)),
			zap.Error(err),
		)
		return false
	}
	s.publishLocked(next)
	return true
}

func (s *Store) publishLocked(products []domain.Product) {
	s.current.Store(&products)
	if s.bus != nil {
		s.bus.Publish(domain.TopicReplaced, domain.Clone(products))
	}
}

func (s *Store) read(ctx context.Context) ([]domain.Product, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.metrics.RecordStoreRead(ctx, s.backend, errors.Is(err, blob.ErrNotFound))
		return nil, err
	}
	products, err := Decode(raw)
	s.metrics.RecordStoreRead(ctx, s.backend, err == nil)
	return products, err
}

func (s *Store) write(ctx context.Context, products []domain.Product) error {
	raw, err := Encode(products)
	if err == nil {
		err = s.kv.Put(ctx, s.key, raw)
	}
	s.metrics.RecordStoreWrite(ctx, s.backend, err == nil)
	return err
}

// Encode serializes the collection as a JSON array, never null.
func Encode(products []domain.Product) ([]byte, error) {
	if products == nil {
		products = []domain.Product{}
	}
	return json.Marshal(products)
}

func Decode(raw []byte) ([]domain.Product, error) {
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", blob.ErrCorrupt, err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}
