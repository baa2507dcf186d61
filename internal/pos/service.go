package pos

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/scanprice/internal/cache"
	"github.com/smallbiznis/scanprice/internal/clock"
	"github.com/smallbiznis/scanprice/internal/observability/logger"
	"github.com/smallbiznis/scanprice/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const DefaultCartTTL = 2 * time.Hour

var (
	ErrCartNotFound    = errors.New("cart_not_found")
	ErrProductNotFound = errors.New("product_not_found")
	ErrEmptyCart       = errors.New("empty_cart")
	ErrInvalidQuantity = errors.New("invalid_quantity")
)

type Params struct {
	fx.In

	Products domain.Service
	Clock    clock.Clock
	Log      *zap.Logger
}

type Service struct {
	products domain.Service
	log      *zap.Logger
	carts    cache.Cache[string, Cart]
	ttl      time.Duration

	mu sync.Mutex
}

func NewService(p Params) *Service {
	return &Service{
		products: p.Products,
		log:      p.Log.Named("pos"),
		carts:    cache.NewTTLCacheWithClock[string, Cart](p.Clock.Now),
		ttl:      DefaultCartTTL,
	}
}

func (s *Service) Create(ctx context.Context) View {
	if n := s.carts.Purge(); n > 0 {
		s.log.Debug("expired carts purged", zap.Int("carts", n))
	}
	cart := Cart{ID: ulid.Make().String(), Items: []Item{}}
	s.carts.Set(cart.ID, cart, s.ttl)
	return s.view(ctx, cart)
}

func (s *Service) Get(ctx context.Context, id string) (View, error) {
	cart, ok := s.carts.Get(strings.TrimSpace(id))
	if !ok {
		return View{}, ErrCartNotFound
	}
	return s.view(ctx, cart), nil
}

func (s *Service) Add(ctx context.Context, id, productID string, quantity int64) (View, error) {
	if quantity <= 0 {
		return View{}, ErrInvalidQuantity
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return View{}, ErrProductNotFound
		}
		return View{}, err
	}
	return s.update(ctx, id, func(c Cart) Cart { return c.Add(productID, quantity) })
}

func (s *Service) Remove(ctx context.Context, id, productID string) (View, error) {
	return s.update(ctx, id, func(c Cart) Cart { return c.Remove(productID) })
}

// Checkout records the cart as sales and clears it. A failed write keeps
// the cart intact.
func (s *Service) Checkout(ctx context.Context, id string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts.Get(strings.TrimSpace(id))
	if !ok {
		return View{}, ErrCartNotFound
	}
	if cart.Empty() {
		return View{}, ErrEmptyCart
	}

	receipt := s.view(ctx, cart)
	if !s.products.ProcessSales(ctx, cart.Entries()) {
		return View{}, domain.ErrStoreWrite
	}
	s.carts.Set(cart.ID, cart.Clear(), s.ttl)

	logger.WithContext(ctx, s.log).Info("sale completed",
		zap.String("cart_id", cart.ID),
		zap.Int("lines", len(cart.Items)),
		zap.Float64("total", receipt.Total),
	)
	return receipt, nil
}

func (s *Service) update(ctx context.Context, id string, fn func(Cart) Cart) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts.Get(strings.TrimSpace(id))
	if !ok {
		return View{}, ErrCartNotFound
	}
	cart = fn(cart)
	s.carts.Set(cart.ID, cart, s.ttl)
	return s.view(ctx, cart), nil
}

func (s *Service) view(ctx context.Context, cart Cart) View {
	products := make([]domain.Product, 0)
	for _, p := range s.products.List(ctx) {
		products = append(products, p.Product)
	}
	return cart.Total(products)
}
