// Package cartstore keeps one authoritative cart snapshot per shopper and tells
// subscribers whenever it is replaced.
package cartstore

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"storefront/internal/backend"
	"storefront/internal/domain"
	applog "storefront/internal/log"
)

// Listener receives every snapshot applied for the shopper it subscribed to.
// Listeners of one shopper run in apply order and must not block.
type Listener func(domain.Cart)

type Store struct {
	carts    backend.Carts
	cache    Cache
	loads    singleflight.Group
	applying keyedMutex

	mu     sync.Mutex // guards subs and nextID only
	subs   map[string]map[uint64]Listener
	nextID uint64
}

func New(carts backend.Carts, cache Cache) *Store {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Store{
		carts:    carts,
		cache:    cache,
		applying: keyedMutex{locks: make(map[string]*refMutex)},
		subs:     make(map[string]map[uint64]Listener),
	}
}

// Snapshot returns the last applied cart without calling the backend.
func (s *Store) Snapshot(ctx context.Context, shopper string) (domain.Cart, bool) {
	c, err := s.cache.Get(ctx, shopper)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			applog.Error(nil, "cartstore.cache.get", err, map[string]any{"shopper": shopper})
		}
		return domain.Cart{}, false
	}
	return c, true
}

// Load fetches the shopper's cart. Concurrent loads for one shopper share a call.
// The shared call outlives any single caller's cancellation; it is bounded by
// the adapter's request timeout. A cancelled caller stops waiting for it.
func (s *Store) Load(ctx context.Context, shopper string) (domain.Cart, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(shopper, func() (any, error) {
		c, err := s.carts.GetCart(backend.WithShopper(shared, shopper))
		if err != nil {
			return domain.Cart{}, err
		}
		s.apply(shared, shopper, c)
		return c, nil
	})
	select {
	case <-ctx.Done():
		return domain.Cart{}, &backend.TransportError{Op: "load cart", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return domain.Cart{}, res.Err
		}
		return res.Val.(domain.Cart), nil
	}
}

func (s *Store) Add(ctx context.Context, shopper string, id domain.ProductID, qty int) (domain.Cart, error) {
	return s.mutate(ctx, shopper, func(ctx context.Context) (domain.Cart, error) {
		return s.carts.AddToCart(ctx, id, qty)
	})
}

func (s *Store) Update(ctx context.Context, shopper string, id domain.ProductID, qty int) (domain.Cart, error) {
	return s.mutate(ctx, shopper, func(ctx context.Context) (domain.Cart, error) {
		return s.carts.UpdateQuantity(ctx, id, qty)
	})
}

func (s *Store) Remove(ctx context.Context, shopper string, id domain.ProductID) (domain.Cart, error) {
	return s.mutate(ctx, shopper, func(ctx context.Context) (domain.Cart, error) {
		return s.carts.RemoveFromCart(ctx, id)
	})
}

// mutate applies the backend's answer on success; on failure the previous
// snapshot stays in place.
func (s *Store) mutate(ctx context.Context, shopper string, call func(context.Context) (domain.Cart, error)) (domain.Cart, error) {
	c, err := call(backend.WithShopper(ctx, shopper))
	if err != nil {
		return domain.Cart{}, err
	}
	s.apply(ctx, shopper, c)
	return c, nil
}

// Apply replaces the shopper's snapshot. Snapshots are applied in arrival
// order; the last one wins.
func (s *Store) Apply(ctx context.Context, shopper string, c domain.Cart) {
	s.apply(ctx, shopper, c)
}

func (s *Store) apply(ctx context.Context, shopper string, c domain.Cart) {
	unlock := s.applying.lock(shopper)
	defer unlock()
	// a finished request must not lose the server's answer
	if err := s.cache.Set(context.WithoutCancel(ctx), shopper, c); err != nil {
		applog.Error(nil, "cartstore.cache.set", err, map[string]any{"shopper": shopper})
	}
	for _, fn := range s.listeners(shopper) {
		fn(c)
	}
}

func (s *Store) listeners(shopper string) []Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Listener, 0, len(s.subs[shopper]))
	for _, fn := range s.subs[shopper] {
		out = append(out, fn)
	}
	return out
}

// Subscribe registers fn for the shopper's snapshots and returns its cancel func.
func (s *Store) Subscribe(shopper string, fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	if s.subs[shopper] == nil {
		s.subs[shopper] = make(map[uint64]Listener)
	}
	s.subs[shopper][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[shopper], id)
			if len(s.subs[shopper]) == 0 {
				delete(s.subs, shopper)
			}
		})
	}
}

// Subscribers reports how many listeners the shopper has.
func (s *Store) Subscribers(shopper string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[shopper])
}

// keyedMutex serializes work per key; entries are dropped once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	m := k.locks[key]
	if m == nil {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		if m.refs--; m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
