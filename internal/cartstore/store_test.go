package cartstore_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/backend"
	"storefront/internal/cartstore"
	"storefront/internal/domain"
)

// fakeCarts keeps a server-side cart per shopper the way the real API does.
type fakeCarts struct {
	mu      sync.Mutex
	carts   map[string]map[domain.ProductID]int
	gets    atomic.Int32
	gate    chan struct{}
	failing bool
}

func newFake() *fakeCarts {
	return &fakeCarts{carts: map[string]map[domain.ProductID]int{}}
}

func (f *fakeCarts) snapshot(shopper string) domain.Cart {
	c := domain.Cart{}
	for id, q := range f.carts[shopper] {
		c.Lines = append(c.Lines, domain.CartLine{
			Product:  domain.Product{ID: id, Name: "p" + string(id), Price: decimal.NewFromInt(10)},
			Quantity: q,
		})
	}
	return c
}

func (f *fakeCarts) GetCart(ctx context.Context) (domain.Cart, error) {
	f.gets.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if err := ctx.Err(); err != nil {
		return domain.Cart{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot(backend.Shopper(ctx)), nil
}

func (f *fakeCarts) mutate(ctx context.Context, fn func(map[domain.ProductID]int)) (domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return domain.Cart{}, &backend.TransportError{Op: "mutate", Status: 503, Err: errors.New("down")}
	}
	s := backend.Shopper(ctx)
	if f.carts[s] == nil {
		f.carts[s] = map[domain.ProductID]int{}
	}
	fn(f.carts[s])
	return f.snapshot(s), nil
}

func (f *fakeCarts) AddToCart(ctx context.Context, id domain.ProductID, q int) (domain.Cart, error) {
	return f.mutate(ctx, func(m map[domain.ProductID]int) { m[id] += q })
}

func (f *fakeCarts) UpdateQuantity(ctx context.Context, id domain.ProductID, q int) (domain.Cart, error) {
	return f.mutate(ctx, func(m map[domain.ProductID]int) {
		if _, ok := m[id]; !ok {
			return
		}
		if q <= 0 {
			delete(m, id)
			return
		}
		m[id] = q
	})
}

func (f *fakeCarts) RemoveFromCart(ctx context.Context, id domain.ProductID) (domain.Cart, error) {
	return f.mutate(ctx, func(m map[domain.ProductID]int) { delete(m, id) })
}

func TestMutationsReplaceSnapshot(t *testing.T) {
	f := newFake()
	s := cartstore.New(f, nil)
	ctx := context.Background()

	_, ok := s.Snapshot(ctx, "a")
	assert.False(t, ok)

	_, err := s.Add(ctx, "a", "1", 1)
	require.NoError(t, err)
	c, err := s.Add(ctx, "a", "1", 1)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)

	snap, ok := s.Snapshot(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, c, snap)

	c, err = s.Update(ctx, "a", "1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Lines[0].Quantity)

	c, err = s.Remove(ctx, "a", "1")
	require.NoError(t, err)
	assert.True(t, c.Empty())

	_, ok = s.Snapshot(ctx, "b")
	assert.False(t, ok, "shoppers do not share snapshots")
}

func TestFailedMutationKeepsSnapshot(t *testing.T) {
	f := newFake()
	s := cartstore.New(f, nil)
	ctx := context.Background()

	before, err := s.Add(ctx, "a", "1", 1)
	require.NoError(t, err)

	f.failing = true
	_, err = s.Add(ctx, "a", "2", 1)
	require.Error(t, err)
	assert.True(t, backend.IsTransport(err))

	snap, ok := s.Snapshot(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, before, snap)
}

func TestLastAppliedSnapshotWins(t *testing.T) {
	s := cartstore.New(newFake(), nil)
	ctx := context.Background()

	older := domain.Cart{Lines: []domain.CartLine{{Product: domain.Product{ID: "1"}, Quantity: 1}}}
	newer := domain.Cart{Lines: []domain.CartLine{{Product: domain.Product{ID: "1"}, Quantity: 3}}}

	// responses arriving out of request order are applied as they arrive
	s.Apply(ctx, "a", newer)
	s.Apply(ctx, "a", older)

	snap, ok := s.Snapshot(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, older, snap)
}

func TestSubscribersAreNotified(t *testing.T) {
	s := cartstore.New(newFake(), nil)
	ctx := context.Background()

	var got []int
	cancel := s.Subscribe("a", func(c domain.Cart) { got = append(got, len(c.Lines)) })
	other := 0
	defer s.Subscribe("b", func(domain.Cart) { other++ })()

	_, err := s.Add(ctx, "a", "1", 1)
	require.NoError(t, err)
	_, err = s.Add(ctx, "a", "2", 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
	assert.Zero(t, other)

	cancel()
	cancel()
	assert.Zero(t, s.Subscribers("a"))
	_, err = s.Remove(ctx, "a", "1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestConcurrentLoadsShareOneCall(t *testing.T) {
	f := newFake()
	f.gate = make(chan struct{})
	s := cartstore.New(f, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Load(context.Background(), "a")
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return f.gets.Load() == 1 }, time.Second, 5*time.Millisecond)
	// let the other callers join the in-flight load before it completes
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	assert.EqualValues(t, 1, f.gets.Load())
	_, ok := s.Snapshot(context.Background(), "a")
	assert.True(t, ok)
}

func TestCancelledLoadDoesNotFailJoinedCallers(t *testing.T) {
	f := newFake()
	f.gate = make(chan struct{})
	s := cartstore.New(f, nil)
	_, err := s.Add(context.Background(), "a", "1", 2)
	require.NoError(t, err)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Load(first, "a")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return f.gets.Load() == 1 }, time.Second, 5*time.Millisecond)

	joined := make(chan domain.Cart, 1)
	go func() {
		c, err := s.Load(context.Background(), "a")
		assert.NoError(t, err)
		joined <- c
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	err = <-firstErr
	require.Error(t, err)
	assert.True(t, backend.IsTransport(err))

	close(f.gate)
	c := <-joined
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.EqualValues(t, 1, f.gets.Load())
}

// slowCache delays writes for one shopper.
type slowCache struct {
	*cartstore.MemoryCache
	slow    string
	delay   time.Duration
	started chan struct{}
}

func (c *slowCache) Set(ctx context.Context, shopper string, cart domain.Cart) error {
	if shopper == c.slow {
		close(c.started)
		time.Sleep(c.delay)
	}
	return c.MemoryCache.Set(ctx, shopper, cart)
}

func TestSlowCacheWriteDoesNotBlockOtherShoppers(t *testing.T) {
	cache := &slowCache{MemoryCache: cartstore.NewMemoryCache(), slow: "slow", delay: 500 * time.Millisecond, started: make(chan struct{})}
	s := cartstore.New(newFake(), cache)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Apply(ctx, "slow", domain.Cart{})
	}()
	<-cache.started

	notified := 0
	defer s.Subscribe("fast", func(domain.Cart) { notified++ })()

	start := time.Now()
	s.Apply(ctx, "fast", domain.Cart{Lines: []domain.CartLine{{Product: domain.Product{ID: "1"}, Quantity: 1}}})
	assert.Equal(t, 1, s.Subscribers("fast"))
	assert.Less(t, time.Since(start), 200*time.Millisecond)
	assert.Equal(t, 1, notified)

	<-done
	_, ok := s.Snapshot(ctx, "slow")
	assert.True(t, ok)
}

func TestApplyForOneShopperIsSerialized(t *testing.T) {
	s := cartstore.New(newFake(), nil)
	ctx := context.Background()

	var mu sync.Mutex
	active, maxActive := 0, 0
	defer s.Subscribe("a", func(domain.Cart) {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
	})()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Apply(ctx, "a", domain.Cart{})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive)
}
