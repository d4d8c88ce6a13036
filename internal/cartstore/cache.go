package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/domain"
)

var ErrCacheMiss = errors.New("cart not cached")

// Cache holds the latest cart snapshot per shopper.
type Cache interface {
	Get(ctx context.Context, shopper string) (domain.Cart, error)
	Set(ctx context.Context, shopper string, cart domain.Cart) error
	Delete(ctx context.Context, shopper string) error
}

type MemoryCache struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{carts: make(map[string]domain.Cart)}
}

func (m *MemoryCache) Get(_ context.Context, shopper string) (domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.carts[shopper]
	if !ok {
		return domain.Cart{}, ErrCacheMiss
	}
	return c, nil
}

func (m *MemoryCache) Set(_ context.Context, shopper string, cart domain.Cart) error {
	m.mu.Lock()
	m.carts[shopper] = cart
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, shopper string) error {
	m.mu.Lock()
	delete(m.carts, shopper)
	m.mu.Unlock()
	return nil
}

// RedisCache shares snapshots between storefront instances.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

func (r *RedisCache) Get(ctx context.Context, shopper string) (domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(shopper)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Cart{}, ErrCacheMiss
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("redis get failed: %w", err)
	}
	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return domain.Cart{}, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return cart, nil
}

func (r *RedisCache) Set(ctx context.Context, shopper string, cart domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	// jitter spreads expiry of carts written together
	ttl := r.baseTTL + time.Duration(rand.Intn(5))*time.Minute
	if err := r.client.Set(ctx, cacheKey(shopper), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, shopper string) error {
	if err := r.client.Del(ctx, cacheKey(shopper)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(shopper string) string {
	return fmt.Sprintf("storefront:cart:%s", shopper)
}
