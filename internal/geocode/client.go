// Package geocode resolves free-text addresses to coordinates behind a
// process-wide rate limit and a per-address cache.
package geocode

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"job_fetcher/internal/domain"
	"job_fetcher/internal/telemetry"
)

// ErrNotCached is returned by a Store that holds no entry for a key.
var ErrNotCached = errors.New("geocode: not cached")

// Resolver performs one upstream lookup. A nil result with a nil error means not found.
type Resolver interface {
	Resolve(ctx context.Context, address string) (*domain.GeocodeResult, error)
}

// Store is an optional shared cache for successful lookups.
type Store interface {
	Get(ctx context.Context, key string) (*domain.GeocodeResult, error)
	Set(ctx context.Context, key string, result *domain.GeocodeResult) error
}

// Client owns the address cache and the single request gate. Both found and
// not-found outcomes are cached for the life of the process.
type Client struct {
	resolver    Resolver
	store       Store
	minInterval time.Duration
	logger      *zap.Logger

	cacheMu sync.RWMutex
	cache   map[string]*domain.GeocodeResult

	gate        sync.Mutex
	lastRequest time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

// WithStore adds a shared second-level cache consulted before the network.
func WithStore(store Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.now = now
		c.sleep = sleep
	}
}

func NewClient(resolver Resolver, minInterval time.Duration, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		resolver:    resolver,
		minInterval: minInterval,
		logger:      logger.Named("geocode"),
		cache:       make(map[string]*domain.GeocodeResult),
		now:         time.Now,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeAddress is the cache key for an address.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Geocode returns the coordinates for address, or false when it cannot be
// resolved. Failures are never returned to the caller.
func (c *Client) Geocode(ctx context.Context, address string) (*domain.GeocodeResult, bool) {
	key := NormalizeAddress(address)
	if key == "" {
		return nil, false
	}

	if result, ok := c.cached(key); ok {
		return result, result != nil
	}

	if result := c.fromStore(ctx, key); result != nil {
		c.remember(key, result)
		return result, true
	}

	c.gate.Lock()
	defer c.gate.Unlock()

	// Another caller may have resolved the key while we waited.
	if result, ok := c.cached(key); ok {
		return result, result != nil
	}

	if wait := c.minInterval - c.now().Sub(c.lastRequest); wait > 0 {
		if err := c.sleep(ctx, wait); err != nil {
			return nil, false
		}
	}

	ctx, span := telemetry.Tracer().Start(ctx, "geocode.Resolve")
	defer span.End()

	result, err := c.resolver.Resolve(ctx, address)
	c.lastRequest = c.now()

	if err != nil {
		span.RecordError(err)
		if ctx.Err() != nil {
			// Cancelled by the caller, not a failed lookup: leave it uncached.
			return nil, false
		}
		c.logger.Warn("geocoding failed",
			zap.String("address", address),
			zap.Error(err),
		)
		c.remember(key, nil)
		return nil, false
	}

	c.remember(key, result)
	if result == nil {
		c.logger.Debug("address not found", zap.String("address", address))
		return nil, false
	}

	span.SetAttributes(telemetry.String("display_name", result.DisplayName))
	c.toStore(ctx, key, result)

	return result, true
}

func (c *Client) cached(key string) (*domain.GeocodeResult, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()

	result, ok := c.cache[key]
	return result, ok
}

func (c *Client) remember(key string, result *domain.GeocodeResult) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	c.cache[key] = result
}

func (c *Client) fromStore(ctx context.Context, key string) *domain.GeocodeResult {
	if c.store == nil {
		return nil
	}

	result, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotCached) {
			c.logger.Warn("geocode store read failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	return result
}

func (c *Client) toStore(ctx context.Context, key string, result *domain.GeocodeResult) {
	if c.store == nil {
		return
	}

	if err := c.store.Set(ctx, key, result); err != nil {
		c.logger.Warn("geocode store write failed", zap.String("key", key), zap.Error(err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
