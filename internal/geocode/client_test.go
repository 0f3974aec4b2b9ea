package geocode

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"job_fetcher/internal/domain"
)

type fakeResolver struct {
	mu      sync.Mutex
	calls   []string
	results map[string]*domain.GeocodeResult
	err     error
	delay   time.Duration
}

func (f *fakeResolver) Resolve(_ context.Context, address string) (*domain.GeocodeResult, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, address)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[NormalizeAddress(address)], nil
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]*domain.GeocodeResult
	sets    int
}

func (m *memoryStore) Get(_ context.Context, key string) (*domain.GeocodeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.entries[key]; ok {
		return r, nil
	}
	return nil, ErrNotCached
}

func (m *memoryStore) Set(_ context.Context, key string, result *domain.GeocodeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = result
	m.sets++
	return nil
}

var newYork = &domain.GeocodeResult{Latitude: 40.7128, Longitude: -74.0060, DisplayName: "New York, United States"}

func newTestClient(resolver Resolver, clock *fakeClock, opts ...Option) *Client {
	opts = append(opts, WithClock(clock.Now, clock.Sleep))
	return NewClient(resolver, 1100*time.Millisecond, zap.NewNop(), opts...)
}

func TestGeocode_CachesByNormalizedAddress(t *testing.T) {
	resolver := &fakeResolver{results: map[string]*domain.GeocodeResult{"new york, ny": newYork}}
	client := newTestClient(resolver, &fakeClock{now: time.Unix(1000, 0)})

	first, ok := client.Geocode(context.Background(), "New York, NY")
	require.True(t, ok)
	second, ok := client.Geocode(context.Background(), "  new york, ny ")
	require.True(t, ok)

	assert.Equal(t, newYork, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, resolver.callCount())
}

func TestGeocode_FailureIsCachedAsNotFound(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("timeout")}
	client := newTestClient(resolver, &fakeClock{now: time.Unix(1000, 0)})

	_, ok := client.Geocode(context.Background(), "Nowhere")
	assert.False(t, ok)
	_, ok = client.Geocode(context.Background(), "Nowhere")
	assert.False(t, ok)

	assert.Equal(t, 1, resolver.callCount())
}

func TestGeocode_NotFoundIsCached(t *testing.T) {
	resolver := &fakeResolver{results: map[string]*domain.GeocodeResult{}}
	client := newTestClient(resolver, &fakeClock{now: time.Unix(1000, 0)})

	for range 3 {
		result, ok := client.Geocode(context.Background(), "Atlantis")
		assert.False(t, ok)
		assert.Nil(t, result)
	}

	assert.Equal(t, 1, resolver.callCount())
}

func TestGeocode_SpacesRequestsByMinInterval(t *testing.T) {
	resolver := &fakeResolver{results: map[string]*domain.GeocodeResult{}}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	client := newTestClient(resolver, clock)

	client.Geocode(context.Background(), "Boston, MA")
	client.Geocode(context.Background(), "Denver, CO")
	client.Geocode(context.Background(), "Boston, MA")

	assert.Equal(t, 2, resolver.callCount())
	assert.Equal(t, []time.Duration{1100 * time.Millisecond}, clock.sleeps)
}

func TestGeocode_NoWaitAfterIntervalElapsed(t *testing.T) {
	resolver := &fakeResolver{results: map[string]*domain.GeocodeResult{}}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	client := newTestClient(resolver, clock)

	client.Geocode(context.Background(), "Boston, MA")
	clock.now = clock.now.Add(2 * time.Second)
	client.Geocode(context.Background(), "Denver, CO")

	assert.Empty(t, clock.sleeps)
}

func TestGeocode_ConcurrentCallersShareOneLookup(t *testing.T) {
	resolver := &fakeResolver{
		results: map[string]*domain.GeocodeResult{"new york, ny": newYork},
		delay:   20 * time.Millisecond,
	}
	client := NewClient(resolver, 10*time.Millisecond, zap.NewNop())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, ok := client.Geocode(context.Background(), "New York, NY")
			assert.True(t, ok)
			assert.Equal(t, newYork, result)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, resolver.callCount())
}

func TestGeocode_ConcurrentDistinctAddressesAreSerialized(t *testing.T) {
	resolver := &fakeResolver{results: map[string]*domain.GeocodeResult{}}
	const interval = 30 * time.Millisecond
	client := NewClient(resolver, interval, zap.NewNop())

	start := time.Now()
	var wg sync.WaitGroup
	for _, address := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client.Geocode(context.Background(), address)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, resolver.callCount())
	assert.GreaterOrEqual(t, time.Since(start), 2*interval)
}

func TestGeocode_CanceledWaitIsNotCached(t *testing.T) {
	resolver := &fakeResolver{results: map[string]*domain.GeocodeResult{"denver, co": newYork}}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	client := newTestClient(resolver, clock)

	client.Geocode(context.Background(), "Boston, MA")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := client.Geocode(ctx, "Denver, CO")
	assert.False(t, ok)
	assert.Equal(t, 1, resolver.callCount())

	_, ok = client.Geocode(context.Background(), "Denver, CO")
	assert.True(t, ok)
	assert.Equal(t, 2, resolver.callCount())
}

type ctxResolver struct {
	calls int
}

func (r *ctxResolver) Resolve(ctx context.Context, _ string) (*domain.GeocodeResult, error) {
	r.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newYork, nil
}

func TestGeocode_CanceledLookupIsNotCached(t *testing.T) {
	resolver := &ctxResolver{}
	client := newTestClient(resolver, &fakeClock{now: time.Unix(1000, 0)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := client.Geocode(ctx, "New York, NY")
	assert.False(t, ok)
	assert.Equal(t, 1, resolver.calls)

	result, ok := client.Geocode(context.Background(), "New York, NY")
	require.True(t, ok)
	assert.Equal(t, newYork, result)
	assert.Equal(t, 2, resolver.calls)
}

func TestGeocode_EmptyAddress(t *testing.T) {
	resolver := &fakeResolver{}
	client := newTestClient(resolver, &fakeClock{now: time.Unix(1000, 0)})

	_, ok := client.Geocode(context.Background(), "   ")

	assert.False(t, ok)
	assert.Zero(t, resolver.callCount())
}

func TestGeocode_StoreHitSkipsResolver(t *testing.T) {
	resolver := &fakeResolver{}
	store := &memoryStore{entries: map[string]*domain.GeocodeResult{"new york, ny": newYork}}
	client := newTestClient(resolver, &fakeClock{now: time.Unix(1000, 0)}, WithStore(store))

	result, ok := client.Geocode(context.Background(), "New York, NY")

	assert.True(t, ok)
	assert.Equal(t, newYork, result)
	assert.Zero(t, resolver.callCount())
}

func TestGeocode_OnlySuccessesReachStore(t *testing.T) {
	resolver := &fakeResolver{results: map[string]*domain.GeocodeResult{"new york, ny": newYork}}
	store := &memoryStore{entries: map[string]*domain.GeocodeResult{}}
	client := newTestClient(resolver, &fakeClock{now: time.Unix(1000, 0)}, WithStore(store))

	client.Geocode(context.Background(), "New York, NY")
	client.Geocode(context.Background(), "Atlantis")

	assert.Equal(t, 1, store.sets)
	assert.Equal(t, newYork, store.entries["new york, ny"])
	_, stored := store.entries["atlantis"]
	assert.False(t, stored)
}
