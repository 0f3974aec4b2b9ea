package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"job_fetcher/internal/domain"
	"job_fetcher/internal/geocode"
)

const keyPrefix = "geocode:"

type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Store shares successful geocode results between processes.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func New(opts Options) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	return NewWithClient(client, opts.TTL)
}

func NewWithClient(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, key string) (*domain.GeocodeResult, error) {
	val, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, geocode.ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var result domain.GeocodeResult
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}

	return &result, nil
}

func (s *Store) Set(ctx context.Context, key string, result *domain.GeocodeResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+key, body, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
