package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"job_fetcher/internal/domain"
)

type Aggregator interface {
	Search(ctx context.Context, query, location string, remoteOnly bool) []domain.Listing
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (*domain.GeocodeResult, bool)
}

type ListingStore interface {
	Upsert(ctx context.Context, listing domain.Listing) (domain.UpsertResult, error)
	UpsertMany(ctx context.Context, listings []domain.Listing) ([]domain.UpsertResult, error)
	GetByID(ctx context.Context, id int64) (*domain.Listing, error)
	GetByExternalID(ctx context.Context, externalID, source string) (*domain.Listing, error)
	List(ctx context.Context, query domain.ListQuery) ([]domain.Listing, error)
	Count(ctx context.Context, query domain.ListQuery) (int, error)
	UpdateStatus(ctx context.Context, id int64, status domain.Status) error
	AverageScore(ctx context.Context) (float64, error)
	DeleteDuplicates(ctx context.Context) (domain.DedupResult, error)
}

type ProfileStore interface {
	Get(ctx context.Context) (*domain.SearchProfile, error)
	Upsert(ctx context.Context, profile *domain.SearchProfile) (*domain.SearchProfile, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, listing *domain.Listing, isNew bool) error
	Close() error
}
