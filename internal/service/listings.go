package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"job_fetcher/internal/apperr"
	"job_fetcher/internal/domain"
	"job_fetcher/internal/remote"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	dashboardWindowHours = 72
	dashboardTopN        = 5
	backfillPageSize     = 100
)

// ListingService serves reads and user actions over persisted listings.
type ListingService struct {
	listings  ListingStore
	geocoder  Geocoder
	txManager TransactionManager
	logger    *zap.Logger
}

func NewListingService(listings ListingStore, geocoder Geocoder, txManager TransactionManager, logger *zap.Logger) *ListingService {
	return &ListingService{
		listings:  listings,
		geocoder:  geocoder,
		txManager: txManager,
		logger:    logger.Named("listings"),
	}
}

// List returns one page of listings and the total number matching the filters.
// Page and page size are clamped to sane bounds.
func (s *ListingService) List(ctx context.Context, query domain.ListQuery) (*domain.ListingPage, error) {
	query, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}

	items, err := s.listings.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}

	total, err := s.listings.Count(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	return &domain.ListingPage{
		Items:    items,
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	}, nil
}

// Get returns a listing and marks it viewed on first access.
func (s *ListingService) Get(ctx context.Context, id int64) (*domain.Listing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if listing.Status == domain.StatusNew {
		if err := s.listings.UpdateStatus(ctx, id, domain.StatusViewed); err != nil {
			return nil, fmt.Errorf("mark viewed: %w", err)
		}
		listing.Status = domain.StatusViewed
	}

	return listing, nil
}

func (s *ListingService) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	if err := s.listings.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.logger.Info("listing status updated",
		zap.Int64("listing_id", id),
		zap.Stringer("status", status),
	)
	return nil
}

// Dashboard summarizes listings posted within the last three days.
func (s *ListingService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	window := dashboardWindowHours
	recent := domain.ListQuery{PostedWithinHours: &window}

	var stats domain.DashboardStats
	var err error

	if stats.Total, err = s.listings.Count(ctx, recent); err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	for _, c := range []struct {
		status domain.Status
		dst    *int
	}{
		{domain.StatusNew, &stats.New},
		{domain.StatusApplied, &stats.Applied},
		{domain.StatusDismissed, &stats.Dismissed},
	} {
		q := recent
		q.Status = &c.status
		if *c.dst, err = s.listings.Count(ctx, q); err != nil {
			return nil, fmt.Errorf("count %s listings: %w", c.status, err)
		}
	}

	if stats.AverageScore, err = s.listings.AverageScore(ctx); err != nil {
		return nil, fmt.Errorf("average score: %w", err)
	}

	top := recent
	top.Page, top.PageSize, top.SortBy = 1, dashboardTopN, domain.SortByScore
	topListings, err := s.listings.List(ctx, top)
	if err != nil {
		return nil, fmt.Errorf("list top listings: %w", err)
	}

	latest := recent
	latest.Page, latest.PageSize, latest.SortBy = 1, dashboardTopN, domain.SortByDate
	recentListings, err := s.listings.List(ctx, latest)
	if err != nil {
		return nil, fmt.Errorf("list recent listings: %w", err)
	}

	return &domain.Dashboard{
		Stats:  stats,
		Top:    topListings,
		Recent: recentListings,
	}, nil
}

// Dedup collapses stored listings sharing a title and company.
func (s *ListingService) Dedup(ctx context.Context) (domain.DedupResult, error) {
	var result domain.DedupResult
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		result, err = s.listings.DeleteDuplicates(txCtx)
		return err
	})
	if err != nil {
		return domain.DedupResult{}, fmt.Errorf("delete duplicates: %w", err)
	}

	s.logger.Info("dedup completed",
		zap.Int("removed", result.Removed),
		zap.Int("groups", result.Groups),
	)
	return result, nil
}

// Backfill reclassifies every stored listing and geocodes on-site ones that
// still lack coordinates.
func (s *ListingService) Backfill(ctx context.Context) (domain.BackfillResult, error) {
	var result domain.BackfillResult

	for page := 1; ; page++ {
		batch, err := s.listings.List(ctx, domain.ListQuery{Page: page, PageSize: backfillPageSize})
		if err != nil {
			return result, fmt.Errorf("list listings: %w", err)
		}

		for i := range batch {
			listing := &batch[i]
			result.Processed++

			wasRemote := listing.IsRemote
			listing.IsRemote = remote.Classify(listing.Location, listing.Description, "")
			if listing.IsRemote != wasRemote {
				result.Reclassified++
			}

			if !listing.IsRemote && !listing.HasCoordinates() && strings.TrimSpace(listing.Location) != "" {
				if geo, ok := s.geocoder.Geocode(ctx, listing.Location); ok {
					lat, lon := geo.Latitude, geo.Longitude
					listing.Latitude, listing.Longitude = &lat, &lon
					result.Geocoded++
				}
			}

			if _, err := s.listings.Upsert(ctx, *listing); err != nil {
				return result, fmt.Errorf("upsert listing %d: %w", listing.ID, err)
			}
		}

		if len(batch) < backfillPageSize {
			break
		}
	}

	s.logger.Info("backfill completed",
		zap.Int("processed", result.Processed),
		zap.Int("reclassified", result.Reclassified),
		zap.Int("geocoded", result.Geocoded),
	)
	return result, nil
}

// Geocode resolves a single address through the shared rate-limited client.
func (s *ListingService) Geocode(ctx context.Context, address string) (*domain.GeocodeResult, error) {
	if strings.TrimSpace(address) == "" {
		return nil, apperr.InvalidInput("address is required", nil)
	}

	result, ok := s.geocoder.Geocode(ctx, address)
	if !ok {
		return nil, apperr.NotFound(fmt.Sprintf("could not geocode %q", address), nil)
	}
	return result, nil
}

func normalizeQuery(query domain.ListQuery) (domain.ListQuery, error) {
	if query.Page < 1 {
		query.Page = 1
	}

	switch {
	case query.PageSize < 1:
		query.PageSize = DefaultPageSize
	case query.PageSize > MaxPageSize:
		query.PageSize = MaxPageSize
	}

	switch query.SortBy {
	case "":
		query.SortBy = domain.SortByScore
	case domain.SortByScore, domain.SortByDate:
	default:
		return query, apperr.InvalidInput(fmt.Sprintf("unknown sort %q", query.SortBy), nil)
	}

	if query.Location != nil && query.Location.RadiusMiles <= 0 {
		return query, apperr.InvalidInput("radius must be positive", nil)
	}

	return query, nil
}
