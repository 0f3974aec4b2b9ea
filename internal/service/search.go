package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"job_fetcher/internal/apperr"
	"job_fetcher/internal/config"
	"job_fetcher/internal/dedup"
	"job_fetcher/internal/domain"
	"job_fetcher/internal/remote"
	"job_fetcher/internal/scoring"
	"job_fetcher/internal/telemetry"
)

type SearchService struct {
	aggregator Aggregator
	scorer     *scoring.Scorer
	geocoder   Geocoder
	listings   ListingStore
	profiles   ProfileStore
	txManager  TransactionManager
	publisher  Publisher
	logger     *zap.Logger
	config     config.SearchConfig
}

func NewSearchService(
	aggregator Aggregator,
	scorer *scoring.Scorer,
	geocoder Geocoder,
	listings ListingStore,
	profiles ProfileStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *zap.Logger,
	cfg config.SearchConfig,
) *SearchService {
	return &SearchService{
		aggregator: aggregator,
		scorer:     scorer,
		geocoder:   geocoder,
		listings:   listings,
		profiles:   profiles,
		txManager:  txManager,
		publisher:  publisher,
		logger:     logger.Named("search"),
		config:     cfg,
	}
}

// SearchAndScore runs one pass: aggregate, dedup, score, geocode, persist and
// publish. The returned listings are the stored rows sorted by descending score.
// Source and geocoding failures are absorbed; persistence failures are not.
func (s *SearchService) SearchAndScore(ctx context.Context, req domain.SearchRequest) ([]domain.Listing, *domain.SearchStats, error) {
	startTime := time.Now()

	ctx, span := telemetry.Tracer().Start(ctx, "SearchService.SearchAndScore")
	defer span.End()

	profile, err := s.profiles.Get(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load profile")
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}

	query, location, remoteOnly := s.resolveParams(req, profile)
	span.SetAttributes(
		telemetry.String("query", query),
		telemetry.String("location", location),
		telemetry.Bool("remote_only", remoteOnly),
	)

	s.logger.Info("starting search",
		zap.String("query", query),
		zap.String("location", location),
		zap.Bool("remote_only", remoteOnly),
		zap.Bool("has_profile", profile != nil),
	)

	fetched := s.aggregator.Search(ctx, query, location, remoteOnly)
	stats := &domain.SearchStats{Fetched: len(fetched)}

	listings := dedup.CrossSource(dedup.WithinSource(fetched))
	stats.Deduplicated = len(fetched) - len(listings)
	s.logger.Debug("deduplicated listings",
		zap.Int("fetched", len(fetched)),
		zap.Int("remaining", len(listings)),
	)

	for i := range listings {
		s.scoreListing(&listings[i], profile)
		if s.geocodeListing(ctx, &listings[i]) {
			stats.Geocoded++
		}
	}

	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].RelevanceScore > listings[j].RelevanceScore
	})

	if len(listings) == 0 {
		stats.Duration = time.Since(startTime)
		s.logger.Info("search completed with no listings", zap.Duration("duration", stats.Duration))
		return []domain.Listing{}, stats, nil
	}

	var results []domain.UpsertResult
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		results, err = s.listings.UpsertMany(txCtx, listings)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist listings")
		return nil, stats, apperr.Internal("persist listings", err)
	}

	stored := make([]domain.Listing, len(results))
	for i := range results {
		stored[i] = results[i].Listing
		if results[i].Created {
			stats.New++
		} else {
			stats.Updated++
		}

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, &stored[i], results[i].Created); err != nil {
				stats.Errors++
				s.logger.Warn("publish failed",
					zap.Int64("listing_id", stored[i].ID),
					zap.Error(err),
				)
			} else {
				stats.Published++
			}
		}
	}

	stats.Duration = time.Since(startTime)
	span.SetAttributes(
		telemetry.Int("fetched", stats.Fetched),
		telemetry.Int("stored", len(stored)),
	)

	s.logger.Info("search completed",
		zap.Int("fetched", stats.Fetched),
		zap.Int("deduplicated", stats.Deduplicated),
		zap.Int("geocoded", stats.Geocoded),
		zap.Int("new", stats.New),
		zap.Int("updated", stats.Updated),
		zap.Int("published", stats.Published),
		zap.Int("errors", stats.Errors),
		zap.Duration("duration", stats.Duration),
	)

	return stored, stats, nil
}

// resolveParams picks each parameter from the request, then the profile,
// then the configured defaults.
func (s *SearchService) resolveParams(req domain.SearchRequest, profile *domain.SearchProfile) (string, string, bool) {
	query, location, remoteOnly := s.config.DefaultQuery, s.config.DefaultLocation, false

	if profile != nil {
		if profile.Query != "" {
			query = profile.Query
		}
		if profile.PreferredLocation != "" {
			location = profile.PreferredLocation
		}
		remoteOnly = profile.RemoteOnly
	}

	if req.Query != nil && *req.Query != "" {
		query = *req.Query
	}
	if req.Location != nil && *req.Location != "" {
		location = *req.Location
	}
	if req.RemoteOnly != nil {
		remoteOnly = *req.RemoteOnly
	}

	return query, location, remoteOnly
}

func (s *SearchService) scoreListing(listing *domain.Listing, profile *domain.SearchProfile) {
	listing.IsRemote = listing.IsRemote || remote.Classify(listing.Location, listing.Description, listing.Title)

	result := s.scorer.Score(listing, profile)
	listing.RelevanceScore = result.Score
	listing.MatchedSkills = result.MatchedSkills
	listing.MissingSkills = result.MissingSkills
}

// geocodeListing fills coordinates for on-site listings that lack them.
func (s *SearchService) geocodeListing(ctx context.Context, listing *domain.Listing) bool {
	if s.geocoder == nil || listing.IsRemote || listing.HasCoordinates() || listing.Location == "" {
		return false
	}

	result, ok := s.geocoder.Geocode(ctx, listing.Location)
	if !ok {
		return false
	}

	lat, lon := result.Latitude, result.Longitude
	listing.Latitude = &lat
	listing.Longitude = &lon
	return true
}
