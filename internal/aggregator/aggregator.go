// Package aggregator fans a search out to every configured source.
package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"job_fetcher/internal/domain"
	"job_fetcher/internal/telemetry"
)

// Source is one external job-search provider.
type Source interface {
	ID() string
	Name() string
	Search(ctx context.Context, query, location string, remoteOnly bool) ([]domain.Listing, error)
}

type Aggregator struct {
	sources []Source
	logger  *zap.Logger
}

// New keeps sources in the given order; that order is the merge order.
func New(sources []Source, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		sources: sources,
		logger:  logger.Named("aggregator"),
	}
}

// Search queries all sources concurrently and concatenates their results in
// registration order. A failing source contributes nothing; Search itself
// never fails.
func (a *Aggregator) Search(ctx context.Context, query, location string, remoteOnly bool) []domain.Listing {
	ctx, span := telemetry.Tracer().Start(ctx, "aggregator.Search")
	defer span.End()
	span.SetAttributes(
		telemetry.String("query", query),
		telemetry.String("location", location),
		telemetry.Bool("remote_only", remoteOnly),
		telemetry.Int("sources", len(a.sources)),
	)

	results := make([][]domain.Listing, len(a.sources))

	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.searchSource(ctx, src, query, location, remoteOnly)
		}()
	}
	wg.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}

	merged := make([]domain.Listing, 0, total)
	for _, r := range results {
		merged = append(merged, r...)
	}

	span.SetAttributes(telemetry.Int("listings", len(merged)))
	return merged
}

func (a *Aggregator) searchSource(ctx context.Context, src Source, query, location string, remoteOnly bool) (listings []domain.Listing) {
	ctx, span := telemetry.Tracer().Start(ctx, "source.Search")
	defer span.End()
	span.SetAttributes(telemetry.String("source", src.ID()))

	log := a.logger.With(zap.String("source", src.ID()))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, "source panicked")
			log.Error("source panicked", zap.Error(err))
			listings = nil
		}
	}()

	found, err := src.Search(ctx, query, location, remoteOnly)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "source failed")
		log.Warn("source search failed",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	}

	span.SetAttributes(telemetry.Int("listings", len(found)))
	log.Info("source search completed",
		zap.String("source_name", src.Name()),
		zap.Int("listings", len(found)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return found
}
