package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"job_fetcher/internal/domain"
)

// Searcher runs one search-and-score pass.
type Searcher interface {
	SearchAndScore(ctx context.Context, req domain.SearchRequest) ([]domain.Listing, *domain.SearchStats, error)
}

type Config struct {
	Spec         string
	StartupDelay time.Duration
	RunTimeout   time.Duration
}

type Scheduler struct {
	searcher Searcher
	config   Config
	logger   *zap.Logger

	running sync.Mutex
	wg      sync.WaitGroup
}

func NewScheduler(searcher Searcher, cfg Config, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		searcher: searcher,
		config:   cfg,
		logger:   logger.Named("scheduler"),
	}
}

// Start runs one pass after the startup delay and then one per cron tick
// until ctx is cancelled. A tick that fires while a pass is running is skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	log := cronLogger{s.logger.Sugar()}
	c := cron.New(
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)

	if _, err := c.AddFunc(s.config.Spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", s.config.Spec, err)
	}

	c.Start()
	s.logger.Info("scheduler started",
		zap.String("spec", s.config.Spec),
		zap.Duration("startup_delay", s.config.StartupDelay),
		zap.Duration("run_timeout", s.config.RunTimeout),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(s.config.StartupDelay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.run(ctx)
		}
	}()

	<-ctx.Done()

	<-c.Stop().Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) run(ctx context.Context) {
	if !s.running.TryLock() {
		s.logger.Warn("previous search still running, skipping")
		return
	}
	defer s.running.Unlock()

	if ctx.Err() != nil {
		return
	}

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.config.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, s.config.RunTimeout)
	}
	defer cancel()

	listings, stats, err := s.searcher.SearchAndScore(runCtx, domain.SearchRequest{})
	if err != nil {
		s.logger.Error("scheduled search failed", zap.Error(err))
		return
	}

	s.logger.Info("scheduled search completed",
		zap.Int("listings", len(listings)),
		zap.Int("new", stats.New),
		zap.Int("updated", stats.Updated),
		zap.Duration("duration", stats.Duration),
	)
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
