package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"job_fetcher/internal/aggregator"
	"job_fetcher/internal/config"
	"job_fetcher/internal/geocode"
	"job_fetcher/internal/geocode/nominatim"
	georedis "job_fetcher/internal/geocode/redis"
	"job_fetcher/internal/logger"
	"job_fetcher/internal/publisher"
	"job_fetcher/internal/scoring"
	"job_fetcher/internal/service"
	"job_fetcher/internal/source"
	"job_fetcher/internal/source/adzuna"
	"job_fetcher/internal/source/googlejobs"
	"job_fetcher/internal/storage/memory"
	"job_fetcher/internal/storage/postgres"
	"job_fetcher/internal/telemetry"
)

// app holds everything a command needs, built from config.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	listings  service.ListingStore
	profiles  service.ProfileStore
	txManager service.TransactionManager
	publisher service.Publisher
	geocoder  *geocode.Client

	closers []func() error
}

type appOptions struct {
	publisher bool
	tracing   bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	log, err := logger.New(cfg.LogJSON, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: log}
	a.closers = append(a.closers, func() error {
		_ = log.Sync()
		return nil
	})

	if err := a.initStorage(); err != nil {
		a.close()
		return nil, err
	}

	if err := a.initGeocoder(ctx); err != nil {
		a.close()
		return nil, err
	}

	if opts.publisher && cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, log)
		if err != nil {
			a.close()
			return nil, err
		}
		a.publisher = rabbitMQ
		a.closers = append(a.closers, rabbitMQ.Close)
	}

	if opts.tracing && cfg.Tracing.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Tracing.ServiceName, cfg.Tracing.CollectorURL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			return shutdown(context.Background())
		})
		log.Info("tracing enabled", zap.String("collector", cfg.Tracing.CollectorURL))
	}

	return a, nil
}

func (a *app) initStorage() error {
	switch a.cfg.Database.Driver {
	case config.DriverMemory:
		a.listings = memory.NewListingStore()
		a.profiles = memory.NewProfileStore()
		a.txManager = memory.NewTransactionManager()
		a.logger.Warn("using in-memory storage, listings will not survive a restart")
		return nil
	}

	db, err := sqlx.Connect("postgres", a.cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	a.listings = postgres.NewListingStore(db)
	a.profiles = postgres.NewProfileStore(db)
	a.txManager = postgres.NewTransactionManager(db)
	a.logger.Info("connected to database",
		zap.String("host", a.cfg.Database.Host),
		zap.String("dbname", a.cfg.Database.DBName),
	)
	return nil
}

func (a *app) initGeocoder(ctx context.Context) error {
	resolver := nominatim.New(nominatim.Config{
		BaseURL:      a.cfg.Geocoding.BaseURL,
		UserAgent:    a.cfg.Geocoding.UserAgent,
		CountryCodes: a.cfg.Geocoding.CountryCodes,
		Timeout:      a.cfg.Geocoding.Timeout,
	})

	var opts []geocode.Option
	if a.cfg.Redis.Enabled {
		store := georedis.New(georedis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
			TTL:      a.cfg.Redis.TTL,
		})
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		opts = append(opts, geocode.WithStore(store))
	}

	a.geocoder = geocode.NewClient(resolver, a.cfg.Geocoding.MinInterval, a.logger, opts...)
	return nil
}

func (a *app) sources() []aggregator.Source {
	var sources []aggregator.Source

	if az := a.cfg.Sources.Adzuna; az.Enabled {
		sources = append(sources, adzuna.New(adzuna.Config{
			AppID:          az.AppID,
			AppKey:         az.AppKey,
			BaseURL:        az.BaseURL,
			ResultsPerPage: az.ResultsPerPage,
			MaxDaysOld:     az.MaxDaysOld,
			Timeout:        az.Timeout,
			Retry:          retryConfig(az.Retry),
		}, a.logger))
	}

	if gj := a.cfg.Sources.GoogleJobs; gj.Enabled {
		sources = append(sources, googlejobs.New(googlejobs.Config{
			APIKey:   gj.APIKey,
			BaseURL:  gj.BaseURL,
			Num:      gj.Num,
			MaxPages: gj.MaxPages,
			Timeout:  gj.Timeout,
			Retry:    retryConfig(gj.Retry),
		}, a.logger))
	}

	if len(sources) == 0 {
		a.logger.Warn("no sources enabled, searches will return nothing")
	}
	return sources
}

func (a *app) searchService() *service.SearchService {
	return service.NewSearchService(
		aggregator.New(a.sources(), a.logger),
		scoring.NewScorer(),
		a.geocoder,
		a.listings,
		a.profiles,
		a.txManager,
		a.publisher,
		a.logger,
		a.cfg.Search,
	)
}

func (a *app) listingService() *service.ListingService {
	return service.NewListingService(a.listings, a.geocoder, a.txManager, a.logger)
}

func (a *app) profileService() *service.ProfileService {
	return service.NewProfileService(a.profiles, a.logger, a.cfg.Search)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func retryConfig(r config.RetryConfig) source.RetryConfig {
	return source.RetryConfig{
		MaxAttempts:    r.MaxAttempts,
		InitialBackoff: r.InitialBackoff,
		MaxBackoff:     r.MaxBackoff,
	}
}
