package main

import (
	"context"
	"errors"

	"growth-scraper/config"
	"growth-scraper/models"
	"growth-scraper/scraper/growth"
	"growth-scraper/services"
	"growth-scraper/storage"
	"growth-scraper/utils"
)

// app holds the wired components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *utils.Logger
	metrics  *utils.Metrics
	store    *storage.CSVStore
	pg       *storage.PostgresWriter
	redis    *services.RedisResultCache
	pipeline *services.Pipeline
	insights *services.InsightService
}

func newAppFromFlags(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, logger)
}

func newApp(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*app, error) {
	selectors, err := config.LoadSelectors(cfg.SelectorsFile)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  utils.NewMetrics(),
		store:    storage.NewCSVStore(cfg.RawPath, cfg.CleanPath),
		insights: services.NewInsightService(logger.With("insights")),
	}

	var mirror storage.CleanMirror
	if cfg.PostgresEnabled {
		a.pg, err = storage.NewPostgresWriter(ctx, cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Continuing without the clean table mirror")
		} else {
			mirror = a.pg
		}
	}

	var cache services.ResultCache
	if cfg.CacheBackend == "redis" {
		a.redis = services.NewRedisResultCache(cfg.RedisAddr, cfg.RedisDB, cfg.CacheTTL)
		if err := a.redis.Ping(ctx); err != nil {
			a.Close()
			return nil, err
		}
		cache = a.redis
	}

	collector := growth.New(cfg, selectors, logger.With("collector"), a.metrics)
	normalizer := services.NewNormalizer(a.store, a.store, mirror, a.metrics, logger.With("normalizer"))
	a.pipeline = services.NewPipeline(collector, a.store, normalizer, cache, logger.With("pipeline"))

	logger.Info("=== Growth scraper ready === target: %s | max items: %d | cache: %s | postgres: %v",
		cfg.TargetURL, cfg.MaxItems, cfg.CacheBackend, a.pg != nil)
	return a, nil
}

// cleanTable reads the clean table from PostgreSQL when asked and
// available, falling back to the clean store.
func (a *app) cleanTable(ctx context.Context, preferDB bool) (models.CleanTable, error) {
	if preferDB {
		if a.pg == nil {
			return models.CleanTable{}, errors.New("--from-db needs POSTGRES_ENABLED=true and a reachable database")
		}
		records, err := a.pg.FetchAll(ctx)
		if err == nil {
			return models.CleanTable{
				Columns: services.DisplayColumns(models.KeyProduct, models.KeyPrice, models.KeyDiscount),
				Records: records,
			}, nil
		}
		a.logger.Error("Failed to fetch products from DB, using the clean store: %v", err)
	}
	return a.store.ReadClean()
}

func (a *app) Close() {
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.logger.Warn("Closing PostgreSQL: %v", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Closing Redis: %v", err)
		}
	}
}
