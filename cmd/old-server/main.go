package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/config"
	"github.com/dativebase/old/pkg/corpus"
	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/httpapi"
	"github.com/dativebase/old/pkg/lm"
	"github.com/dativebase/old/pkg/markup"
	"github.com/dativebase/old/pkg/morphology"
	"github.com/dativebase/old/pkg/observability"
	"github.com/dativebase/old/pkg/parser"
	"github.com/dativebase/old/pkg/phonology"
	"github.com/dativebase/old/pkg/propagator"
	"github.com/dativebase/old/pkg/query"
	"github.com/dativebase/old/pkg/restrict"
	"github.com/dativebase/old/pkg/scheduler"
	"github.com/dativebase/old/pkg/store"
	"github.com/dativebase/old/pkg/toolkit"
	"github.com/dativebase/old/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("starting OLD server")
	logger.Infof("store type: %s", cfg.Store.Type)

	ctx := context.Background()
	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("failed to initialize OpenTelemetry")
	}

	db, dialect, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}

	layout, err := artifacts.New(cfg.Instance.PermanentStore, cfg.Instance.Name)
	if err != nil {
		log.Fatalf("failed to build artifact layout: %v", err)
	}

	tools := toolkit.NewRunner(cfg.Tools, logger)

	var redisClient *redis.Client
	if cfg.Cache.Enabled && cfg.Cache.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisURL,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unavailable, parse cache falls back to in-memory only")
			redisClient = nil
		}
	}

	restrictedTagID, err := resolveRestrictedTagID(ctx, db, dialect)
	if err != nil {
		log.Fatalf("failed to resolve restricted tag id: %v", err)
	}
	filter := restrict.New(restrictedTagID)

	baseStore := store.New(db, dialect, time.Now)
	forms := store.NewFormStore(baseStore)
	formSearches := store.NewFormSearchStore(baseStore)
	corpora := store.NewCorpusStore(baseStore)
	phonologies := store.NewPhonologyStore(baseStore)
	morphologies := store.NewMorphologyStore(baseStore)
	languageModels := store.NewMorphemeLanguageModelStore(baseStore)
	parsers := store.NewMorphologicalParserStore(baseStore)
	collections := store.NewCollectionStore(baseStore, nil)

	unrestrictedUserIDs := map[int64]bool{}

	renderer := markup.NewRenderer()
	prop := propagator.New(
		collectionFetcher{collections},
		renderer,
		formAccessor{forms, filter, unrestrictedUserIDs},
	)
	collections.SetPropagator(prop)

	schema := query.NewOLDSchema()

	corpusEngine := corpus.NewEngine(forms, formSearches, corpora, schema, dialect, layout, tools, filter, nil)
	phonologyCompiler := phonology.NewCompiler(phonologies, layout, tools, logger)
	morphologyCompiler := morphology.NewCompiler(morphologies, forms, corpora, layout, tools, logger, nil)
	lmBuilder := lm.NewBuilder(languageModels, morphologies, forms, corpora, layout, tools, logger, nil)

	parseCache, err := parser.NewCache(cfg.Cache.ParseCacheSize, redisClient, parser.DefaultCacheTTL)
	if err != nil {
		log.Fatalf("failed to build parse cache: %v", err)
	}
	parserEngine := parser.New(parsers, phonologies, morphologies, languageModels, lmBuilder, layout, tools,
		parseCache, logger)

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	workers := worker.NewPool(logger, metrics)

	var jobScheduler *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobScheduler, err = scheduler.New(forms, baseStore, cfg.Scheduler.MorphemeRebuildSchedule,
			cfg.Scheduler.BackupSweepSchedule, cfg.Scheduler.BackupRetention, domain.DefaultMorphemeDelimiters,
			logger)
		if err != nil {
			log.Fatalf("failed to build scheduler: %v", err)
		}
		jobScheduler.Start()
	}

	httpServer := httpapi.NewServer(httpapi.Deps{
		Forms:          forms,
		FormSearches:   formSearches,
		Corpora:        corpora,
		Collections:    collections,
		Phonologies:    phonologies,
		Morphologies:   morphologies,
		LanguageModels: languageModels,
		Parsers:        parsers,

		Schema:  schema,
		Dialect: dialect,

		CorpusEngine:       corpusEngine,
		PhonologyCompiler:  phonologyCompiler,
		MorphologyCompiler: morphologyCompiler,
		LMBuilder:          lmBuilder,
		Parser:             parserEngine,

		Filter:              filter,
		UnrestrictedUserIDs: unrestrictedUserIDs,

		Workers: workers,

		Logger:  logger,
		Metrics: metrics,

		Readonly: cfg.Instance.Readonly,

		CORSAllowedOrigins: []string{"*"},
		RequestTimeout:     cfg.Server.WriteTimeout,
	})

	healthChecker := observability.NewHealthChecker(db, redisClient)

	mainServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      httpServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, healthChecker)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:         ":" + cfg.Server.HealthPort,
		Handler:      healthMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("starting health/metrics server on port %s", cfg.Server.HealthPort)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("health server failed")
		}
	}()

	shutdownManager := observability.NewShutdownManager(logger, mainServer, cfg.Server.ShutdownTimeout)
	if jobScheduler != nil {
		shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
			return jobScheduler.Stop(ctx)
		})
	}
	shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
		logger.Info("shutting down health server")
		return healthServer.Shutdown(ctx)
	})
	shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
		logger.Info("closing store")
		return db.Close()
	})
	if otelProviders != nil {
		shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
			logger.Info("shutting down OpenTelemetry")
			return observability.ShutdownOTel(ctx, otelProviders, logger)
		})
	}

	go func() {
		logger.Infof("starting OLD API server on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := mainServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	logger.Info("server started successfully, waiting for shutdown signal")
	if err := shutdownManager.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}

// resolveRestrictedTagID looks up (or lazily creates) the distinguished
// "restricted" tag row that pkg/restrict keys its visibility checks on.
func resolveRestrictedTagID(ctx context.Context, db *sql.DB, dialect query.Dialect) (int64, error) {
	var id int64
	row := db.QueryRowContext(ctx, "SELECT id FROM tags WHERE name = "+dialect.Placeholder(1), "restricted")
	if err := row.Scan(&id); err == nil {
		return id, nil
	}
	insert := fmt.Sprintf("INSERT INTO tags (name) VALUES (%s) RETURNING id", dialect.Placeholder(1))
	if err := db.QueryRowContext(ctx, insert, "restricted").Scan(&id); err != nil {
		return 0, fmt.Errorf("creating restricted tag: %w", err)
	}
	return id, nil
}

// collectionFetcher and formAccessor satisfy propagator's small
// interfaces; httpapi.Server wires its own equivalents for request-path
// use, but the propagator passed to CollectionStore.SetPropagator for
// cascade hooks needs its own instances built before httpapi.NewServer
// runs.
type collectionFetcher struct {
	collections *store.CollectionStore
}

func (f collectionFetcher) GetCollection(ctx context.Context, id int64) (*domain.Collection, error) {
	return f.collections.Get(ctx, id)
}

type formAccessor struct {
	forms               *store.FormStore
	filter              *restrict.Filter
	unrestrictedUserIDs map[int64]bool
}

func (a formAccessor) FormAccessible(ctx context.Context, id int64) (bool, error) {
	form, err := a.forms.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if form == nil {
		return false, nil
	}
	return a.filter.Accessible(nil, a.unrestrictedUserIDs, form.TagIDs), nil
}
