package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/b2bmart/search-service/internal/config"
	"github.com/b2bmart/search-service/internal/engine"
	esengine "github.com/b2bmart/search-service/internal/engine/elasticsearch"
	"github.com/b2bmart/search-service/internal/engine/memory"
	"github.com/b2bmart/search-service/internal/event"
	"github.com/b2bmart/search-service/internal/facet"
	handler "github.com/b2bmart/search-service/internal/handler/http"
	"github.com/b2bmart/search-service/internal/query"
	"github.com/b2bmart/search-service/internal/registry"
	"github.com/b2bmart/search-service/internal/repository/postgres"
	"github.com/b2bmart/search-service/internal/service"
	"github.com/b2bmart/search-service/pkg/database"
	"github.com/b2bmart/search-service/pkg/health"
	"github.com/b2bmart/search-service/pkg/httpclient"
	pkgkafka "github.com/b2bmart/search-service/pkg/kafka"
	"github.com/b2bmart/search-service/pkg/tracing"
)

// App wires together all dependencies and runs the search service.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	pgPool          *pgxpool.Pool
	redisClient     *redis.Client
	consumers       []*pkgkafka.Consumer
	httpServer      *http.Server
	tracingShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	tracingShutdown, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Search engine selection.
	var eng engine.Engine
	var esEng *esengine.Engine
	switch cfg.SearchEngine {
	case "elasticsearch":
		esEng, err = esengine.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		eng = esEng
		logger.Info("elasticsearch engine initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	default:
		eng = memory.New()
		logger.Info("in-memory engine initialized")
	}

	// Category schema registry: Postgres-backed, Redis-cached.
	pgCfg := cfg.Postgres()
	pgPool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		// The category cache is an optimization; the service works without it.
		logger.Warn("redis unavailable, category cache disabled", slog.String("error", err.Error()))
		redisClient = nil
	}

	categoryRepo := postgres.NewCategoryRepository(pgPool)
	categoryRegistry := registry.New(categoryRepo, redisClient, cfg.CategoryTTL, logger)

	// Service layer.
	compiler := query.New(categoryRegistry, logger)
	facetEngine := facet.New(eng, logger, cfg.FacetConcurrency)
	searchService := service.NewSearchService(eng, compiler, facetEngine, logger)

	catalogClient := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("catalog-service"),
		logger,
	)
	reindexer := service.NewReindexService(catalogClient, cfg.CatalogServiceURL, cfg.ReindexBatchSize, searchService, logger)

	// Kafka consumers for listing events from the catalog service.
	eventConsumer := event.NewConsumer(searchService, logger)

	topics := []string{
		event.TopicListingCreated,
		event.TopicListingUpdated,
		event.TopicListingDeleted,
	}

	var consumers []*pkgkafka.Consumer
	for _, topic := range topics {
		consumerCfg := pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaGroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}
		c := pkgkafka.NewConsumer(consumerCfg, eventConsumer.Handle, logger)
		consumers = append(consumers, c)
	}
	logger.Info("kafka consumers initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.Int("topic_count", len(topics)),
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pgPool.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if esEng != nil {
		healthHandler.Register("elasticsearch", esEng.Ping)
	}
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})

	// HTTP router.
	router := handler.NewRouter(searchService, reindexer, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		pgPool:          pgPool,
		redisClient:     redisClient,
		consumers:       consumers,
		httpServer:      httpServer,
		tracingShutdown: tracingShutdown,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the context
// is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.pgPool.Close()

	if err := a.tracingShutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
