// Package app wires together all dependencies and runs the pricing engine
// service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/commercegrid/pricing-engine/internal/config"
	"github.com/commercegrid/pricing-engine/internal/engine"
	"github.com/commercegrid/pricing-engine/internal/event"
	handler "github.com/commercegrid/pricing-engine/internal/handler/http"
	"github.com/commercegrid/pricing-engine/internal/lock"
	"github.com/commercegrid/pricing-engine/internal/repository/postgres"
	"github.com/commercegrid/pricing-engine/migrations"
	"github.com/commercegrid/pricing-engine/pkg/database"
	"github.com/commercegrid/pricing-engine/pkg/health"
	pkgkafka "github.com/commercegrid/pricing-engine/pkg/kafka"
	"github.com/commercegrid/pricing-engine/pkg/tracing"
)

// App holds the long-lived components of the pricing engine service.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	pool            *pgxpool.Pool
	redisClient     *redis.Client
	producer        *pkgkafka.Producer
	consumer        *pkgkafka.Consumer
	httpServer      *http.Server
	tracingShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// OpenTelemetry tracing (no-op when disabled).
	tracingShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  "pricing-engine",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTELEndpoint,
		SampleRate:   cfg.OTELSampleRate,
		Enabled:      cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)

	// PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "pricing-engine")

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// Redis client backing the run lock.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("host", cfg.RedisHost), slog.Int("port", cfg.RedisPort))

	// Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	ruleRepo := postgres.NewRuleRepository(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)
	eventProducer := event.NewProducer(producer, logger)
	eng := engine.New(ruleRepo, catalogRepo, eventProducer, logger)
	runLock := lock.NewRedisLock(redisClient, cfg.RunLockKey, time.Duration(cfg.RunLockTTLMins)*time.Minute)
	runner := engine.NewLockedRunner(eng, runLock, logger)

	// Optional Kafka trigger consumer.
	var consumer *pkgkafka.Consumer
	if cfg.KafkaConsumerEnabled {
		consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaConsumerGroup,
			Topic:    event.TopicRunRequested,
			MinBytes: 1,
			MaxBytes: 10 << 20,
		}, event.NewRunRequestedHandler(runner, logger), logger)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", producer.Ping)

	// HTTP router.
	router := handler.NewRouter(runner, healthHandler, logger)

	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Runs execute synchronously inside the request; the write timeout
		// must outlast a full catalog evaluation.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		pool:            pool,
		redisClient:     redisClient,
		producer:        producer,
		consumer:        consumer,
		httpServer:      httpServer,
		tracingShutdown: tracingShutdown,
	}, nil
}

// Run starts the HTTP server and the Kafka trigger consumer, then blocks
// until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				a.logger.Error("kafka consumer error", slog.String("error", err.Error()))
			}
		}()
	}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if err := a.tracingShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
