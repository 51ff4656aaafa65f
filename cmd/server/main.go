package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/gobank/internal/adapter/http"
	"github.com/iho/gobank/internal/adapter/http/handler"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/gobank/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gobank/internal/adapter/repository/redis"
	"github.com/iho/gobank/internal/infrastructure/auth"
	"github.com/iho/gobank/internal/infrastructure/config"
	"github.com/iho/gobank/internal/infrastructure/eventpublisher"
	"github.com/iho/gobank/internal/infrastructure/linkprovider"
	"github.com/iho/gobank/internal/infrastructure/logger"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/infrastructure/postgres"
	"github.com/iho/gobank/internal/infrastructure/redis"
	"github.com/iho/gobank/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "gobank",
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.AutoMigrate {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, log).Up(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	notificationRepo := postgresRepo.NewNotificationRepository(pool)
	linkedItemRepo := postgresRepo.NewLinkedItemRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	cache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	correlationIDs := postgresRepo.NewUUIDGenerator()
	retrier := postgresRepo.NewRetrier(log)

	// Notifications
	publisher, closePublisher := newPublisher(cfg, log)
	defer closePublisher()
	dispatcher := eventpublisher.NewDispatcher(eventpublisher.Config{
		Repo:      notificationRepo,
		Publisher: publisher,
		IDGen:     idGen,
		Logger:    log.With().Str("component", "notifications").Logger(),
	})

	authorizer := auth.NewRoleAuthorizer(cfg.AdminEmails)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	// Use cases
	numbers := usecase.NewNumberAllocator(accountRepo.ExistsByNumber, m)
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, txnRepo, numbers, retrier, idGen, m)
	transferUC := usecase.NewTransferUseCase(txManager, accountRepo, txnRepo, idGen, correlationIDs, dispatcher, m)
	adminUC := usecase.NewAdminUseCase(txManager, accountRepo, txnRepo, auditRepo, authorizer, dispatcher, idGen, m)
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo, m)
	reconciliationUC := usecase.NewReconciliationUseCase(accountRepo, ledgerRepo)
	reportUC := usecase.NewReportUseCase(accountRepo, txnRepo)
	userUC := usecase.NewUserUseCase(userRepo, idGen)
	notificationUC := usecase.NewNotificationUseCase(notificationRepo)
	linkUC := usecase.NewLinkUseCase(newLinkProvider(cfg, log), cache, linkedItemRepo, idGen)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:      handler.NewAccountHandler(accountUC, transferUC, reportUC),
		TransferHandler:     handler.NewTransferHandler(transferUC),
		ReportHandler:       handler.NewReportHandler(reportUC),
		AdminHandler:        handler.NewAdminHandler(adminUC, ledgerUC, reconciliationUC),
		AuthHandler:         handler.NewAuthHandler(userUC, jwtManager, m),
		NotificationHandler: handler.NewNotificationHandler(notificationUC),
		LinkHandler:         handler.NewLinkHandler(linkUC),
		HealthHandler: handler.NewHealthHandler(pool, handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})),
		TokenVerifier:    jwtManager,
		AdminAuthorizer:  authorizer,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		Metrics:          m,
		MetricsGatherer:  registry,
		Logger:           log,
		RequestTimeout:   cfg.HTTPWriteTimeout,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Start(gctx)
	})

	g.Go(func() error {
		rateLimiter.RunCleanup(gctx, time.Minute, 10*time.Minute)
		return nil
	})

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newPublisher selects Kafka when brokers are configured and the log
// publisher otherwise. The returned func releases the publisher.
func newPublisher(cfg *config.Config, log zerolog.Logger) (eventpublisher.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Warn().Msg("KAFKA_BROKERS not set, notifications will only be logged")
		return eventpublisher.NewLogPublisher(log), func() {}
	}

	kp := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	return kp, func() {
		if err := kp.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka writer")
		}
	}
}

// newLinkProvider selects the HTTP aggregator when a URL is configured and
// the in-process sandbox otherwise.
func newLinkProvider(cfg *config.Config, log zerolog.Logger) usecase.LinkProvider {
	if cfg.LinkProviderURL == "" {
		log.Warn().Msg("LINK_PROVIDER_URL not set, using sandbox link provider")
		return linkprovider.NewSandboxProvider()
	}

	return linkprovider.NewHTTPProvider(linkprovider.Config{
		BaseURL:  cfg.LinkProviderURL,
		ClientID: cfg.LinkProviderClientID,
		Secret:   cfg.LinkProviderSecret,
		Timeout:  cfg.LinkProviderTimeout,
		Logger:   log.With().Str("component", "link_provider").Logger(),
	})
}
