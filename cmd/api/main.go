package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fullservice-mx/api/internal/export"
	"github.com/fullservice-mx/api/internal/handlers"
	"github.com/fullservice-mx/api/internal/platform/config"
	pfirestore "github.com/fullservice-mx/api/internal/platform/firestore"
	"github.com/fullservice-mx/api/internal/platform/idempotency"
	"github.com/fullservice-mx/api/internal/platform/observability"
	"github.com/fullservice-mx/api/internal/repositories"
	firestoreRepo "github.com/fullservice-mx/api/internal/repositories/firestore"
	"github.com/fullservice-mx/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}
	counterRepo, err := firestoreRepo.NewCounterRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise counter repository", zap.Error(err))
	}
	healthRepo, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{
		firestoreRepo.HealthCheck(firestoreProvider),
	})
	if err != nil {
		logger.Fatal("failed to initialise health repository", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:   orderRepo,
		Counters: counterRepo,
		Clock:    time.Now,
		Logger:   logger.Named("orders"),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}
	catalogService := services.NewCatalogService()
	analyzer := services.NewServiceAnalyzer()

	suggester, err := buildSuggester(logger.Named("suggester"), cfg)
	if err != nil {
		logger.Fatal("failed to initialise estimate suggester", zap.Error(err))
	}

	validator, err := handlers.NewRequestValidator(cfg.Validation)
	if err != nil {
		logger.Fatal("failed to initialise request validator", zap.Error(err))
	}

	idempotencyStore := idempotency.NewFirestoreStore(firestoreClient)
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfoFromEnv(startedAt)),
		handlers.WithHealthPinger(healthRepo),
	)
	renderer := export.NewPDFRenderer(export.WithPDFLogger(logger.Named("export")))
	orderHandlers := handlers.NewOrderHandlers(orderService, renderer, validator)
	estimateHandlers := handlers.NewEstimateHandlers(suggester, analyzer, validator,
		handlers.WithSuggestRateLimit(30, time.Minute),
	)
	catalogHandlers := handlers.NewCatalogHandlers(catalogService)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithOrderMiddlewares(idempotencyMiddleware),
		handlers.WithEstimateRoutes(estimateHandlers.Routes),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("fullservice api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildSuggester(logger *zap.Logger, cfg config.Config) (services.EstimateSuggester, error) {
	switch cfg.Suggester.Provider {
	case "remote":
		return services.NewRemoteSuggester(services.RemoteSuggesterDeps{
			Endpoint: cfg.Suggester.Endpoint,
			Token:    cfg.Suggester.AuthToken,
			Logger:   logger,
		})
	default:
		return services.NewHeuristicSuggester(services.HeuristicSuggesterDeps{
			HourlyRate: cfg.Suggester.HourlyRate,
			Logger:     logger,
		}), nil
	}
}

func buildInfoFromEnv(started time.Time) handlers.BuildInfo {
	version := strings.TrimSpace(os.Getenv("API_BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(os.Getenv("API_BUILD_COMMIT_SHA"))
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(os.Getenv("API_ENVIRONMENT"))
	if environment == "" {
		environment = "local"
	}
	return handlers.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}
