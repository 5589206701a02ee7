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

	"github.com/localbase/localbase-backend/config"
	"github.com/localbase/localbase-backend/internal/app/controller"
	"github.com/localbase/localbase-backend/internal/app/repository"
	"github.com/localbase/localbase-backend/internal/app/service"
	"github.com/localbase/localbase-backend/internal/db"
	"github.com/localbase/localbase-backend/internal/metrics"
	"github.com/localbase/localbase-backend/internal/middleware"
	"github.com/localbase/localbase-backend/internal/router"
	"github.com/localbase/localbase-backend/internal/scheduler"
	"github.com/localbase/localbase-backend/internal/storage"
	"github.com/localbase/localbase-backend/internal/websocket"
	"github.com/localbase/localbase-backend/pkg/chain"
	"github.com/localbase/localbase-backend/pkg/logger"
	"github.com/localbase/localbase-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Server.LogFormat,
		EnableColor: cfg.Server.LogFormat == "console",
	})

	logger.Info("Starting LocalBase Backend Server", map[string]interface{}{
		"environment":   cfg.Server.Environment,
		"port":          cfg.Server.Port,
		"log_level":     logLevel,
		"real_contract": cfg.Chain.UseRealContract,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.SeedDefaults(db.GetDB()); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Cache, nonces and payment idempotency keys live in Redis when enabled.
	var store redis.Store = redis.NewMemoryStore()
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, using in-process store", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			store = redis.NewStore(redis.GetClient())
			defer func() {
				if err := redis.Close(); err != nil {
					logger.Error("Failed to close Redis connection", err)
				}
			}()
		}
	}

	chainClient, err := chain.New(ctx, cfg.Chain.UseRealContract, chain.OptionsFromConfig(&cfg.Chain))
	if err != nil {
		logger.Fatal("Failed to connect to the payment contract", err)
	}
	if closer, ok := chainClient.(interface{ Close() }); ok {
		defer closer.Close()
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)
	if err := metrics.RegisterGauge("websocket", "clients", "Connected websocket clients.", func() float64 {
		return float64(hub.ClientCount())
	}); err != nil {
		logger.Warn("Failed to register websocket gauge", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Initialize repositories
	businessRepo := repository.NewBusinessRepository(db.GetDB())
	reviewRepo := repository.NewReviewRepository(db.GetDB())
	communityRepo := repository.NewCommunityRepository(db.GetDB())
	transactionRepo := repository.NewTransactionRepository(db.GetDB())
	loyaltyRepo := repository.NewLoyaltyRepository(db.GetDB())

	// Initialize services
	businessService := service.NewBusinessService(businessRepo, chainClient, store, hub, cfg.Sync.CacheTTL)
	analyticsService := service.NewAnalyticsService(businessRepo, transactionRepo, reviewRepo)
	reviewService := service.NewReviewService(reviewRepo, businessRepo, transactionRepo, hub)
	communityService := service.NewCommunityService(communityRepo, businessRepo, hub)
	paymentService := service.NewPaymentService(
		transactionRepo,
		businessRepo,
		chainClient,
		store,
		hub,
		cfg.Chain.ReceiptTimeout,
		cfg.Sync.CacheTTL,
	)
	loyaltyService := service.NewLoyaltyService(loyaltyRepo, businessRepo, hub, cfg.Rewards.Cooldown)
	authService := service.NewAuthService(store, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.NonceExpiry)
	syncService := service.NewChainSyncService(
		businessRepo,
		paymentService,
		chainClient,
		store,
		cfg.Sync.CacheTTL,
		cfg.Sync.PendingMaxAge,
	)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	businessController := controller.NewBusinessController(businessService, analyticsService, paymentService)
	reviewController := controller.NewReviewController(reviewService)
	communityController := controller.NewCommunityController(communityService)
	paymentController := controller.NewPaymentController(paymentService)
	loyaltyController := controller.NewLoyaltyController(loyaltyService)
	uploadController := controller.NewUploadController(storage.NewS3Storage(ctx, &cfg.S3))
	wsController := controller.NewWSController(hub, cfg.CORS.AllowedOrigins)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	go rateLimiter.Run(ctx)

	r := router.NewRouter(
		authController,
		businessController,
		reviewController,
		communityController,
		paymentController,
		loyaltyController,
		uploadController,
		wsController,
		authMiddleware,
		rateLimiter,
		chainClient.Mode(),
		cfg,
	)
	engine, err := r.Setup()
	if err != nil {
		logger.Fatal("Failed to set up router", err)
	}

	syncScheduler := scheduler.NewChainSyncScheduler(syncService, cfg.Sync.Schedule, cfg.Chain.ReceiptTimeout)
	if err := syncScheduler.Start(ctx); err != nil {
		logger.Fatal("Failed to start chain sync scheduler", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	certs := router.AutoTLS(&cfg.Server)
	if certs != nil {
		srv.TLSConfig = certs.TLSConfig()
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
			"chain":   chainClient.Mode(),
			"tls":     certs != nil,
		})
		var err error
		if certs != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown did not complete", err)
	}
	syncScheduler.Stop()
	paymentService.Wait()

	logger.Info("Server stopped successfully")
}
