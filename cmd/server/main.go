package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/config"
	"github.com/Harsh-BH/baywatch/internal/credentials"
	handler "github.com/Harsh-BH/baywatch/internal/delivery/http"
	"github.com/Harsh-BH/baywatch/internal/publisher"
	"github.com/Harsh-BH/baywatch/internal/repository/postgres"
	redisrepo "github.com/Harsh-BH/baywatch/internal/repository/redis"
	"github.com/Harsh-BH/baywatch/internal/stream"
	"github.com/Harsh-BH/baywatch/internal/usecase"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting Baywatch server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	dbPool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping PostgreSQL", zap.Error(err))
	}
	if err := postgres.Migrate(ctx, dbPool); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}
	logger.Info("Connected to PostgreSQL")

	// Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Fatal("Failed to parse Redis URL", zap.Error(err))
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to ping Redis", zap.Error(err))
	}
	logger.Info("Connected to Redis")

	healthChecks := map[string]handler.HealthCheck{
		"postgres": dbPool.Ping,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}

	// Job events are best-effort; run without the broker rather than refuse jobs.
	var pub publisher.Publisher
	rabbit, err := publisher.NewRabbitMQPublisher(cfg.RabbitMQ.URL, logger)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, job events will only be logged", zap.Error(err))
		pub = publisher.NewLogPublisher(logger)
	} else {
		logger.Info("Connected to RabbitMQ")
		pub = rabbit
		healthChecks["rabbitmq"] = rabbit.Healthy
	}
	defer pub.Close()

	sealer, err := credentials.NewSealer(cfg.Credentials.Key)
	if err != nil {
		logger.Fatal("Failed to initialize credential sealer", zap.Error(err))
	}
	if cfg.Credentials.Key == nil {
		logger.Warn("CREDENTIALS_KEY not set, camera passwords are stored unencrypted")
	}

	// Repositories
	store := postgres.NewPostgresStore(dbPool)
	grants := redisrepo.NewRedisGrantStore(rdb)

	// Stream supervision
	supervisor := stream.NewSupervisor(stream.Config{
		OutputDir:      cfg.Stream.OutputDir,
		PathPrefix:     cfg.Stream.PathPrefix,
		SegmentSeconds: cfg.Stream.SegmentSeconds,
		PlaylistSize:   cfg.Stream.PlaylistSize,
		StartTimeout:   cfg.Stream.StartTimeout,
	}, stream.NewFFmpegLauncher(cfg.Stream.FFmpegPath, logger), logger)
	resolver := stream.NewResolver(sealer, supervisor)

	reconciler := stream.NewReconciler(supervisor, store.Jobs(), cfg.Stream.ReconcileInterval, logger)
	reconciler.Start(ctx)

	// Use cases
	coordinator := usecase.NewAssignmentCoordinator(store, supervisor, pub, logger)

	router := handler.NewRouter(ctx, &handler.RouterDeps{
		Coordinator:  coordinator,
		JobQueries:   usecase.NewJobQueries(store.Jobs(), logger),
		ShareLinks:   usecase.NewShareLinkUsecase(store.Jobs(), grants, cfg.Public.GrantTTL, logger),
		CameraAdmin:  usecase.NewCameraAdminUsecase(store.Cameras(), sealer, logger),
		CameraStream: usecase.NewCameraStreamUsecase(store.Cameras(), resolver, supervisor, logger),
		Gateway: usecase.NewPublicAccessGateway(store, grants, resolver, supervisor, usecase.GatewayConfig{
			TokenMinLength: cfg.Public.TokenMinLength,
			RequireToken:   cfg.Public.RequireToken,
		}, logger),
		HealthChecks:    healthChecks,
		Logger:          logger,
		HLSDir:          cfg.Stream.OutputDir,
		HLSPrefix:       cfg.Stream.PathPrefix,
		StaffToken:      cfg.Server.StaffToken,
		RateLimitPerMin: cfg.Server.RateLimit,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("API server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down Baywatch server...")
	case err := <-serveErr:
		logger.Error("Server failed", zap.Error(err))
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	reconciler.Stop()
	coordinator.Wait()

	// No transcoder may outlive the server.
	if err := supervisor.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to stop all transcoders", zap.Error(err))
	}

	logger.Info("Baywatch server stopped")
}
