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
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lesson-engine/api/swagger"
	"github.com/noah-isme/lesson-engine/internal/handler"
	internalmiddleware "github.com/noah-isme/lesson-engine/internal/middleware"
	"github.com/noah-isme/lesson-engine/internal/repository"
	"github.com/noah-isme/lesson-engine/internal/service"
	"github.com/noah-isme/lesson-engine/pkg/cache"
	"github.com/noah-isme/lesson-engine/pkg/config"
	"github.com/noah-isme/lesson-engine/pkg/database"
	"github.com/noah-isme/lesson-engine/pkg/logger"
	"github.com/noah-isme/lesson-engine/pkg/middleware/cors"
	"github.com/noah-isme/lesson-engine/pkg/middleware/requestid"
)

const (
	cacheNamespace  = "lesson-engine"
	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Engine.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis, 5*time.Second)
		if err != nil {
			log.Warn("redis unavailable, engine cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, cacheNamespace, log)
	defer func() { _ = cacheRepo.Close() }()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Engine.CacheTTL, log, redisClient != nil)

	sessions := repository.NewLessonSessionRepository(db)
	teachers := repository.NewTeacherRepository(db)
	substitutions := repository.NewSubstitutionRepository(db)

	insights := service.NewScheduleInsightService(sessions, teachers, cacheSvc, metrics,
		service.WorkdayWindow{Start: cfg.Engine.WorkdayStart, End: cfg.Engine.WorkdayEnd}, validate, log)
	subs := service.NewSubstitutionService(substitutions, sessions, validate, log,
		service.WithSubstitutionMetrics(metrics))

	sweeper := service.NewConflictSweeper(sessions, metrics, cfg.Sweep.DaysAhead, log)
	if cfg.Sweep.Enabled {
		if err := sweeper.Start(cfg.Sweep.Schedule); err != nil {
			return fmt.Errorf("start conflict sweep: %w", err)
		}
		defer sweeper.Stop()
	}

	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = cacheRepo.Ping
	}
	probes := handler.NewMetricsHandler(metrics, checks)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.Middleware())
	router.Use(logger.GinMiddleware(log, "/health", "/ready", "/metrics"))
	router.Use(cors.New(cfg.CORS.AllowedOrigins))
	router.Use(internalmiddleware.Metrics(metrics, "/health", "/ready", "/metrics"))

	router.GET("/health", probes.Health)
	router.GET("/ready", probes.Ready)
	router.GET("/metrics", probes.Prometheus)
	if cfg.Env != config.EnvProduction {
		router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(router.Group(cfg.APIPrefix), handler.Routes{
		Tokens:               service.NewTokenService(cfg.JWT.Secret),
		Schedule:             handler.NewScheduleHandler(insights, sweeper),
		Substitutions:        handler.NewSubstitutionHandler(subs),
		SubstitutionsEnabled: cfg.Substitutions.Enabled,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
