package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/pmb-api/api/swagger"
	"github.com/noah-isme/pmb-api/internal/handler"
	"github.com/noah-isme/pmb-api/internal/middleware"
	"github.com/noah-isme/pmb-api/internal/models"
	"github.com/noah-isme/pmb-api/internal/repository"
	"github.com/noah-isme/pmb-api/internal/service"
	"github.com/noah-isme/pmb-api/pkg/broker"
	"github.com/noah-isme/pmb-api/pkg/cache"
	"github.com/noah-isme/pmb-api/pkg/config"
	"github.com/noah-isme/pmb-api/pkg/database"
	"github.com/noah-isme/pmb-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/pmb-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/pmb-api/pkg/middleware/requestid"
)

// @title PMB Registration API
// @version 1.0.0
// @description New-student registration and re-enrollment administration
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var publisher *broker.Publisher
	if cfg.Events.Enabled {
		publisher = broker.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Queue, logr)
		defer publisher.Close() //nolint:errcheck
	}

	app := buildApp(cfg, logr, db, redisClient, publisher)
	// Drop any catalog snapshot cached by a previous deploy.
	if err := app.catalog.Invalidate(ctx); err != nil {
		logr.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
	// Detached from the signal context so events from requests still being
	// drained by srv.Shutdown get published; Stop ends the dispatcher.
	app.events.Start(context.Background())

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env),
			zap.String("sequence_strategy", app.allocator.Strategy()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	app.events.Stop(5 * time.Second)
	logr.Info("server stopped")
}

type application struct {
	logger        *zap.Logger
	auth          *service.AuthService
	metrics       *service.MetricsService
	events        *service.EventService
	allocator     *service.SequenceAllocator
	catalog       *service.CatalogService
	registrations *handler.RegistrationHandler
	reEnrollments *handler.ReEnrollmentHandler
	health        *handler.MetricsHandler
}

func buildApp(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client, publisher *broker.Publisher) *application {
	validate := validator.New()
	metrics := service.NewMetricsService()

	registrationRepo := repository.NewRegistrationRepository(db)
	reEnrollmentRepo := repository.NewReEnrollmentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled)
	catalogSvc := service.NewCatalogService(repository.NewCatalogRepository(db), repository.NewWaveRepository(db), cacheSvc, cfg.Catalog.CacheTTL, logr)

	var allocator *service.SequenceAllocator
	if cfg.Registration.SequenceStrategy == config.SequenceStrategyCounter && redisClient != nil {
		counter := repository.NewWaveCounterRepository(redisClient, cfg.Registration.CounterKeyPrefix)
		allocator = service.NewSequenceAllocator(registrationRepo, counter, cfg.Registration.MaxProbes, metrics, logr)
	} else {
		if cfg.Registration.SequenceStrategy == config.SequenceStrategyCounter {
			logr.Warn("counter sequence strategy needs redis, falling back to probe")
		}
		allocator = service.NewSequenceAllocator(registrationRepo, nil, cfg.Registration.MaxProbes, metrics, logr)
	}

	var events *service.EventService
	eventsCfg := service.EventServiceConfig{Workers: cfg.Events.Workers, Retries: cfg.Events.Retries, RetryDelay: cfg.Events.RetryDelay}
	if publisher != nil {
		events = service.NewEventService(publisher, eventsCfg, metrics, logr)
	} else {
		events = service.NewEventService(nil, eventsCfg, metrics, logr)
	}

	registrationSvc := service.NewRegistrationService(service.RegistrationServiceDeps{
		Repo:         registrationRepo,
		ReEnrollment: reEnrollmentRepo,
		Catalog:      catalogSvc,
		Allocator:    allocator,
		Audit:        auditRepo,
		Events:       events,
		Metrics:      metrics,
		Validator:    validate,
		Logger:       logr,
	})
	reEnrollmentSvc := service.NewReEnrollmentService(reEnrollmentRepo, registrationRepo, catalogSvc, auditRepo, events, validate, logr)

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	return &application{
		logger: logr,
		auth: service.NewAuthService(logr, service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			Issuer:            cfg.JWT.Issuer,
			Audience:          cfg.JWT.Audience,
		}),
		metrics:       metrics,
		events:        events,
		allocator:     allocator,
		catalog:       catalogSvc,
		registrations: handler.NewRegistrationHandler(registrationSvc),
		reEnrollments: handler.NewReEnrollmentHandler(reEnrollmentSvc),
		health:        handler.NewMetricsHandler(metrics, checks),
	}
}

func (a *application) router(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.metrics))

	r.GET("/health", a.health.Health)
	r.GET("/ready", a.health.Ready)
	r.GET("/metrics", a.health.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(a.auth))
	api.Use(middleware.RequireRoles(models.RoleLeadership, models.RolePresenter))
	api.Use(middleware.Audit())

	registrations := api.Group("/registrations")
	registrations.GET("/options", a.registrations.Options)
	registrations.POST("/quote", a.registrations.Quote)
	registrations.POST("", a.registrations.Create)
	registrations.GET("", a.registrations.List)
	registrations.GET("/:id", a.registrations.Get)
	registrations.PUT("/:id", a.registrations.Update)
	registrations.DELETE("/:id", a.registrations.Delete)
	registrations.POST("/:id/re-enrollment", a.reEnrollments.Create)

	reEnrollments := api.Group("/re-enrollments")
	reEnrollments.GET("", a.reEnrollments.List)
	reEnrollments.DELETE("/:id", a.reEnrollments.Delete)

	return r
}
