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
	"go.uber.org/zap"

	_ "github.com/noah-isme/course-registration-api/api/swagger"
	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/handler"
	"github.com/noah-isme/course-registration-api/internal/repository"
	"github.com/noah-isme/course-registration-api/internal/router"
	"github.com/noah-isme/course-registration-api/internal/seed"
	"github.com/noah-isme/course-registration-api/internal/service"
	"github.com/noah-isme/course-registration-api/pkg/cache"
	"github.com/noah-isme/course-registration-api/pkg/config"
	"github.com/noah-isme/course-registration-api/pkg/database"
	"github.com/noah-isme/course-registration-api/pkg/export"
	"github.com/noah-isme/course-registration-api/pkg/logger"
)

// @title Course Registration API
// @version 1.0.0
// @description Course catalog, registration and drop request workflow.
// @BasePath /api/v1
// @schemes http
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	store, ready, closeStore, err := openStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeStore()
	store = repository.NewInstrumentedStore(store, metrics, cfg.Store.Driver)

	validate := dto.NewValidator()
	registrationRepo := repository.NewRegistrationRepository(store, cfg.Store.KeyPrefix)
	dropRepo := repository.NewDropRequestRepository(store, cfg.Store.KeyPrefix)
	catalogRepo := repository.NewCatalogRepository(store, cfg.Store.KeyPrefix)

	registrations := service.NewRegistrationService(registrationRepo, metrics, logr)
	dropRequests := service.NewDropRequestService(dropRepo, registrations, metrics, logr)
	catalog := service.NewCatalogService(catalogRepo, registrations, dropRequests, validate, logr)

	seedCourses, err := seed.Load(cfg.Catalog.SeedFile)
	if err != nil {
		logr.Fatal("failed to load catalog seed", zap.String("file", cfg.Catalog.SeedFile), zap.Error(err))
	}
	if err := catalog.Init(ctx, seedCourses); err != nil {
		logr.Fatal("failed to initialise catalog", zap.Error(err))
	}

	enrollment := service.NewEnrollmentService(catalog, registrations)
	schedule, err := service.NewScheduleService(registrations, service.ScheduleConfig{
		DayStart: cfg.Schedule.DayStart,
		DayEnd:   cfg.Schedule.DayEnd,
	}, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	if err != nil {
		logr.Fatal("invalid schedule configuration", zap.Error(err))
	}
	auth := service.NewAuthService(registrations, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	dashboard := service.NewDashboardService(catalog, dropRequests, registrations)

	engine := router.New(router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableMetrics:  cfg.Metrics.Enabled,
		EnableDocs:     cfg.Docs.Enabled && cfg.Env != config.EnvProduction,
		Logger:         logr,
		Tokens:         auth,
		Observer:       metrics,
		Auth:           handler.NewAuthHandler(auth),
		Catalog:        handler.NewCatalogHandler(catalog),
		Registry:       handler.NewRegistrationHandler(enrollment, registrations, schedule),
		Drops:          handler.NewDropRequestHandler(dropRequests),
		Dashboard:      handler.NewDashboardHandler(dashboard),
		Metrics:        handler.NewMetricsHandler(metrics, ready),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

// openStore connects the configured blob store and returns its readiness probe and closer.
func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (repository.BlobStore, handler.ReadinessCheck, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		store := repository.NewRedisStore(client, logr)
		ready := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return store, ready, func() { _ = store.Close() }, nil
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		store := repository.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		return store, db.PingContext, func() { _ = db.Close() }, nil
	default:
		return repository.NewMemoryStore(), nil, func() {}, nil
	}
}
