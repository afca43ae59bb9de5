package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/ledger"
	"github.com/noah-isme/academy-api/internal/repository"
	"github.com/noah-isme/academy-api/internal/service"
	"github.com/noah-isme/academy-api/pkg/cache"
	"github.com/noah-isme/academy-api/pkg/config"
	"github.com/noah-isme/academy-api/pkg/database"
	"github.com/noah-isme/academy-api/pkg/events"
	"github.com/noah-isme/academy-api/pkg/logger"
)

// @title Sports Academy Registration API
// @version 1.0.0
// @description Schedules, enrollments and administration for the sports academy, mirrored to the remote ledger.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to configure database", zap.Error(err))
	}
	defer db.Close()
	// Reads fall back to the ledger, so an unreachable database only degrades the API.
	if err := database.Ping(ctx, db, 5*time.Second); err != nil {
		logr.Warn("database unreachable at startup", zap.Error(err))
	}

	metrics := service.NewMetricsService()

	store, closeStore, err := buildCacheStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to init cache", zap.Error(err))
	}
	defer closeStore()
	cacheSvc := service.NewCacheService(store, metrics, logr)

	ledgerClient := ledger.NewClient(ledger.Config{
		URL:          cfg.Ledger.URL,
		Token:        cfg.Ledger.Token,
		Logger:       logr,
		Observer:     metrics,
		QueryTimeout: cfg.Ledger.ReadTimeout,
	})

	publisher := buildPublisher(cfg, logr)
	defer publisher.Close() //nolint:errcheck

	mirror := service.NewLedgerMirror(ledgerClient, service.LedgerMirrorConfig{
		Workers:     cfg.Ledger.MirrorWorkers,
		MaxRetries:  cfg.Ledger.MirrorRetries,
		RetryDelay:  cfg.Ledger.MirrorDelay,
		CallTimeout: cfg.Ledger.EnrollTimeout,
	}, metrics, logr)
	mirror.Start(ctx)

	services := buildServices(cfg, db, ledgerClient, cacheSvc, publisher, mirror, metrics, logr)
	router := newRouter(cfg, logr, db, metrics, cacheSvc, services)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	mirror.Stop(shutdownCtx)
	if pending := mirror.Pending(); pending > 0 {
		logr.Warn("ledger mirror tasks lost on shutdown", zap.Int("pending", pending))
	}
}

type appServices struct {
	auth       *service.AuthService
	schedules  *service.ScheduleService
	enrollment *service.EnrollmentService
	students   *service.StudentQueryService
	admin      *service.AdminService
	roster     *service.RosterService
}

func buildServices(
	cfg *config.Config,
	db *sqlx.DB,
	ledgerClient *ledger.Client,
	cacheSvc *service.CacheService,
	publisher events.Publisher,
	mirror *service.LedgerMirror,
	metrics *service.MetricsService,
	logr *zap.Logger,
) appServices {
	validate := validator.New()
	txManager := repository.NewTxManager(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	return appServices{
		auth:      service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}, logr),
		schedules: service.NewScheduleService(scheduleRepo, ledgerClient, cacheSvc, metrics, logr),
		enrollment: service.NewEnrollmentService(service.EnrollmentServiceParams{
			Tx:          txManager,
			Students:    studentRepo,
			Slots:       scheduleRepo,
			Enrollments: enrollmentRepo,
			Ledger:      ledgerClient,
			Cache:       cacheSvc,
			Events:      publisher,
			Metrics:     metrics,
			Validator:   validate,
			Logger:      logr,
			Config: service.EnrollmentServiceConfig{
				CodePrefix:    cfg.Enrollment.CodePrefix,
				MaxSlots:      cfg.Enrollment.MaxSlots,
				RemoteTimeout: cfg.Ledger.EnrollTimeout,
				FlatRateSport: cfg.Enrollment.FlatRateSport,
				FlatRatePrice: cfg.Enrollment.FlatRatePrice,
			},
		}),
		students: service.NewStudentQueryService(service.StudentQueryServiceParams{
			Students:    studentRepo,
			Enrollments: enrollmentRepo,
			Ledger:      ledgerClient,
			Cache:       cacheSvc,
			Metrics:     metrics,
			Logger:      logr,
		}),
		admin: service.NewAdminService(service.AdminServiceParams{
			Tx:            txManager,
			Students:      studentRepo,
			Enrollments:   enrollmentRepo,
			Ledger:        ledgerClient,
			Mirror:        mirror,
			Cache:         cacheSvc,
			Events:        publisher,
			Validator:     validate,
			Logger:        logr,
			RemoteTimeout: cfg.Ledger.EnrollTimeout,
		}),
		roster: service.NewRosterService(enrollmentRepo, ledgerClient, cacheSvc, metrics, logr),
	}
}

func buildCacheStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (cache.Store, func(), error) {
	if cfg.Cache.Backend == config.CacheBackendRedis {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		store, err := cache.NewRedisStore(client, cfg.Cache.KeyPrefix, cfg.Cache.DefaultTTL)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logr.Info("using redis cache", zap.String("host", cfg.Redis.Host), zap.String("prefix", cfg.Cache.KeyPrefix))
		return store, func() { _ = client.Close() }, nil
	}

	store := cache.NewMemoryStore(cache.MemoryConfig{
		DefaultTTL:  cfg.Cache.DefaultTTL,
		CheckPeriod: cfg.Cache.CheckPeriod,
		Logger:      logr,
	})
	store.Start(ctx)
	return store, store.Stop, nil
}

func buildPublisher(cfg *config.Config, logr *zap.Logger) events.Publisher {
	if !cfg.Events.Enabled {
		return events.Nop{}
	}
	publisher, err := events.NewKafkaPublisher(events.KafkaConfig{
		Brokers: cfg.Events.Brokers,
		Topic:   cfg.Events.Topic,
		Logger:  logr,
	})
	if err != nil {
		logr.Warn("event publishing disabled", zap.Error(err))
		return events.Nop{}
	}
	return publisher
}
