package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/portfolio-api/internal/config"
	"github.com/iliyamo/portfolio-api/internal/database"
	"github.com/iliyamo/portfolio-api/internal/logging"
	"github.com/iliyamo/portfolio-api/internal/middleware"
	"github.com/iliyamo/portfolio-api/internal/queue"
	"github.com/iliyamo/portfolio-api/internal/repository"
	"github.com/iliyamo/portfolio-api/internal/repository/memory"
	"github.com/iliyamo/portfolio-api/internal/repository/mongostore"
	"github.com/iliyamo/portfolio-api/internal/router"
	"github.com/iliyamo/portfolio-api/internal/service"
	"github.com/iliyamo/portfolio-api/internal/utils"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.IsProduction())
	slog.SetDefault(logger.Slog())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStores()

	if _, err := service.CheckAdminAccount(ctx, stores.Users, cfg.RegistrationEnabled, logger); err != nil {
		logger.Warn(ctx, "admin account check failed", "err", err)
	}

	deps := router.Deps{
		Config:    cfg,
		RateLimit: config.LoadRateLimitConfig(),
		Log:       logger,
		Stores:    stores,
		Tokens:    utils.NewTokenService(cfg.JWTSecret, cfg.TokenTTL),
		Events:    queue.NopPublisher{},
	}

	if rdb := config.NewRedisClient(config.LoadRedisConfig()); rdb != nil {
		defer rdb.Close()
		deps.Counter = middleware.NewRedisWindowCounter(rdb)
		deps.Cache = middleware.NewResponseCache(config.LoadCacheConfig(), rdb, logger)
		logger.Info(ctx, "redis connected; rate limiting and response cache enabled")
	} else {
		logger.Warn(ctx, "redis not available; rate limiting and response cache disabled")
	}

	if cfg.RabbitMQURL != "" {
		deps.Events = queue.NewAMQPPublisher(cfg.RabbitMQURL, logger)
		go func() {
			if err := queue.StartAuditConsumer(ctx, cfg.RabbitMQURL, cfg.AuditLogPath, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error(ctx, "audit consumer stopped", "err", err)
			}
		}()
	}

	e := router.New(deps)

	addr := ":" + cfg.Port
	logger.Info(ctx, "listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "shutdown", "err", err)
	}
}

// openStores connects the configured backend and returns a cleanup func.
func openStores(ctx context.Context, cfg config.Config, logger logging.Logger) (repository.Stores, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return repository.Stores{}, nil, err
		}
		stores, err := mongostore.NewStores(ctx, db)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return repository.Stores{}, nil, err
		}
		return stores, func() { _ = client.Disconnect(context.Background()) }, nil

	case config.DriverMemory:
		logger.Warn(ctx, "using in-memory store; data is lost on restart")
		return memory.NewStores(), func() {}, nil

	default:
		db, err := database.Open(cfg)
		if err != nil {
			return repository.Stores{}, nil, err
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return repository.Stores{}, nil, err
		}
		return repository.NewMySQLStores(db), func() { db.Close() }, nil
	}
}
