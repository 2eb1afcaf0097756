package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/mone/internal/cache"
	"github.com/iliyamo/mone/internal/config"
	"github.com/iliyamo/mone/internal/database"
	"github.com/iliyamo/mone/internal/handler"
	"github.com/iliyamo/mone/internal/memstore"
	"github.com/iliyamo/mone/internal/metrics"
	"github.com/iliyamo/mone/internal/middleware"
	"github.com/iliyamo/mone/internal/observability"
	"github.com/iliyamo/mone/internal/queue"
	"github.com/iliyamo/mone/internal/repository"
	"github.com/iliyamo/mone/internal/router"
	"github.com/iliyamo/mone/internal/service"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		observability.InitLogger("mone", true)
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	observability.InitLogger("mone", cfg.Development())
	logger := *observability.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, db := openStore(ctx, cfg)
	if db != nil {
		defer db.Close()
	}

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		logger.Warn().Msg("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()
	gen := cache.NewGeneration(rdb, cacheCfg.Prefix)

	svc := service.New(store, cfg.Variant)
	svc.Log = logger.With().Str("component", "coordinator").Logger()
	svc.StaffPasscodeHash = cfg.StaffPasscodeHash
	if rdb != nil {
		svc.Cache = gen
	}
	if cfg.EventsEnabled {
		svc.Events = queue.NewPublisher(cfg.BrokerURL)
		go func() {
			if err := queue.StartEventConsumer(ctx, cfg.BrokerURL, cfg.EventsLogDir); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("event consumer stopped")
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(metrics.Middleware())
	e.Use(observability.RequestLogger(logger, "/healthz", "/metrics"))

	router.RegisterRoutes(e, router.Deps{
		Auth:          handler.NewAuthHandler(svc, cfg.JWTSecret, cfg.AccessTTLMin),
		Requests:      handler.NewRequestHandler(svc),
		Views:         handler.NewViewHandler(svc),
		Notifications: handler.NewNotificationHandler(svc),
		Admin:         handler.NewAdminHandler(svc),
		JWTSecret:     cfg.JWTSecret,
		RateLimit:     middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:         middleware.NewRedisCache(cacheCfg, rdb, gen),
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info().
			Str("addr", addr).
			Str("env", cfg.Env).
			Str("variant", cfg.Variant.String()).
			Str("store", cfg.StoreDriver).
			Bool("events", cfg.EventsEnabled).
			Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}

// openStore returns the configured store. db is nil for the memory driver.
func openStore(ctx context.Context, cfg config.Config) (service.Store, *sql.DB) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return memstore.New(), nil
	}
	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("schema migration failed")
		}
		log.Info().Msg("schema applied")
	}
	return repository.NewStore(db), db
}
