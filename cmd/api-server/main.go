package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/blood-donation-coordination/internal/api"
	"github.com/hackgods/blood-donation-coordination/internal/appointment"
	"github.com/hackgods/blood-donation-coordination/internal/config"
	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/donation"
	"github.com/hackgods/blood-donation-coordination/internal/geo"
	"github.com/hackgods/blood-donation-coordination/internal/inventory"
	"github.com/hackgods/blood-donation-coordination/internal/logger"
	"github.com/hackgods/blood-donation-coordination/internal/need"
	"github.com/hackgods/blood-donation-coordination/internal/profile"
	redisclient "github.com/hackgods/blood-donation-coordination/internal/redis"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat, "api-server")
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	zl.Info("api-server starting up", zap.String("env", cfg.Env), zap.String("http_port", cfg.HTTPPort), zap.String("version", version))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.DBMaxConns)
	cancelPg()
	if err != nil {
		zl.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	zl.Info("connected to Postgres")

	if cfg.RunMigrations {
		if err := db.Migrate(rootCtx, pgPool, zl, "up"); err != nil {
			zl.Fatal("migrations failed", zap.Error(err))
		}
	}

	rdb, err := redisclient.NewRedisClient(rootCtx, cfg)
	if err != nil {
		zl.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			zl.Warn("error closing redis", zap.Error(err))
		}
	}()
	zl.Info("connected to Redis")

	tx := db.NewTxRunner(pgPool, cfg.AcquireTimeout, zl)
	locations := geo.NewStore(pgPool)
	stream := redisclient.NewNeedStream(rdb, cfg.NeedStream, cfg.NeedStreamGroup, zl)

	needRepo := need.NewPgRepository()
	apptRepo := appointment.NewPgRepository()
	stockRepo := inventory.NewPgRepository()

	router := api.NewRouter(api.RouterConfig{
		Needs:        need.NewService(needRepo, pgPool, tx, locations, stream, zl),
		Appointments: appointment.NewService(apptRepo, pgPool, tx, zl),
		Donations:    donation.NewRecorder(donation.NewPgRepository(), apptRepo, needRepo, stockRepo, pgPool, tx, zl),
		Inventory:    inventory.NewService(stockRepo, pgPool, tx, zl),
		Profiles:     profile.NewService(profile.NewPgRepository(), pgPool, tx, zl),
		Health:       api.NewHealthHandler(pgPool, rdb, cfg.Env, version),
		JWTSecret:    cfg.JWTSecret,
		Log:          zl,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-rootCtx.Done():
		zl.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			zl.Error("http server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}

	zl.Info("api-server stopped")
}
