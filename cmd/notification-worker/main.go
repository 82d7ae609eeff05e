package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/blood-donation-coordination/internal/config"
	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/geo"
	"github.com/hackgods/blood-donation-coordination/internal/logger"
	"github.com/hackgods/blood-donation-coordination/internal/notification"
	redisclient "github.com/hackgods/blood-donation-coordination/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat, "notification-worker")
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	consumer := cfg.WorkerName
	if consumer == "" {
		consumer, _ = os.Hostname()
	}
	if consumer == "" {
		consumer = "notification-worker"
	}

	zl.Info("notification worker starting up",
		zap.String("env", cfg.Env),
		zap.String("consumer", consumer),
		zap.Int("parallel", cfg.DispatchParallel),
	)

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

	senders, err := notification.NewSenders(cfg, zl)
	if err != nil {
		zl.Fatal("notification senders", zap.Error(err))
	}

	dispatcher := notification.NewDispatcher(
		notification.NewPgRepository(),
		pgPool,
		geo.NewStore(pgPool),
		senders,
		redisclient.NewRedisNeedLocker(rdb, cfg.DispatchLockTTL),
		notification.Policy{
			CriticalRadiusKm: cfg.CriticalRadiusKm,
			UrgentRadiusKm:   cfg.UrgentRadiusKm,
			DonationInterval: cfg.DonationInterval(),
			Parallel:         cfg.DispatchParallel,
		},
		zl,
	)

	stream := redisclient.NewNeedStream(rdb, cfg.NeedStream, cfg.NeedStreamGroup, zl)
	if err := stream.Consume(rootCtx, consumer, dispatcher.Dispatch); err != nil {
		zl.Fatal("need stream consumer stopped", zap.Error(err))
	}

	zl.Info("shutdown signal received, notification worker stopped")
}
