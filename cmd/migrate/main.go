package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/blood-donation-coordination/internal/config"
	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/logger"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: migrate <up|down|status|version|reset|up-to VERSION|down-to VERSION>\n")
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, "console", "migrate")
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, 2)
	if err != nil {
		zl.Fatal("postgres connection error", zap.Error(err))
	}
	defer pool.Close()

	command := flag.Arg(0)
	if err := db.Migrate(ctx, pool, zl, command, flag.Args()[1:]...); err != nil {
		zl.Fatal("migration failed", zap.String("command", command), zap.Error(err))
	}
	zl.Info("migration complete", zap.String("command", command))
}
