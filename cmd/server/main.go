package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/openfrag/stattrack/internal/cache"
	"github.com/openfrag/stattrack/internal/config"
	"github.com/openfrag/stattrack/internal/database"
	"github.com/openfrag/stattrack/internal/metrics"
	"github.com/openfrag/stattrack/internal/migrations"
	"github.com/openfrag/stattrack/internal/rounds"
	"github.com/openfrag/stattrack/internal/server"
	"github.com/openfrag/stattrack/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	if err := os.MkdirAll(cfg.DBDir, 0o755); err != nil {
		return fmt.Errorf("creating db dir: %w", err)
	}
	dbPath := filepath.Join(cfg.DBDir, "stattrack.db")

	db, err := database.Open(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", dbPath)

	// --- Redis (optional) ---
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")
	} else {
		logger.Info("redis not configured, caching disabled")
	}

	// --- Telemetry store and round inference ---
	st := store.New(db)
	if cfg.SeedDemo {
		if err := st.SeedDemo(ctx, logger, time.Now()); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
	}

	var opts []rounds.Option
	if strategy := rounds.Strategy(cfg.RoundStrategy); strategy.Valid() {
		opts = append(opts, rounds.WithStrategy(strategy))
	} else {
		logger.Warn("unknown round strategy, using gap detection", "strategy", cfg.RoundStrategy)
	}
	svc := rounds.NewService(st, opts...)

	m := metrics.New()
	c := cache.New(rdb, cfg.CacheTTL, logger)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, db, rdb, st, svc, c, m)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
