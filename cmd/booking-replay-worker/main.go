package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/conversational-booking/internal/booking"
	"github.com/hackgods/conversational-booking/internal/config"
	"github.com/hackgods/conversational-booking/internal/db"
	redisclient "github.com/hackgods/conversational-booking/internal/redis"
	"github.com/hackgods/conversational-booking/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	env := cfg.Env
	if env == "dev" {
		env = "development"
	}
	lg, err := logger.New(logger.Config{Level: cfg.LogLevel, Environment: env, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if !cfg.RedisEnabled() {
		lg.Fatal("booking-replay-worker needs Redis; set REDIS_URL or REDIS_ADDR")
	}

	lg.Info("booking-replay-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []booking.Option{booking.WithLogger(lg)}
	if cfg.PostgresEnabled() {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.DefaultPoolConfig())
		cancelPg()
		if err != nil {
			lg.Fatal("postgres connection error", zap.Error(err))
		}
		defer pgPool.Close()
		lg.Info("connected to Postgres")
		opts = append(opts, booking.WithRepository(booking.NewPgRepository(pgPool)))
	}

	rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisOptions())
	if err != nil {
		lg.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			lg.Warn("error closing redis", zap.Error(err))
		}
	}()
	lg.Info("connected to Redis")

	queue := booking.NewRedisQueue(rdb)
	svc := booking.NewService(booking.NewJournal(cfg.BookingLogPath), opts...)

	// Run once at startup
	runOnce(rootCtx, queue, svc, lg)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			lg.Info("shutdown signal received, stopping replay worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, queue, svc, lg)
		}
	}
}

func runOnce(ctx context.Context, q booking.Queue, svc *booking.Service, lg *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	n, err := booking.Drain(runCtx, q, svc, lg)
	if err != nil {
		lg.Error("replay run error", zap.Int("replayed", n), zap.Error(err))
		return
	}
	pending, _ := q.Len(runCtx)
	lg.Info("replay run complete",
		zap.Int("replayed", n),
		zap.Int64("pending", pending),
		zap.Duration("took", time.Since(start)))
}
