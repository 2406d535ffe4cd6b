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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/conversational-booking/internal/api"
	"github.com/hackgods/conversational-booking/internal/booking"
	"github.com/hackgods/conversational-booking/internal/config"
	"github.com/hackgods/conversational-booking/internal/db"
	"github.com/hackgods/conversational-booking/internal/dialogue"
	"github.com/hackgods/conversational-booking/internal/form"
	"github.com/hackgods/conversational-booking/internal/intent"
	"github.com/hackgods/conversational-booking/internal/llm"
	"github.com/hackgods/conversational-booking/internal/metrics"
	"github.com/hackgods/conversational-booking/internal/qa"
	redisclient "github.com/hackgods/conversational-booking/internal/redis"
	"github.com/hackgods/conversational-booking/pkg/logger"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	lg, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: logEnvironment(cfg.Env),
		File:        cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	lg.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("llm_provider", cfg.LLMProvider))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(rootCtx, cfg, lg); err != nil {
		lg.Fatal("api-server stopped with error", zap.Error(err))
	}
	lg.Info("api-server stopped")
}

func run(ctx context.Context, cfg config.Config, lg *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Postgres is optional: without it bookings only reach the journal and
	// documents live in memory.
	var (
		pgPool    *pgxpool.Pool
		documents qa.DocumentStore = qa.NewMemoryDocumentStore()
		bookOpts                   = []booking.Option{booking.WithMetrics(m), booking.WithLogger(lg)}
	)
	if cfg.PostgresEnabled() {
		if err := db.RunMigrations(cfg.PostgresDSN); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		pgCtx, cancelPg := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.DefaultPoolConfig())
		cancelPg()
		if err != nil {
			return fmt.Errorf("postgres connection: %w", err)
		}
		defer pool.Close()
		lg.Info("connected to Postgres")

		pgPool = pool
		documents = qa.NewPgDocumentStore(pool)
		bookOpts = append(bookOpts, booking.WithRepository(booking.NewPgRepository(pool)))
	}

	var (
		rdb       *redis.Client
		parkQueue dialogue.ParkQueue
		locker    dialogue.Locker = redisclient.NewLocalLocker(cfg.LockTTL)
		newForm                   = func() *form.Form { return form.New() }
		sessions  dialogue.SessionStore
	)
	if cfg.RedisEnabled() {
		client, err := redisclient.NewRedisClient(ctx, cfg.RedisOptions())
		if err != nil {
			return fmt.Errorf("redis connection: %w", err)
		}
		defer func() {
			if err := client.Close(); err != nil {
				lg.Warn("error closing redis", zap.Error(err))
			}
		}()
		lg.Info("connected to Redis")

		rdb = client
		sessions = dialogue.NewRedisStore(client, cfg.SessionTTL, newForm)
		locker = redisclient.NewRedisSessionLocker(client, cfg.LockTTL)
		parkQueue = booking.NewRedisQueue(client)
	} else {
		sessions = dialogue.NewMemoryStore(newForm)
	}

	client, closeLLM, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLLM()

	var classify intent.ClassifyFunc
	var engine qa.Engine
	if client != nil {
		classify = intent.FromLLM(client)
		engine = qa.NewLLMEngine(documents, client,
			qa.WithAskTimeout(cfg.QATimeout),
			qa.WithEngineMetrics(m),
			qa.WithEngineLogger(lg))
	} else {
		lg.Warn("no LLM provider configured, questions cannot be answered")
	}
	classifier := intent.New(classify,
		intent.WithTimeout(cfg.ClassifierTimeout),
		intent.WithMetrics(m),
		intent.WithLogger(lg))

	bookings := booking.NewService(booking.NewJournal(cfg.BookingLogPath), bookOpts...)

	orchOpts := []dialogue.Option{
		dialogue.WithFinalizePolicy(cfg.FinalizePolicy),
		dialogue.WithMetrics(m),
		dialogue.WithLogger(lg),
	}
	if engine != nil {
		orchOpts = append(orchOpts, dialogue.WithQA(engine))
	}
	if parkQueue != nil {
		orchOpts = append(orchOpts, dialogue.WithParkQueue(parkQueue))
	}
	orch := dialogue.NewOrchestrator(classifier, bookings, orchOpts...)
	svc := dialogue.NewService(sessions, locker, orch)

	limiter := api.NewSessionRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx, time.Minute)

	rc := api.RouterConfig{
		Sessions:       svc,
		Documents:      documents,
		Bookings:       bookings,
		RateLimiter:    limiter,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Logger:         lg,
		Env:            cfg.Env,
		Version:        version,
	}
	if pgPool != nil {
		rc.Postgres = pgPool
	}
	if rdb != nil {
		rc.Redis = api.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(rc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	lg.Info("shutting down api-server", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newLLMClient returns nil when the provider is "none".
func newLLMClient(ctx context.Context, cfg config.Config) (llm.Client, func(), error) {
	switch cfg.LLMProvider {
	case config.LLMProviderGemini:
		g, err := llm.NewGemini(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return g, func() { _ = g.Close() }, nil
	case config.LLMProviderBedrock:
		b, err := llm.NewBedrockFromRegion(ctx, cfg.AWSRegion, cfg.BedrockModelID)
		if err != nil {
			return nil, nil, err
		}
		return b, func() {}, nil
	}
	return nil, func() {}, nil
}

func logEnvironment(env string) string {
	if env == "dev" {
		return "development"
	}
	return env
}
