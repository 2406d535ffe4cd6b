package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hackgods/conversational-booking/internal/form"
	redisclient "github.com/hackgods/conversational-booking/internal/redis"
	"github.com/joho/godotenv"
)

const (
	LLMProviderGemini  = "gemini"
	LLMProviderBedrock = "bedrock"
	LLMProviderNone    = "none"
)

type Config struct {
	Env      string // dev, prod
	HTTPPort string // default 8080
	LogLevel string // debug, info, warn, error
	LogFile  string // optional rotated log file

	PostgresDSN   string // optional; enables the booking mirror and document store
	RedisAddr     string // host:port, empty disables Redis
	RedisUsername string
	RedisPassword string
	RedisDB       int

	LLMProvider    string // gemini, bedrock, none
	GoogleAPIKey   string
	GeminiModel    string
	AWSRegion      string
	BedrockModelID string

	ClassifierTimeout time.Duration
	QATimeout         time.Duration

	BookingLogPath string
	FinalizePolicy form.FinalizePolicy

	SessionTTL      time.Duration // how long an idle session is kept in Redis
	LockTTL         time.Duration // how long a session lock lives
	ShutdownTimeout time.Duration // graceful shutdown timeout
	WorkerInterval  time.Duration // how often the replay worker drains parked bookings

	RateLimitRPS   float64 // messages per second per session, 0 disables
	RateLimitBurst int
}

// RedisOptions returns the connection settings for redisclient.NewRedisClient.
func (c Config) RedisOptions() redisclient.Options {
	return redisclient.Options{Addr: c.RedisAddr, Username: c.RedisUsername, Password: c.RedisPassword, DB: c.RedisDB}
}

// RedisEnabled reports whether a Redis address was configured.
func (c Config) RedisEnabled() bool { return c.RedisAddr != "" }

func (c Config) PostgresEnabled() bool { return c.PostgresDSN != "" }

func Load() (Config, error) {
	_ = godotenv.Load()

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := Config{
		Env:            getEnv("APP_ENV", "dev"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:        os.Getenv("LOG_FILE"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", LLMProviderGemini)),
		GoogleAPIKey:   os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0"),
		BookingLogPath: getEnv("BOOKING_LOG_PATH", "appointments/bookings.jsonl"),
	}

	var err error
	cfg.ClassifierTimeout, err = getDuration("CLASSIFIER_TIMEOUT", 5*time.Second)
	collect(err)
	cfg.QATimeout, err = getDuration("QA_TIMEOUT", 30*time.Second)
	collect(err)
	cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour)
	collect(err)
	cfg.LockTTL, err = getDuration("LOCK_TTL", 30*time.Second)
	collect(err)
	cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	collect(err)
	cfg.WorkerInterval, err = getDuration("WORKER_INTERVAL", time.Minute)
	collect(err)
	cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 2)
	collect(err)
	cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 5)
	collect(err)

	cfg.FinalizePolicy, err = form.ParseFinalizePolicy(os.Getenv("FORM_FINALIZE_POLICY"))
	collect(err)

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		collect(fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel))
	}

	switch cfg.LLMProvider {
	case LLMProviderGemini:
		if cfg.GoogleAPIKey == "" {
			collect(errors.New("GOOGLE_API_KEY is required when LLM_PROVIDER=gemini"))
		}
	case LLMProviderBedrock, LLMProviderNone:
	default:
		collect(fmt.Errorf("invalid LLM_PROVIDER %q", cfg.LLMProvider))
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redisclient.OptionsFromURL(redisURL)
		if err != nil {
			collect(fmt.Errorf("invalid REDIS_URL: %w", err))
		}
		cfg.RedisAddr = opts.Addr
		cfg.RedisUsername = opts.Username
		cfg.RedisPassword = opts.Password
		cfg.RedisDB = opts.DB
	} else {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
		cfg.RedisUsername = os.Getenv("REDIS_USERNAME")
		cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration accepts plain seconds ("30") or a Go duration ("1m30s").
func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid duration for %s=%q", key, v)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid integer for %s=%q", key, v)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid number for %s=%q", key, v)
	}
	return f, nil
}
