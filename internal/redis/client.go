package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Options struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// OptionsFromURL parses a redis:// or rediss:// URL.
func OptionsFromURL(raw string) (Options, error) {
	opt, err := redis.ParseURL(raw)
	if err != nil {
		return Options{}, fmt.Errorf("parse redis url: %w", err)
	}
	return Options{Addr: opt.Addr, Username: opt.Username, Password: opt.Password, DB: opt.DB}, nil
}

func NewRedisClient(ctx context.Context, o Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         o.Addr,
		Username:     o.Username,
		Password:     o.Password,
		DB:           o.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}
