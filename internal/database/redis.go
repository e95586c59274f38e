package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blogium/blogium-api/internal/config"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client for REDIS_ADDR, or nil when Redis is not
// configured.
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("redis connected", "addr", cfg.RedisAddr)
	return client, nil
}
