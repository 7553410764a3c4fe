package database

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicdesk/admin-console/pkg/common/config"
	"github.com/clinicdesk/admin-console/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

// NewRedis connects to the Redis instance described by cfg and verifies it
// answers a ping.
func NewRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     RedisAddr(cfg),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", RedisAddr(cfg), err)
	}
	logger.Log.WithField("addr", RedisAddr(cfg)).Info("Connected to Redis")
	return client, nil
}

func RedisAddr(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)
}
