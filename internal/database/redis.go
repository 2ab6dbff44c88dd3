package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/knighthoot/backend/internal/config"
)

// ConnectRedis dials cfg.RedisURL and verifies the connection with a ping.
// Redis carries login sessions, reset OTPs, the student payload cache and the
// outbound mail queue, so the server refuses to start without it.
func ConnectRedis(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().Str("addr", opt.Addr).Msg("redis ready")
	return rdb, nil
}
