// Package ratelimit implements fixed-window request limiting backed by Redis
// or Postgres. Both backends fail open.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/restaurant-management/pkg/config"
	"github.com/diagnosis/restaurant-management/pkg/logger"
)

type Limiter interface {
	// Allow records a hit for key and reports whether it is within limit.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// New picks the configured backend. A nil Limiter means limiting is disabled.
func New(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (Limiter, func(), error) {
	if !cfg.RateLimit.Enabled {
		return nil, func() {}, nil
	}

	switch cfg.RateLimit.Backend {
	case "postgres":
		return NewPostgresLimiter(pool), func() {}, nil
	case "redis", "":
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		if cfg.Redis.Password != "" {
			opts.Password = cfg.Redis.Password
		}
		opts.DB = cfg.Redis.DB
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, rate limiter will fail open", "error", err)
		}
		return NewRedisLimiter(client), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown rate limit backend %q", cfg.RateLimit.Backend)
	}
}

// ErrInvalidWindow is returned for a non-positive window; callers fail open.
var ErrInvalidWindow = errors.New("ratelimit: window must be positive")

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", sum)
}

type RedisLimiter struct {
	client redis.UniversalClient
}

func NewRedisLimiter(client redis.UniversalClient) *RedisLimiter {
	return &RedisLimiter{client: client}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, ErrInvalidWindow
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	bucket := time.Now().UnixNano() / int64(window)
	redisKey := fmt.Sprintf("ratelimit:%s:%d", hashKey(key), bucket)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, window)
		return nil
	})
	if err != nil {
		return true, err
	}

	return incr.Val() <= int64(limit), nil
}

type PostgresLimiter struct {
	pool *pgxpool.Pool
}

func NewPostgresLimiter(pool *pgxpool.Pool) *PostgresLimiter {
	return &PostgresLimiter{pool: pool}
}

func (l *PostgresLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, ErrInvalidWindow
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	now := time.Now()
	windowStart := now.Add(-window)

	const q = `
		INSERT INTO rate_limits (rl_key, count, window_start, expires_at)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (rl_key) DO UPDATE SET
			count = CASE
				WHEN rate_limits.window_start < $4 THEN 1
				ELSE rate_limits.count + 1
			END,
			window_start = CASE
				WHEN rate_limits.window_start < $4 THEN $2
				ELSE rate_limits.window_start
			END,
			expires_at = $3
		RETURNING count`

	var count int
	err := l.pool.QueryRow(ctx, q, hashKey(key), now, now.Add(window), windowStart).Scan(&count)
	if err != nil {
		return true, err
	}

	return count <= limit, nil
}
