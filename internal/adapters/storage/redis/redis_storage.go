// Package redis provides a rate limit store shared by every instance that
// points at the same Redis database.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
	"github.com/anvkup/avnmusicstudio/internal/core/ports"
)

const keyPattern = "ratelimit:*"

// admitScript keeps one sorted set per key, scored by admission time in
// milliseconds. Running it as a script makes prune, count and add atomic.
var admitScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])
local count = redis.call('ZCARD', key)
if count >= limit then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  return {0, oldest[2]}
end

redis.call('ZADD', key, ARGV[1], ARGV[4])
redis.call('PEXPIRE', key, ARGV[5])
return {1, '0'}
`)

type Storage struct {
	client *redis.Client
}

var _ ports.RateLimitStore = (*Storage)(nil)

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) (*Storage, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Storage{client: client}, nil
}

// NewWithClient wraps an existing client without pinging it.
func NewWithClient(client *redis.Client) *Storage {
	return &Storage{client: client}
}

func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) Admit(ctx context.Context, key string, policy domain.ActionPolicy, now time.Time) (bool, time.Time, error) {
	res, err := admitScript.Run(ctx, s.client, []string{key},
		now.UnixMilli(),
		now.Add(-policy.Window).UnixMilli(),
		policy.Limit,
		uuid.NewString(),
		policy.Window.Milliseconds(),
	).Slice()
	if err != nil {
		return false, time.Time{}, fmt.Errorf("failed to admit key %v: %w", key, err)
	}
	if len(res) != 2 {
		return false, time.Time{}, fmt.Errorf("unexpected admit reply for key %v: %v", key, res)
	}

	admitted, _ := res[0].(int64)
	if admitted == 1 {
		return true, time.Time{}, nil
	}

	oldestMs, err := parseScore(res[1])
	if err != nil {
		return false, time.Time{}, fmt.Errorf("failed to parse oldest score for key %v: %w", key, err)
	}
	return false, time.UnixMilli(oldestMs), nil
}

func (s *Storage) Sweep(ctx context.Context, maxWindow time.Duration, now time.Time) (int, error) {
	cutoff := strconv.FormatInt(now.Add(-maxWindow).UnixMilli(), 10)
	removed := 0

	iter := s.client.Scan(ctx, 0, keyPattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		pipe := s.client.Pipeline()
		pipe.ZRemRangeByScore(ctx, key, "-inf", cutoff)
		card := pipe.ZCard(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, fmt.Errorf("failed to prune key %v: %w", key, err)
		}

		if card.Val() == 0 {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				return removed, fmt.Errorf("failed to delete key %v: %w", key, err)
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan rate limit keys: %w", err)
	}

	return removed, nil
}

func parseScore(v any) (int64, error) {
	switch score := v.(type) {
	case int64:
		return score, nil
	case string:
		f, err := strconv.ParseFloat(score, 64)
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	default:
		return 0, fmt.Errorf("unsupported score type %T", v)
	}
}
