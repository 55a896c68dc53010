package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/config"
)

// Client redis wrapper: token blacklist, rate limiting and the shared
// double-time holiday cache
type Client struct {
	rdb    goredis.UniversalClient
	logger *zap.Logger
}

// NewClient connects and pings
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// Wrap an existing go-redis client (tests, miniredis, cluster clients)
func Wrap(rdb goredis.UniversalClient, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// ── Token blacklist ──

const blacklistPrefix = "attend:token:blacklist:"

// BlacklistToken stores the JWT id until the token would have expired anyway
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted reports whether the JWT id was revoked
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── Rate limiting ──

// CheckRateLimit sliding-window limiter on a sorted set. Returns false once
// limit requests were seen within window.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	min := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", min)
	count := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return count.Val() < int64(limit), nil
}

// ── Shared holiday cache ──

const holidayKey = "attend:calendar:holidays"

// GetHolidayDates cached holiday dates (YYYY-MM-DD); ok is false on a miss
func (c *Client) GetHolidayDates(ctx context.Context) ([]string, bool, error) {
	raw, err := c.rdb.Get(ctx, holidayKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var dates []string
	if err := json.Unmarshal(raw, &dates); err != nil {
		c.logger.Warn("corrupt holiday cache entry, ignoring", zap.Error(err))
		return nil, false, nil
	}
	return dates, true, nil
}

// SetHolidayDates publishes the holiday list for ttl
func (c *Client) SetHolidayDates(ctx context.Context, dates []string, ttl time.Duration) error {
	if dates == nil {
		dates = []string{}
	}
	raw, err := json.Marshal(dates)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, holidayKey, raw, ttl).Err()
}

// DeleteHolidayDates drops the shared entry
func (c *Client) DeleteHolidayDates(ctx context.Context) error {
	return c.rdb.Del(ctx, holidayKey).Err()
}

// Close closes the connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
