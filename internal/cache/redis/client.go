package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/artikelservice/backend/internal/metrics"
	"github.com/artikelservice/backend/pkg/logger"
)

// Client is an optional shared cache for facade answers. The service runs
// fine without it; every method degrades to a miss on connection trouble.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetWordData(ctx context.Context, word string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal word data: %w", err)
	}

	err = c.client.Set(ctx, wordKey(word), payload, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache word data: %w", err)
	}

	logger.Debug("Word data cached", zap.String("word", word))
	return nil
}

func (c *Client) GetWordData(ctx context.Context, word string, out interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, wordKey(word)).Bytes()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read word cache: %w", err)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal word data: %w", err)
	}

	metrics.CacheHits.WithLabelValues("redis").Inc()
	return true, nil
}

// InvalidateWord drops the cached answer for one word. Called after a user
// correction changes what the facade would answer.
func (c *Client) InvalidateWord(ctx context.Context, word string) error {
	if err := c.client.Del(ctx, wordKey(word)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate word cache: %w", err)
	}
	return nil
}

func wordKey(word string) string {
	return fmt.Sprintf("word:%s", word)
}
