// Package redis caches embedding vectors so re-ingested or repeated
// text skips the embedding model.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/docchat/backend/pkg/config"
)

const keyPrefix = "docchat:embedding:"

type Client struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewClient(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis embedding cache initialized", zap.String("addr", cfg.Addr))
	return &Client{
		client: rdb,
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
		logger: logger,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Get(ctx context.Context, key string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var values []float32
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, false, err
	}
	return values, true, nil
}

func (c *Client) Set(ctx context.Context, key string, values []float32) error {
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err()
}
