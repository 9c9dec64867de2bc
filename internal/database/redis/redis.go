package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"game-service/internal/config"

	"github.com/redis/go-redis/v9"
)

func options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Client holds the connection used for player locks.
type Client struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client and pings it.
func NewRedisClient(cfg config.RedisConfig) (*Client, error) {
	c := &Client{client: redis.NewClient(options(cfg))}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		c.client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return c, nil
}

// Raw exposes the go-redis client for the player locker.
func (c *Client) Raw() *redis.Client {
	return c.client
}

// Ping backs the /health redis check.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}
