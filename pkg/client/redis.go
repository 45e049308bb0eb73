package client

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"agenda/pkg/logger"
)

// SetRedis connects and pings Redis. Unlike Mongo, Redis is optional: a failed
// ping is logged and the client is left unset so callers fall back to
// in-process stores.
func (c *Client) SetRedis(log *logger.Logger, addr, password string, db int, timeout time.Duration) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to ping Redis, continuing without it", "addr", addr, "error", err)
		_ = rdb.Close()
		return
	}

	log.Info("Successfully connected to Redis", "addr", addr, "db", db)
	c.Redis = rdb
}
