package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const parkedKeyPrefix = "tillpoint:parked:"

type RedisParkedSales struct {
	client *redis.Client
}

func NewRedisParkedSales(addr string, password string, db int) *RedisParkedSales {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisParkedSales{client: client}
}

func (c *RedisParkedSales) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisParkedSales) Close() error {
	return c.client.Close()
}

func (c *RedisParkedSales) Park(ctx context.Context, parkID string, itemBlob string, ttl time.Duration) error {
	return c.client.Set(ctx, parkedKeyPrefix+parkID, itemBlob, ttl).Err()
}

func (c *RedisParkedSales) Take(ctx context.Context, parkID string) (string, bool, error) {
	val, err := c.client.GetDel(ctx, parkedKeyPrefix+parkID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
