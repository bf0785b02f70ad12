// Package statscache keeps aggregated survey statistics in Redis.
package statscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mbolis/survey-portal/model"
)

const keyPrefix = "survey:stats:"

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Open connects to the Redis server at url (redis://host:port/db).
func Open(ctx context.Context, url string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, ttl), nil
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func key(surveyID int) string {
	return fmt.Sprintf("%s%d", keyPrefix, surveyID)
}

func (c *Cache) Get(ctx context.Context, surveyID int) (stats model.Stats, ok bool, err error) {
	b, err := c.client.Get(ctx, key(surveyID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return stats, false, nil
	}
	if err != nil {
		return stats, false, err
	}
	if err = json.Unmarshal(b, &stats); err != nil {
		return stats, false, fmt.Errorf("decode cached stats: %w", err)
	}
	return stats, true, nil
}

func (c *Cache) Set(ctx context.Context, surveyID int, stats model.Stats) error {
	b, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(surveyID), b, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, surveyID int) error {
	return c.client.Del(ctx, key(surveyID)).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
