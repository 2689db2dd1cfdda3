package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	timingsPrefix = "salah:timings:"
	SettingsKey   = "namaz_settings"
)

// NewClient connects to redis and verifies the connection with PING.
func NewClient(ctx context.Context, address, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", address, err)
	}
	log.Info().Str("address", address).Msg("connected to redis")
	return rdb, nil
}

// TimingsCache stores raw prayer-timings bodies with a redis TTL.
type TimingsCache struct {
	rdb *redis.Client
}

func NewTimingsCache(rdb *redis.Client) *TimingsCache {
	return &TimingsCache{rdb: rdb}
}

func (c *TimingsCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := c.rdb.Get(ctx, timingsPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (c *TimingsCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, timingsPrefix+key, body, ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to add timings to redis")
		return err
	}
	return nil
}

// SettingsBackend keeps the settings document under a fixed key.
type SettingsBackend struct {
	rdb *redis.Client
	key string
}

func NewSettingsBackend(rdb *redis.Client) *SettingsBackend {
	return &SettingsBackend{rdb: rdb, key: SettingsKey}
}

// Load returns nil when nothing has been saved yet.
func (b *SettingsBackend) Load(ctx context.Context) ([]byte, error) {
	data, err := b.rdb.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

func (b *SettingsBackend) Save(ctx context.Context, data []byte) error {
	return b.rdb.Set(ctx, b.key, data, 0).Err()
}
