// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package kvstore

import (
	stdctx "context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces all Folio documents inside a shared Redis instance.
const keyPrefix = "folio:"

// Opiniated default timeouts for Redis operations.
const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

// RedisStore is a [Store] backed by a shared Redis instance.
//
// Documents never expire: reading state survives across sessions, exactly
// like the file backend.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore parses a Redis URL, validates connectivity, and returns a
// ready-to-use store.
//
// # Parameters
//   - context: Context for the initial ping.
//   - redisURL: Redis connection URL.
//   - logger: Structured logger for connection events.
func NewRedisStore(context stdctx.Context, redisURL string, logger *slog.Logger) (*RedisStore, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("kvstore: invalid redis URL: %w", err)
	}

	// Pool configuration Tuning
	options.PoolSize = 10
	options.MinIdleConns = 2
	options.MaxIdleConns = 5

	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	// Validate connectivity immediately at startup.
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("kvstore: redis ping failed: %w", err)
	}

	logger.Info("redis store connected",
		slog.String("addr", options.Addr),
		slog.Int("pool_size", options.PoolSize),
	)

	return &RedisStore{client: client}, nil
}

// Get implements [Store].
func (store *RedisStore) Get(ctx stdctx.Context, key string, out any) error {
	raw, err := store.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound(key)
		}
		return fmt.Errorf("kvstore: redis get %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("kvstore: decode %q: %w", key, err)
	}
	return nil
}

// Set implements [Store].
func (store *RedisStore) Set(ctx stdctx.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kvstore: encode %q: %w", key, err)
	}

	if err := store.client.Set(ctx, keyPrefix+key, raw, 0).Err(); err != nil {
		return fmt.Errorf("kvstore: redis set %q: %w", key, err)
	}
	return nil
}

// Delete implements [Store].
func (store *RedisStore) Delete(ctx stdctx.Context, key string) error {
	if err := store.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("kvstore: redis delete %q: %w", key, err)
	}
	return nil
}

// Close implements [Store].
func (store *RedisStore) Close() error {
	return store.client.Close()
}
