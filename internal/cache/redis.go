package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/namerush/namerush-backend/internal/engine"
)

// RedisStore is the authoritative snapshot store. It alone supports
// reconnection across process restarts.
type RedisStore struct {
	cli *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewRedisStore(cli *redis.Client, ttl time.Duration, log *zap.Logger) *RedisStore {
	return &RedisStore{cli: cli, ttl: ttl, log: log}
}

func (r *RedisStore) Get(ctx context.Context, id string) (engine.State, error) {
	data, err := r.cli.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return engine.State{}, ErrNotFound
	}
	if err != nil {
		// One retry for transient network errors.
		if data, err = r.cli.Get(ctx, keyPrefix+id).Bytes(); err != nil {
			if errors.Is(err, redis.Nil) {
				return engine.State{}, ErrNotFound
			}
			return engine.State{}, fmt.Errorf("redis get %s: %w", id, err)
		}
	}

	var s engine.State
	if err := json.Unmarshal(data, &s); err != nil {
		return engine.State{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return s, nil
}

func (r *RedisStore) Put(ctx context.Context, id string, s engine.State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", id, err)
	}
	if err := r.cli.Set(ctx, keyPrefix+id, data, r.ttl).Err(); err != nil {
		if err = r.cli.Set(ctx, keyPrefix+id, data, r.ttl).Err(); err != nil {
			return fmt.Errorf("redis set %s: %w", id, err)
		}
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.cli.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", id, err)
	}
	return nil
}

// ListIDs scans for every stored lobby id.
func (r *RedisStore) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := r.cli.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return ids, nil
}
