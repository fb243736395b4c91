package gtfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces the keys written by RedisStore.
const DefaultRedisPrefix = "gtfs:"

// RedisStore is a Store holding JSON encoded entities under
// <prefix>route:<id>, <prefix>stop:<id> and <prefix>trip:<id>. The ids of each
// kind are tracked in the set <prefix><kind>s so a new import can drop stale keys.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// OpenRedis connects to addr and checks the connection.
func OpenRedis(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return NewRedisStore(rdb, DefaultRedisPrefix), nil
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) key(kind, id string) string { return s.prefix + kind + ":" + id }

func (s *RedisStore) setKey(kind string) string { return s.prefix + kind + "s" }

func (s *RedisStore) get(ctx context.Context, kind, id string, v any) error {
	data, err := s.rdb.Get(ctx, s.key(kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return notFound(kind, id)
	}
	if err != nil {
		return fmt.Errorf("failed to get %s %q from redis: %w", kind, id, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s %q: %w", kind, id, err)
	}
	return nil
}

func (s *RedisStore) Route(ctx context.Context, id string) (Route, error) {
	var r Route
	err := s.get(ctx, "route", id, &r)
	return r, err
}

func (s *RedisStore) Stop(ctx context.Context, id string) (Stop, error) {
	var st Stop
	err := s.get(ctx, "stop", id, &st)
	return st, err
}

func (s *RedisStore) Trip(ctx context.Context, id string) (Trip, error) {
	var t Trip
	err := s.get(ctx, "trip", id, &t)
	return t, err
}

// Import replaces the routes, stops and trips held in redis with those of idx.
func (s *RedisStore) Import(ctx context.Context, idx *Index) error {
	if err := importKind(ctx, s, "route", idx.Routes); err != nil {
		return err
	}
	if err := importKind(ctx, s, "stop", idx.Stops); err != nil {
		return err
	}
	if err := importKind(ctx, s, "trip", idx.Trips); err != nil {
		return err
	}
	stats := idx.Stats()
	slog.Info("imported static dataset into Redis", "routes", stats.Routes, "stops", stats.Stops, "trips", stats.Trips)
	return nil
}

func importKind[V any](ctx context.Context, s *RedisStore, kind string, entities map[string]V) error {
	old, err := s.rdb.SMembers(ctx, s.setKey(kind)).Result()
	if err != nil {
		return fmt.Errorf("failed to list %s keys: %w", kind, err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range old {
			pipe.Del(ctx, s.key(kind, id))
		}
		pipe.Del(ctx, s.setKey(kind))
		for _, id := range sortedKeys(entities) {
			data, err := json.Marshal(entities[id])
			if err != nil {
				return fmt.Errorf("failed to encode %s %q: %w", kind, id, err)
			}
			pipe.Set(ctx, s.key(kind, id), data, 0)
			pipe.SAdd(ctx, s.setKey(kind), id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to import %ss: %w", kind, err)
	}
	return nil
}
