// Package kv is the Redis-backed key-value store used when the service runs
// in its standalone (no relational database) mode. Each record is a JSON
// document at "<prefix>:<collection>:<id>" and every collection keeps a set
// of its member ids at "<prefix>:<collection>".
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
)

// ErrMiss is returned when a key does not exist.
var ErrMiss = errors.New("kv: key not found")

type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates and pings a Redis client.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

type Store struct {
	client *redis.Client
	prefix string
}

func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: strings.TrimSuffix(prefix, ":")}
}

// Key joins parts under the store prefix.
func (s *Store) Key(parts ...string) string {
	if s.prefix == "" {
		return strings.Join(parts, ":")
	}
	return s.prefix + ":" + strings.Join(parts, ":")
}

// Put writes v as JSON and registers id in the collection set.
func (s *Store) Put(ctx context.Context, collection, id string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.Key(collection, id), data, 0)
	pipe.SAdd(ctx, s.Key(collection), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}

// Get decodes the record into v, returning ErrMiss when it is absent.
func (s *Store) Get(ctx context.Context, collection, id string, v interface{}) error {
	data, err := s.client.Get(ctx, s.Key(collection, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return nil
}

// Exists reports whether the record is present.
func (s *Store) Exists(ctx context.Context, collection, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.Key(collection, id)).Result()
	if err != nil {
		return false, fmt.Errorf("exists %s/%s: %w", collection, id, err)
	}
	return n > 0, nil
}

// Delete removes the record and its set membership. It reports whether the
// record existed.
func (s *Store) Delete(ctx context.Context, collection, id string) (bool, error) {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.Key(collection, id))
	pipe.SRem(ctx, s.Key(collection), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return del.Val() > 0, nil
}

// Count returns the number of ids registered in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	n, err := s.client.SCard(ctx, s.Key(collection)).Result()
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return int(n), nil
}

// raw returns the JSON documents of every member of the collection. Ids
// whose document has vanished are dropped from the set.
func (s *Store) raw(ctx context.Context, collection string) ([][]byte, error) {
	ids, err := s.client.SMembers(ctx, s.Key(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.Key(collection, id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}

	out := make([][]byte, 0, len(vals))
	var stale []interface{}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		out = append(out, []byte(str))
	}
	if len(stale) > 0 {
		s.client.SRem(ctx, s.Key(collection), stale...)
	}
	return out, nil
}

// List decodes every record of a collection. Order is unspecified; callers
// sort.
func List[T any](ctx context.Context, s *Store, collection string) ([]*T, error) {
	docs, err := s.raw(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := json.Unmarshal(doc, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		out = append(out, &v)
	}
	return out, nil
}

// MarkInitialized sets the first-run marker. It returns true only for the
// caller that set it.
func (s *Store) MarkInitialized(ctx context.Context) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.Key("initialized"), time.Now().UTC().Format(time.RFC3339), 0).Result()
	if err != nil {
		return false, fmt.Errorf("mark initialized: %w", err)
	}
	return ok, nil
}

// Initialized reports whether the first-run marker is present.
func (s *Store) Initialized(ctx context.Context) (bool, error) {
	n, err := s.client.Exists(ctx, s.Key("initialized")).Result()
	if err != nil {
		return false, fmt.Errorf("check initialized: %w", err)
	}
	return n > 0, nil
}

// Reset removes every key under the store prefix, including the marker.
func (s *Store) Reset(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.Key("*"), 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}
	return nil
}

// HealthHandler answers the store health endpoint for the Redis backend.
func HealthHandler(client *redis.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		stats := client.PoolStats()
		pool := map[string]uint32{
			"total_conns": stats.TotalConns,
			"idle_conns":  stats.IdleConns,
			"hits":        stats.Hits,
			"misses":      stats.Misses,
			"timeouts":    stats.Timeouts,
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"backend": "redis",
				"error":   err.Error(),
				"pool":    pool,
			})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"backend": "redis",
			"pool":    pool,
		})
	}
}
