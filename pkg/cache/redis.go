package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/academy-api/pkg/config"
)

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// RedisStore implements Store on top of Redis so several API replicas share one cache.
// Keys are namespaced with prefix; hit and miss counters are per process.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewRedisStore wraps an existing client. The prefix is required because Clear deletes every
// key under it.
func NewRedisStore(client *redis.Client, prefix string, defaultTTL time.Duration) (*RedisStore, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, errors.New("redis cache requires a non-empty key prefix")
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &RedisStore{client: client, prefix: prefix, defaultTTL: defaultTTL}, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		s.misses.Add(1)
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	s.hits.Add(1)
	return raw, true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis delete %s: %w", key, err)
	}
	return n > 0, nil
}

// DeleteMatching implements Store. The glob is escaped so only '*' keeps its meaning in SCAN.
func (s *RedisStore) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	keys, err := s.scan(ctx, escapeRedisGlob(s.prefix)+escapeRedisGlob(pattern))
	if err != nil {
		return 0, fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis delete pattern %s: %w", pattern, err)
	}
	return int(n), nil
}

// Clear implements Store by removing every key under the namespace prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	_, err := s.DeleteMatching(ctx, "*")
	return err
}

// Stats implements Store.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	keys, err := s.scan(ctx, escapeRedisGlob(s.prefix)+"*")
	if err != nil {
		return Stats{}, fmt.Errorf("redis scan stats: %w", err)
	}
	active := make([]string, 0, len(keys))
	for _, key := range keys {
		active = append(active, strings.TrimPrefix(key, s.prefix))
	}
	sort.Strings(active)
	hits, misses := s.hits.Load(), s.misses.Load()
	return Stats{
		Hits:           hits,
		Misses:         misses,
		Keys:           len(active),
		HitRatePercent: hitRate(hits, misses),
		ActiveKeys:     active,
	}, nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) scan(ctx context.Context, match string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, match, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func escapeRedisGlob(pattern string) string {
	replacer := strings.NewReplacer(`?`, `\?`, `[`, `\[`, `]`, `\]`, `\`, `\\`)
	return replacer.Replace(pattern)
}
