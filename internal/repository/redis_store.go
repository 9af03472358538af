package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

var errRedisNotConfigured = errors.New("redis client not configured")

// RedisStore persists records as plain redis strings without expiry.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore constructs a redis backed store.
func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, logger: logger}
}

// Get reads the raw value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.client == nil {
		return nil, errRedisNotConfigured
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

// Put overwrites the value stored under key.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if s.client == nil {
		return errRedisNotConfigured
	}

	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Keys scans for keys starting with prefix.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if s.client == nil {
		return nil, errRedisNotConfigured
	}

	var keys []string
	iter := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan prefix %s: %w", prefix, err)
	}
	sort.Strings(keys)
	s.logger.Debug("redis keys scanned", zap.String("prefix", prefix), zap.Int("count", len(keys)))
	return keys, nil
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return replacer.Replace(value)
}

// Close releases the underlying Redis connection if present.
func (s *RedisStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
