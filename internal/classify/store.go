package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/truststack/scorer/pkg/logger"
)

// Store is the durable key-value backend behind the classification cache.
// Entries are written once and never expired by this layer; concurrent
// writers to the same key are last-writer-wins, which is acceptable
// because classifications for a given key are stable.
type Store interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Put(ctx context.Context, key string, value any) error
}

// FileStore keeps one JSON file per cache key under a directory, prefixed
// with the model name so operators can clear per-model state externally.
type FileStore struct {
	dir   string
	model string
}

func NewFileStore(dir, model string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{dir: dir, model: model}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.%s.json", s.model, key))
}

func (s *FileStore) Get(_ context.Context, key string, value any) (bool, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if err := json.Unmarshal(data, value); err != nil {
		// A corrupt entry is treated as a miss so it gets rewritten.
		logger.Warn("Corrupt cache entry, treating as miss", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (s *FileStore) Put(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("failed to publish cache entry: %w", err)
	}
	return nil
}

// RedisStore keys entries under a classification prefix with no TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(host string, port int, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis cache store initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, key string, value any) (bool, error) {
	data, err := s.client.Get(ctx, "classification:"+key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cache entry: %w", err)
	}

	if err := json.Unmarshal(data, value); err != nil {
		logger.Warn("Corrupt cache entry, treating as miss", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := s.client.Set(ctx, "classification:"+key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}
