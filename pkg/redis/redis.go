package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/localbase/localbase-backend/config"
	"github.com/localbase/localbase-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Store is the key/value surface used for read caching, auth nonces and
// idempotency keys.
type Store interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	GetDel(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// ClientStore implements Store on top of a go-redis client.
type ClientStore struct {
	client *redis.Client
}

func NewStore(c *redis.Client) *ClientStore {
	return &ClientStore{client: c}
}

func (s *ClientStore) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to read cache entry", err, map[string]interface{}{
			"key": key,
		})
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		logger.Warn("Discarding unreadable cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		_ = s.client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (s *ClientStore) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		logger.Error("Failed to write cache entry", err, map[string]interface{}{
			"key": key,
		})
		return err
	}
	return nil
}

func (s *ClientStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		logger.Error("Failed to set key", err, map[string]interface{}{
			"key": key,
		})
		return false, err
	}
	return ok, nil
}

func (s *ClientStore) GetDel(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		logger.Error("Failed to consume key", err, map[string]interface{}{
			"key": key,
		})
		return "", false, err
	}
	return val, true, nil
}

func (s *ClientStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}
