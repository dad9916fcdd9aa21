// internal/common/database/redis.go
package database

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"house-price-api/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the Redis client
type RedisClient struct {
	Client *redis.Client
}

// NewRedis creates a new Redis client
func NewRedis(cfg config.CacheConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	return &RedisClient{Client: rdb}, nil
}

// Ping tests the Redis connection
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// PredictionCache stores model outputs keyed by the model identity and a hash
// of the feature vector. Replicas serving different artifacts can share one
// Redis without reading each other's prices.
type PredictionCache struct {
	rdb     redis.Cmdable
	prefix  string
	modelID string
	ttl     time.Duration
}

func NewPredictionCache(rdb redis.Cmdable, prefix, modelID string, ttl time.Duration) *PredictionCache {
	return &PredictionCache{rdb: rdb, prefix: prefix, modelID: modelID, ttl: ttl}
}

// Key is prefix + modelID + ":" + hex(sha256(vector as little-endian float64 bits)).
func (c *PredictionCache) Key(vec []float64) string {
	h := sha256.New()
	buf := make([]byte, 8)
	for _, v := range vec {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	return c.prefix + c.modelID + ":" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached price. A miss is (0, false, nil).
func (c *PredictionCache) Get(ctx context.Context, vec []float64) (float64, bool, error) {
	raw, err := c.rdb.Get(ctx, c.Key(vec)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("cache get: %w", err)
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("cache entry is not a number: %w", err)
	}
	return price, true, nil
}

func (c *PredictionCache) Set(ctx context.Context, vec []float64, price float64) error {
	val := strconv.FormatFloat(price, 'g', -1, 64)
	if err := c.rdb.Set(ctx, c.Key(vec), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
