package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hlspress/hlspress/internal/config"
	"github.com/hlspress/hlspress/pkg/models"
)

const videoListKey = "videos:list"

// Cache holds short-lived API responses in Redis. The video listing is
// the hot read path while a job is running, so it is cached and
// invalidated on every record mutation.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection
func New(cfg config.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client, ttl: cfg.ListTTL}, nil
}

// NewWithClient wraps an existing client, used by tests
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// SetVideoList caches the full video listing
func (c *Cache) SetVideoList(ctx context.Context, videos []*models.Video) error {
	data, err := json.Marshal(videos)
	if err != nil {
		return fmt.Errorf("failed to marshal video list: %w", err)
	}
	return c.client.Set(ctx, videoListKey, data, c.ttl).Err()
}

// GetVideoList retrieves the cached video listing. A cache miss
// returns nil with no error.
func (c *Cache) GetVideoList(ctx context.Context) ([]*models.Video, error) {
	data, err := c.client.Get(ctx, videoListKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get video list from cache: %w", err)
	}

	var videos []*models.Video
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video list: %w", err)
	}
	return videos, nil
}

// InvalidateVideoList drops the cached listing
func (c *Cache) InvalidateVideoList(ctx context.Context) error {
	return c.client.Del(ctx, videoListKey).Err()
}
