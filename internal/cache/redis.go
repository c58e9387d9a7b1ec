package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a preview entry is absent or expired.
var ErrMiss = errors.New("cache miss")

// PreviewEntry is the cached rendered snapshot of a board.
type PreviewEntry struct {
	MimeType   string    `json:"mimeType"`
	Data       []byte    `json:"data"`
	RenderedAt time.Time `json:"renderedAt"`
}

// RedisClient wraps the Redis client for preview caching.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client and verifies connectivity.
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("[Redis] Connected to %s", addr)
	return &RedisClient{client: client}, nil
}

func previewKey(boardID int64) string {
	return "bp_" + strconv.FormatInt(boardID, 10)
}

// SetPreview stores a rendered preview with a TTL.
func (r *RedisClient) SetPreview(ctx context.Context, boardID int64, entry *PreviewEntry, ttl time.Duration) error {
	entry.RenderedAt = time.Now()
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, previewKey(boardID), data, ttl).Err()
}

// GetPreview fetches a board's cached preview. Absent entries are ErrMiss.
func (r *RedisClient) GetPreview(ctx context.Context, boardID int64) (*PreviewEntry, error) {
	data, err := r.client.Get(ctx, previewKey(boardID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var entry PreviewEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt entry behaves like a miss; the next render overwrites it.
		log.Printf("[Redis] Dropping corrupt preview entry for board %d: %v", boardID, err)
		r.client.Del(ctx, previewKey(boardID))
		return nil, ErrMiss
	}
	return &entry, nil
}

// DeletePreview drops a board's cached preview.
func (r *RedisClient) DeletePreview(ctx context.Context, boardID int64) error {
	return r.client.Del(ctx, previewKey(boardID)).Err()
}

// Close closes the Redis connection.
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Health checks if Redis is healthy.
func (r *RedisClient) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
