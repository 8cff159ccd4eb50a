package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trogers1052/trade-journal/internal/models"
	"github.com/trogers1052/trade-journal/internal/portfolio"
)

// ErrSessionNotFound is returned for unknown or expired session tokens
var ErrSessionNotFound = errors.New("session not found")

const (
	sessionPrefix    = "session:"
	snapshotPrefix   = "snapshot:"
	generationPrefix = "snapshot_gen:"
	tokenBytes       = 32
)

// Cache stores sessions and per-user trade snapshots in Redis
type Cache struct {
	client      *redis.Client
	sessionTTL  time.Duration
	snapshotTTL time.Duration
}

// New connects to Redis and verifies the connection
func New(ctx context.Context, addr, password string, db int, sessionTTL, snapshotTTL time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewWithClient(client, sessionTTL, snapshotTTL), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client, sessionTTL, snapshotTTL time.Duration) *Cache {
	return &Cache{
		client:      client,
		sessionTTL:  sessionTTL,
		snapshotTTL: snapshotTTL,
	}
}

// Close closes the Redis client
func (c *Cache) Close() error {
	return c.client.Close()
}

// CreateSession stores a new random session token for userID
func (c *Cache) CreateSession(ctx context.Context, userID string) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := c.client.Set(ctx, sessionPrefix+token, userID, c.sessionTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// LookupSession returns the user that owns token
func (c *Cache) LookupSession(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrSessionNotFound
	}
	userID, err := c.client.Get(ctx, sessionPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up session: %w", err)
	}
	return userID, nil
}

// DeleteSession removes token. Deleting an unknown token is not an error.
func (c *Cache) DeleteSession(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, sessionPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetSnapshot returns the cached trades for userID with profit re-derived.
// ok is false on a cache miss.
func (c *Cache) GetSnapshot(ctx context.Context, userID string) ([]*models.Trade, bool, error) {
	data, err := c.client.Get(ctx, snapshotPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get snapshot: %w", err)
	}

	trades := []*models.Trade{}
	if err := json.Unmarshal(data, &trades); err != nil {
		return nil, false, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	portfolio.Hydrate(trades)
	return trades, true, nil
}

// SnapshotGeneration returns the user's current snapshot generation.
// Every InvalidateSnapshot advances it.
func (c *Cache) SnapshotGeneration(ctx context.Context, userID string) (int64, error) {
	gen, err := c.client.Get(ctx, generationPrefix+userID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot generation: %w", err)
	}
	return gen, nil
}

// SetSnapshot caches trades for userID if the snapshot generation is still
// generation. It reports false when an invalidation happened in between,
// since trades may then predate the change.
func (c *Cache) SetSnapshot(ctx context.Context, userID string, generation int64, trades []*models.Trade) (bool, error) {
	data, err := json.Marshal(trades)
	if err != nil {
		return false, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	genKey := generationPrefix + userID
	stale := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			stale = true
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, snapshotPrefix+userID, data, c.snapshotTTL)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to set snapshot: %w", err)
	}
	return !stale, nil
}

// InvalidateSnapshot drops the cached trades for userID and advances its generation
func (c *Cache) InvalidateSnapshot(ctx context.Context, userID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationPrefix+userID)
		pipe.Del(ctx, snapshotPrefix+userID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate snapshot: %w", err)
	}
	return nil
}
