package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	docsysSvc "scriptorium/internal/domain/services/docsystem"
)

// RedisTracker keeps presence in one sorted set per document:
// member = user ID, score = last activity in unix milliseconds.
// Stale members are pruned lazily on read.
type RedisTracker struct {
	client *redis.Client
	prefix string
	opts   options
	logger *slog.Logger
}

// NewRedisClient parses redisURL and verifies the server is reachable
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return client, nil
}

// NewRedisTracker creates a Redis-backed presence tracker
func NewRedisTracker(client *redis.Client, logger *slog.Logger, opts ...Option) *RedisTracker {
	return &RedisTracker{
		client: client,
		prefix: "presence:",
		opts:   buildOptions(opts),
		logger: logger,
	}
}

var _ docsysSvc.CollaborationTracker = (*RedisTracker)(nil)

func (t *RedisTracker) editorsKey(documentID string) string {
	return t.prefix + documentID
}

func (t *RedisTracker) watermarkKey(documentID string) string {
	return t.prefix + documentID + ":last"
}

// RecordActivity marks userID as active on documentID now
func (t *RedisTracker) RecordActivity(ctx context.Context, documentID, userID string) error {
	now := t.opts.now().UnixMilli()
	key := t.editorsKey(documentID)

	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: userID})
		pipe.Expire(ctx, key, t.opts.idleWindow)
		pipe.Set(ctx, t.watermarkKey(documentID), now, WatermarkRetention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}

	return nil
}

// GetActiveEditors returns users whose last activity falls inside the idle window, sorted
func (t *RedisTracker) GetActiveEditors(ctx context.Context, documentID string) ([]string, error) {
	key := t.editorsKey(documentID)
	cutoff := strconv.FormatInt(t.opts.now().Add(-t.opts.idleWindow).UnixMilli(), 10)

	if removed, err := t.client.ZRemRangeByScore(ctx, key, "-inf", "("+cutoff).Result(); err != nil {
		return nil, fmt.Errorf("prune stale editors: %w", err)
	} else if removed > 0 {
		t.logger.Debug("pruned stale editors", "document_id", documentID, "removed", removed)
	}

	editors, err := t.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{Min: cutoff, Max: "+inf"}).Result()
	if err != nil {
		return nil, fmt.Errorf("list active editors: %w", err)
	}

	slices.Sort(editors)
	return editors, nil
}

// LastActivity returns the document's last activity watermark
func (t *RedisTracker) LastActivity(ctx context.Context, documentID string) (time.Time, bool, error) {
	ms, err := t.client.Get(ctx, t.watermarkKey(documentID)).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read last activity: %w", err)
	}

	return time.UnixMilli(ms).UTC(), true, nil
}

// Ping checks if Redis is reachable
func (t *RedisTracker) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (t *RedisTracker) Close() error {
	return t.client.Close()
}
