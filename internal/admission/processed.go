package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultMaxProcessedIDs is the size past which the processed-id cache is
// cleared wholesale.
const DefaultMaxProcessedIDs = 1000

// ProcessedIDs remembers message ids that were already acted upon or
// discarded. Mark clears the whole set when it already holds more than its
// limit, then records id.
type ProcessedIDs interface {
	Seen(ctx context.Context, id string) (bool, error)
	Mark(ctx context.Context, id string) error
	Len(ctx context.Context) (int, error)
}

// MemoryProcessedIDs is an in-process ProcessedIDs. It relies on the
// Controller's lock and is not safe for concurrent use on its own.
type MemoryProcessedIDs struct {
	ids map[string]struct{}
	max int
}

// NewMemoryProcessedIDs creates an empty cache that clears after max entries.
func NewMemoryProcessedIDs(max int) *MemoryProcessedIDs {
	if max <= 0 {
		max = DefaultMaxProcessedIDs
	}
	return &MemoryProcessedIDs{ids: make(map[string]struct{}), max: max}
}

func (m *MemoryProcessedIDs) Seen(_ context.Context, id string) (bool, error) {
	_, ok := m.ids[id]
	return ok, nil
}

func (m *MemoryProcessedIDs) Mark(_ context.Context, id string) error {
	if len(m.ids) > m.max {
		m.ids = make(map[string]struct{})
	}
	m.ids[id] = struct{}{}
	return nil
}

func (m *MemoryProcessedIDs) Len(_ context.Context) (int, error) {
	return len(m.ids), nil
}

// RedisProcessedIDs keeps the processed-id set in Redis so that replicas
// behind one webhook URL share it. The set expires after ttl of inactivity.
type RedisProcessedIDs struct {
	client *redis.Client
	key    string
	max    int
	ttl    time.Duration
}

// NewRedisProcessedIDs stores ids under key.
func NewRedisProcessedIDs(client *redis.Client, key string, max int, ttl time.Duration) *RedisProcessedIDs {
	if client == nil {
		panic("admission: redis client required")
	}
	if key == "" {
		key = "hotelquote:processed_ids"
	}
	if max <= 0 {
		max = DefaultMaxProcessedIDs
	}
	return &RedisProcessedIDs{client: client, key: key, max: max, ttl: ttl}
}

func (r *RedisProcessedIDs) Seen(ctx context.Context, id string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.key, id).Result()
	if err != nil {
		return false, fmt.Errorf("admission: check processed id: %w", err)
	}
	return ok, nil
}

func (r *RedisProcessedIDs) Mark(ctx context.Context, id string) error {
	size, err := r.client.SCard(ctx, r.key).Result()
	if err != nil {
		return fmt.Errorf("admission: size processed ids: %w", err)
	}
	pipe := r.client.TxPipeline()
	if size > int64(r.max) {
		pipe.Del(ctx, r.key)
	}
	pipe.SAdd(ctx, r.key, id)
	if r.ttl > 0 {
		pipe.Expire(ctx, r.key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("admission: mark processed id: %w", err)
	}
	return nil
}

func (r *RedisProcessedIDs) Len(ctx context.Context) (int, error) {
	size, err := r.client.SCard(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("admission: size processed ids: %w", err)
	}
	return int(size), nil
}
