package cards

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
)

// ErrSnapshotMiss reports that no shared snapshot exists.
var ErrSnapshotMiss = errors.New("cards: snapshot not found")

// SnapshotKey is the Redis key holding the shared catalog.
const SnapshotKey = "tarot:cards"

// RedisStore keeps the catalog snapshot in Redis.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore returns a store writing under SnapshotKey.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: SnapshotKey}
}

type redisSnapshot struct {
	Cards  []domain.Card `json:"cards"`
	Source Source        `json:"source"`
}

// Get implements SnapshotStore.
func (s *RedisStore) Get(ctx context.Context) ([]domain.Card, Source, error) {
	if s == nil || s.client == nil {
		return nil, "", ErrSnapshotMiss
	}
	b, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", ErrSnapshotMiss
		}
		return nil, "", err
	}
	var snap redisSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, "", err
	}
	return snap.Cards, snap.Source, nil
}

// Set implements SnapshotStore.
func (s *RedisStore) Set(ctx context.Context, cards []domain.Card, source Source, ttl time.Duration) error {
	if s == nil || s.client == nil {
		return nil
	}
	b, err := json.Marshal(redisSnapshot{Cards: cards, Source: source})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, b, ttl).Err()
}

// Invalidate removes the shared snapshot.
func (s *RedisStore) Invalidate(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Del(ctx, s.key).Err()
}
