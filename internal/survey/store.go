package survey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DraftStore keeps one draft per user between wizard steps. Save stamps
// UpdatedAt.
type DraftStore interface {
	Load(ctx context.Context, userID string) (*Draft, error)
	Save(ctx context.Context, d *Draft) error
	Delete(ctx context.Context, userID string) error
}

type MemoryStore struct {
	mu     sync.Mutex
	drafts map[string]Draft
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]Draft)}
}

func (m *MemoryStore) Load(_ context.Context, userID string) (*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(d), nil
}

func (m *MemoryStore) Save(_ context.Context, d *Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.UpdatedAt = time.Now()
	m.drafts[d.UserID] = *clone(*d)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, userID)
	return nil
}

// callers mutate drafts freely, so the store never shares maps or slices
func clone(d Draft) *Draft {
	ans := make(map[string]string, len(d.Answers))
	for k, v := range d.Answers {
		ans[k] = v
	}
	d.Answers = ans
	d.Dynamic = append(d.Dynamic[:0:0], d.Dynamic...)
	return &d
}

const (
	redisPrefix = "mindcare:survey:"
	DraftTTL    = 7 * 24 * time.Hour
)

// RedisStore keeps drafts as JSON values that expire after DraftTTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, ttl: DraftTTL}
}

func (s *RedisStore) Load(ctx context.Context, userID string) (*Draft, error) {
	raw, err := s.client.Get(ctx, redisPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

func (s *RedisStore) Save(ctx context.Context, d *Draft) error {
	d.UpdatedAt = time.Now()
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.client.Set(ctx, redisPrefix+d.UserID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, redisPrefix+userID).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
