package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"carriercheck/internal/domain"
	"carriercheck/pkg/platform/sentinel"
)

// resultKeyPrefix namespaces result documents in a shared Redis.
const resultKeyPrefix = "intake:result:"

// RedisStore persists results with native key expiry.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put overwrites the document with SET ... EXAT expiresAt. A zero expiresAt
// keeps the key indefinitely.
func (s *RedisStore) Put(ctx context.Context, id string, r *domain.Result, expiresAt time.Time) error {
	data, err := encode(r)
	if err != nil {
		return err
	}
	if err := s.client.SetArgs(ctx, resultKeyPrefix+id, data, redis.SetArgs{ExpireAt: expiresAt}).Err(); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Result, error) {
	data, err := s.client.Get(ctx, resultKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find result: %w", err)
	}
	return decode(data)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
