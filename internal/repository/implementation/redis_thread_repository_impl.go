package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"screening-onboarding-be/internal/entity"
	"screening-onboarding-be/internal/mapper"
	"screening-onboarding-be/internal/model"
	"screening-onboarding-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const threadKeyPrefix = "thread:"

// RedisThreadRepository keeps each thread as one JSON value that expires ttl
// after its last save.
type RedisThreadRepository struct {
	rdb    *redis.Client
	ttl    time.Duration
	mapper *mapper.ThreadMapper
}

func NewRedisThreadRepository(rdb *redis.Client, ttl time.Duration) contract.ThreadRepository {
	return &RedisThreadRepository{
		rdb:    rdb,
		ttl:    ttl,
		mapper: mapper.NewThreadMapper(),
	}
}

func ThreadKey(id uuid.UUID) string {
	return threadKeyPrefix + id.String()
}

func (r *RedisThreadRepository) Save(ctx context.Context, thread *entity.Thread) error {
	now := time.Now()
	if thread.CreatedAt.IsZero() {
		thread.CreatedAt = now
	}
	thread.UpdatedAt = now

	m, err := r.mapper.ThreadToModel(thread)
	if err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode thread %s: %w", thread.Id, err)
	}
	return r.rdb.Set(ctx, ThreadKey(thread.Id), data, r.ttl).Err()
}

func (r *RedisThreadRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.Thread, error) {
	data, err := r.rdb.Get(ctx, ThreadKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var m model.Thread
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode thread %s: %w", id, err)
	}
	return r.mapper.ThreadToEntity(&m)
}

func (r *RedisThreadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.rdb.Del(ctx, ThreadKey(id)).Err()
}
