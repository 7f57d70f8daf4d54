package memory

import (
	"context"
	"time"

	"screening-onboarding-be/internal/entity"
	"screening-onboarding-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type ThreadRepository struct {
	cache *cache.Cache
}

// NewThreadRepository keeps threads for ttl after their last save. Expired
// items are purged every ten minutes.
func NewThreadRepository(ttl time.Duration) contract.ThreadRepository {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &ThreadRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *ThreadRepository) Save(ctx context.Context, thread *entity.Thread) error {
	now := time.Now()
	if thread.CreatedAt.IsZero() {
		thread.CreatedAt = now
	}
	thread.UpdatedAt = now

	stored := *thread
	stored.State = thread.State.Clone()
	r.cache.Set(thread.Id.String(), &stored, cache.DefaultExpiration)
	return nil
}

func (r *ThreadRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.Thread, error) {
	x, found := r.cache.Get(id.String())
	if !found {
		return nil, nil
	}
	stored := x.(*entity.Thread)
	out := *stored
	out.State = stored.State.Clone()
	return &out, nil
}

func (r *ThreadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.cache.Delete(id.String())
	return nil
}
