package contract

import (
	"context"

	"screening-onboarding-be/internal/entity"

	"github.com/google/uuid"
)

// ThreadRepository persists conversation threads. FindById returns nil, nil
// for an unknown or expired thread.
type ThreadRepository interface {
	Save(ctx context.Context, thread *entity.Thread) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.Thread, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
