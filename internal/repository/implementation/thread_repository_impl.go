package implementation

import (
	"context"
	"errors"

	"screening-onboarding-be/internal/entity"
	"screening-onboarding-be/internal/mapper"
	"screening-onboarding-be/internal/model"
	"screening-onboarding-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ThreadRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ThreadMapper
}

func NewThreadRepository(db *gorm.DB) contract.ThreadRepository {
	return &ThreadRepositoryImpl{
		db:     db,
		mapper: mapper.NewThreadMapper(),
	}
}

func (r *ThreadRepositoryImpl) Save(ctx context.Context, thread *entity.Thread) error {
	m, err := r.mapper.ThreadToModel(thread)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"workflow", "locale", "current_step", "completed", "state", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	thread.CreatedAt = m.CreatedAt
	thread.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *ThreadRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.Thread, error) {
	var m model.Thread
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ThreadToEntity(&m)
}

func (r *ThreadRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Thread{}, "id = ?", id).Error
}
