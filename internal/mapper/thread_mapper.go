package mapper

import (
	"encoding/json"
	"fmt"

	"screening-onboarding-be/internal/entity"
	"screening-onboarding-be/internal/model"
	"screening-onboarding-be/pkg/dialogue"

	"gorm.io/datatypes"
)

type ThreadMapper struct{}

func NewThreadMapper() *ThreadMapper {
	return &ThreadMapper{}
}

func (m *ThreadMapper) ThreadToModel(t *entity.Thread) (*model.Thread, error) {
	if t == nil {
		return nil, nil
	}
	raw, err := json.Marshal(t.State)
	if err != nil {
		return nil, fmt.Errorf("encode thread state: %w", err)
	}
	return &model.Thread{
		Id:          t.Id,
		Workflow:    t.State.Workflow,
		Locale:      t.State.Locale,
		CurrentStep: string(t.State.Control.CurrentStep),
		Completed:   t.State.Control.Completed,
		State:       datatypes.JSON(raw),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}, nil
}

func (m *ThreadMapper) ThreadToEntity(t *model.Thread) (*entity.Thread, error) {
	if t == nil {
		return nil, nil
	}
	var state dialogue.State
	if err := json.Unmarshal(t.State, &state); err != nil {
		return nil, fmt.Errorf("decode thread state %s: %w", t.Id, err)
	}
	if state.Collected == nil {
		state.Collected = map[string]string{}
	}
	return &entity.Thread{
		Id:        t.Id,
		State:     state,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}, nil
}
