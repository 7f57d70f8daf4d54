package mapper

import (
	"testing"
	"time"

	"screening-onboarding-be/internal/entity"
	"screening-onboarding-be/internal/model"
	"screening-onboarding-be/pkg/dialogue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadMapper(t *testing.T) {
	m := NewThreadMapper()
	id := uuid.New()

	state := dialogue.NewState(id.String(), "onboarding", "de", "intro")
	state.Collected[dialogue.FieldClientIdentCode] = "ACME"
	state.Control.Completed = true
	state.Control.Pending = &dialogue.SuspendRequest{Kind: dialogue.SuspendEndpoints, Prompt: "URLs?"}

	now := time.Now().UTC().Truncate(time.Second)
	row, err := m.ThreadToModel(&entity.Thread{Id: id, State: state, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, "onboarding", row.Workflow)
	assert.Equal(t, "de", row.Locale)
	assert.Equal(t, "intro", row.CurrentStep)
	assert.True(t, row.Completed)

	back, err := m.ThreadToEntity(row)
	require.NoError(t, err)
	assert.Equal(t, id, back.Id)
	assert.Equal(t, "ACME", back.State.Field(dialogue.FieldClientIdentCode))
	require.NotNil(t, back.State.Control.Pending)
	assert.Equal(t, dialogue.SuspendEndpoints, back.State.Control.Pending.Kind)
	assert.Equal(t, dialogue.Suspended, back.Status())
}

func TestThreadMapperRejectsBrokenState(t *testing.T) {
	_, err := NewThreadMapper().ThreadToEntity(&model.Thread{Id: uuid.New(), State: []byte("{")})
	assert.Error(t, err)
}

func TestThreadMapperNil(t *testing.T) {
	m := NewThreadMapper()
	row, err := m.ThreadToModel(nil)
	assert.NoError(t, err)
	assert.Nil(t, row)

	e, err := m.ThreadToEntity(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)
}
