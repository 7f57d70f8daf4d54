package memory

import (
	"context"
	"testing"
	"time"

	"screening-onboarding-be/internal/entity"
	"screening-onboarding-be/pkg/dialogue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewThreadRepository(time.Hour)
	id := uuid.New()

	missing, err := repo.FindById(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, missing)

	thread := &entity.Thread{Id: id, State: dialogue.NewState(id.String(), "docs_qa", "en", "welcome")}
	require.NoError(t, repo.Save(ctx, thread))
	assert.False(t, thread.CreatedAt.IsZero())

	found, err := repo.FindById(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "docs_qa", found.State.Workflow)

	// Stored copies are isolated from callers.
	found.State.Collected["x"] = "y"
	thread.State.Collected["z"] = "w"
	again, err := repo.FindById(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, again.State.Collected)

	require.NoError(t, repo.Delete(ctx, id))
	gone, err := repo.FindById(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestThreadRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	repo := NewThreadRepository(20 * time.Millisecond)
	id := uuid.New()
	require.NoError(t, repo.Save(ctx, &entity.Thread{Id: id, State: dialogue.NewState(id.String(), "docs_qa", "en", "welcome")}))

	time.Sleep(50 * time.Millisecond)
	found, err := repo.FindById(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, found)
}
