package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/testutil"
)

func TestShowTask_Execute(t *testing.T) {
	store := testutil.NewMockStore()
	seedOpenTask(store)

	out, err := NewShowTask(store).Execute(context.Background(), ShowTaskInput{TaskID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "Move a sofa", out.Task.Title)
	assert.Equal(t, "open, unassigned", out.Task.Phase())

	_, err = NewShowTask(store).Execute(context.Background(), ShowTaskInput{TaskID: "nope"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
