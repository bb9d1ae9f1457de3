package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func validTask() *Task {
	return &Task{
		ID:                "t1",
		Requester:         "alice",
		Status:            StatusOpen,
		Title:             "Move a sofa",
		Category:          CategoryTask,
		EstimatedMinutes:  30,
		PrepayAmountCents: 500,
		IsImmediate:       true,
		CreatedAt:         testTime,
	}
}

func TestTask_Validate(t *testing.T) {
	scheduled := testTime.Add(24 * time.Hour)

	tests := []struct {
		wantErr error
		mutate  func(*Task)
		name    string
	}{
		{nil, func(*Task) {}, "valid immediate"},
		{nil, func(t *Task) { t.IsImmediate = false; t.ScheduledAt = &scheduled }, "valid scheduled"},
		{nil, func(t *Task) { t.PrepayAmountCents = 0 }, "zero prepay"},
		{ErrEmptyTitle, func(t *Task) { t.Title = "  " }, "blank title"},
		{ErrInvalidEstimate, func(t *Task) { t.EstimatedMinutes = 0 }, "zero estimate"},
		{ErrInvalidEstimate, func(t *Task) { t.EstimatedMinutes = -5 }, "negative estimate"},
		{ErrNegativePrepay, func(t *Task) { t.PrepayAmountCents = -1 }, "negative prepay"},
		{ErrInvalidCategory, func(t *Task) { t.Category = "errand" }, "unknown category"},
		{ErrScheduleIncoherent, func(t *Task) { t.IsImmediate = false }, "neither immediate nor scheduled"},
		{ErrScheduleIncoherent, func(t *Task) { t.ScheduledAt = &scheduled }, "both immediate and scheduled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := validTask()
			tt.mutate(task)

			err := task.Validate()

			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestTask_IsParticipant(t *testing.T) {
	task := validTask()
	assert.True(t, task.IsParticipant("alice"))
	assert.False(t, task.IsParticipant("bob"))
	assert.False(t, task.IsParticipant(""))

	task.AssignedTo = "bob"
	assert.True(t, task.IsParticipant("bob"))
	assert.False(t, task.IsParticipant("carol"))
}

func TestTask_Phase(t *testing.T) {
	task := validTask()
	assert.Equal(t, "open, unassigned", task.Phase())

	task.AssignedTo = "bob"
	assert.Equal(t, "open, assigned", task.Phase())

	task.Status = StatusCompleted
	assert.Equal(t, "Completed", task.Phase())
}

func TestTask_Clone(t *testing.T) {
	task := validTask()
	task.IsImmediate = false
	at := testTime.Add(time.Hour)
	task.ScheduledAt = &at

	clone := task.Clone()
	*clone.ScheduledAt = clone.ScheduledAt.Add(time.Hour)
	clone.Title = "changed"

	assert.Equal(t, testTime.Add(time.Hour), *task.ScheduledAt)
	assert.Equal(t, "Move a sofa", task.Title)
}

func TestTaskPatch_Apply(t *testing.T) {
	scheduled := testTime.Add(48 * time.Hour)
	title := "  Move two sofas "
	estimate := 60
	immediate := true
	notImmediate := false
	negative := int64(-10)

	t.Run("fields are trimmed and set", func(t *testing.T) {
		task := validTask()
		err := TaskPatch{Title: &title, EstimatedMinutes: &estimate}.Apply(task)
		require.NoError(t, err)
		assert.Equal(t, "Move two sofas", task.Title)
		assert.Equal(t, 60, task.EstimatedMinutes)
	})

	t.Run("setting a schedule clears immediate", func(t *testing.T) {
		task := validTask()
		err := TaskPatch{ScheduledAt: &scheduled}.Apply(task)
		require.NoError(t, err)
		assert.False(t, task.IsImmediate)
		assert.Equal(t, scheduled, *task.ScheduledAt)
	})

	t.Run("switching to immediate clears the schedule", func(t *testing.T) {
		task := validTask()
		task.IsImmediate = false
		task.ScheduledAt = &scheduled
		err := TaskPatch{IsImmediate: &immediate}.Apply(task)
		require.NoError(t, err)
		assert.True(t, task.IsImmediate)
		assert.Nil(t, task.ScheduledAt)
	})

	t.Run("unscheduling without a time is rejected", func(t *testing.T) {
		task := validTask()
		err := TaskPatch{IsImmediate: &notImmediate}.Apply(task)
		assert.ErrorIs(t, err, ErrScheduleIncoherent)
	})

	t.Run("invalid result is rejected", func(t *testing.T) {
		task := validTask()
		err := TaskPatch{PrepayAmountCents: &negative}.Apply(task)
		assert.ErrorIs(t, err, ErrNegativePrepay)
	})
}

func TestTaskPatch_IsEmpty(t *testing.T) {
	assert.True(t, TaskPatch{}.IsEmpty())
	title := "x"
	assert.False(t, TaskPatch{Title: &title}.IsEmpty())
}

func TestTaskFilter_Matches(t *testing.T) {
	task := validTask()
	task.AssignedTo = "bob"

	tests := []struct {
		name   string
		filter TaskFilter
		want   bool
	}{
		{"empty filter", TaskFilter{}, true},
		{"requester matches", TaskFilter{Requester: "alice"}, true},
		{"requester differs", TaskFilter{Requester: "bob"}, false},
		{"assignee matches", TaskFilter{AssignedTo: "bob"}, true},
		{"assignee differs", TaskFilter{AssignedTo: "carol"}, false},
		{"status matches", TaskFilter{Statuses: []Status{StatusCompleted, StatusOpen}}, true},
		{"status differs", TaskFilter{Statuses: []Status{StatusCompleted}}, false},
		{"all criteria", TaskFilter{Requester: "alice", AssignedTo: "bob", Statuses: []Status{StatusOpen}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(task))
		})
	}
}

func TestIdentity_IsZero(t *testing.T) {
	assert.True(t, Identity("").IsZero())
	assert.True(t, Identity("   ").IsZero())
	assert.False(t, Identity("alice").IsZero())
}
