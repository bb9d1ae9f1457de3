package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/testutil"
)

func TestClockInOut_Execute(t *testing.T) {
	store := testutil.NewMockStore()
	seedOpenTask(store)
	store.Tasks["t1"].AssignedTo = "bob"
	clock := &testutil.MockClock{NowTime: baseTime}
	ids := &testutil.SequenceIDs{Prefix: "w"}
	logger := testutil.NewMockLogger()

	in, err := NewClockIn(store, ids, clock, logger).Execute(context.Background(), ClockInInput{Caller: "bob", TaskID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "w-1", in.Entry.ID)
	assert.True(t, in.Entry.IsOpen())
	assert.Equal(t, baseTime, in.Entry.ClockInAt)

	clock.Advance(20*time.Minute + 10*time.Second)

	out, err := NewClockOut(store, clock, logger).Execute(context.Background(), ClockOutInput{Caller: "bob", TaskID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "w-1", out.Entry.ID)
	assert.False(t, out.Entry.IsOpen())
	assert.Equal(t, int64(21), out.Entry.Minutes())
}

func TestClockIn_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*testutil.MockStore)
		caller  domain.Identity
		wantErr error
	}{
		{"no identity", nil, "", domain.ErrNoIdentity},
		{"not assignee", nil, "carol", domain.ErrForbidden},
		{"requester", nil, "alice", domain.ErrNotAssignee},
		{"completed", func(s *testutil.MockStore) { s.Tasks["t1"].Status = domain.StatusCompleted }, "bob", domain.ErrInvalidTransition},
		{"already clocked in", func(s *testutil.MockStore) {
			s.Worklogs["t1"] = []domain.WorklogEntry{{ID: "w0", TaskID: "t1", Worker: "bob", ClockInAt: baseTime}}
		}, "bob", domain.ErrAlreadyClockedIn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMockStore()
			seedOpenTask(store)
			store.Tasks["t1"].AssignedTo = "bob"
			if tt.setup != nil {
				tt.setup(store)
			}

			_, err := NewClockIn(store, &testutil.SequenceIDs{}, &testutil.MockClock{NowTime: baseTime}, testutil.NewMockLogger()).
				Execute(context.Background(), ClockInInput{Caller: tt.caller, TaskID: "t1"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClockOut_Errors(t *testing.T) {
	t.Run("not clocked in", func(t *testing.T) {
		store := testutil.NewMockStore()
		seedOpenTask(store)
		store.Tasks["t1"].AssignedTo = "bob"

		_, err := NewClockOut(store, &testutil.MockClock{NowTime: baseTime}, testutil.NewMockLogger()).
			Execute(context.Background(), ClockOutInput{Caller: "bob", TaskID: "t1"})
		assert.ErrorIs(t, err, domain.ErrNotClockedIn)
	})

	t.Run("clock went backwards", func(t *testing.T) {
		store := testutil.NewMockStore()
		seedOpenTask(store)
		store.Tasks["t1"].AssignedTo = "bob"
		store.Worklogs["t1"] = []domain.WorklogEntry{{ID: "w0", TaskID: "t1", Worker: "bob", ClockInAt: baseTime}}

		_, err := NewClockOut(store, &testutil.MockClock{NowTime: baseTime.Add(-time.Second)}, testutil.NewMockLogger()).
			Execute(context.Background(), ClockOutInput{Caller: "bob", TaskID: "t1"})
		assert.ErrorIs(t, err, domain.ErrClockSkew)
		assert.True(t, store.Worklogs["t1"][0].IsOpen())
	})
}

func TestWorklogStatus_Execute(t *testing.T) {
	store := testutil.NewMockStore()
	seedOpenTask(store)
	seedLoggedWork(store, 20)
	store.Worklogs["t1"] = append(store.Worklogs["t1"], domain.WorklogEntry{
		ID: "w2", TaskID: "t1", Worker: "bob", ClockInAt: baseTime.Add(time.Hour),
	})

	out, err := NewWorklogStatus(store, store).Execute(context.Background(), WorklogStatusInput{TaskID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, int64(20), out.Worklog.TotalMinutes)
	assert.True(t, out.Worklog.HasOpen)
	assert.Len(t, out.Worklog.Entries, 2)

	_, err = NewWorklogStatus(store, store).Execute(context.Background(), WorklogStatusInput{TaskID: "missing"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestShowWorklog_Execute(t *testing.T) {
	store := testutil.NewMockStore()
	seedOpenTask(store)
	seedLoggedWork(store, 20)
	uc := NewShowWorklog(store, store, defaultBilling())

	for _, caller := range []domain.Identity{"alice", "bob"} {
		out, err := uc.Execute(context.Background(), ShowWorklogInput{Caller: caller, TaskID: "t1"})
		require.NoError(t, err)
		assert.Equal(t, int64(20), out.Worklog.TotalMinutes)
		assert.Equal(t, int64(1500), out.CostCents)
	}

	_, err := uc.Execute(context.Background(), ShowWorklogInput{Caller: "carol", TaskID: "t1"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Execute(context.Background(), ShowWorklogInput{Caller: "carol", TaskID: "missing"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
