package usecase

import (
	"time"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/testutil"
)

var baseTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// seedOpenTask stores an open, unassigned task t1 posted by alice.
func seedOpenTask(store *testutil.MockStore) *domain.Task {
	task := &domain.Task{
		ID:                "t1",
		Requester:         "alice",
		Status:            domain.StatusOpen,
		Title:             "Move a sofa",
		Category:          domain.CategoryTask,
		EstimatedMinutes:  30,
		PrepayAmountCents: 500,
		IsImmediate:       true,
		CreatedAt:         baseTime,
	}
	store.Tasks[task.ID] = task
	return task
}

// seedLoggedWork assigns t1 to bob and records one closed session of minutes.
func seedLoggedWork(store *testutil.MockStore, minutes int) {
	store.Tasks["t1"].AssignedTo = "bob"
	out := baseTime.Add(time.Duration(minutes) * time.Minute)
	store.Worklogs["t1"] = append(store.Worklogs["t1"], domain.WorklogEntry{
		ID: "w1", TaskID: "t1", Worker: "bob", ClockInAt: baseTime, ClockOutAt: &out,
	})
}

func defaultBilling() domain.Billing {
	b, err := domain.ParseBilling("50")
	if err != nil {
		panic(err)
	}
	return b
}
