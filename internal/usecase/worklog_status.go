package usecase

import (
	"context"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/usecase/shared"
)

// WorklogStatusInput contains the parameters for reading a worklog summary.
type WorklogStatusInput struct {
	TaskID string
}

// WorklogStatusOutput contains the summary.
type WorklogStatusOutput struct {
	Worklog domain.Worklog
}

// WorklogStatus is the read-only view of a task's ledger: entries by
// clock-in time, total billable minutes, and whether any session is open.
type WorklogStatus struct {
	tasks    domain.TaskRepository
	worklogs domain.WorklogRepository
}

// NewWorklogStatus creates a new WorklogStatus use case.
func NewWorklogStatus(tasks domain.TaskRepository, worklogs domain.WorklogRepository) *WorklogStatus {
	return &WorklogStatus{
		tasks:    tasks,
		worklogs: worklogs,
	}
}

// Execute returns the summary, or domain.ErrTaskNotFound.
func (uc *WorklogStatus) Execute(_ context.Context, in WorklogStatusInput) (*WorklogStatusOutput, error) {
	if _, err := shared.GetTask(uc.tasks, in.TaskID); err != nil {
		return nil, err
	}
	w, err := shared.LoadWorklog(uc.worklogs, in.TaskID)
	if err != nil {
		return nil, err
	}
	return &WorklogStatusOutput{Worklog: w}, nil
}
