package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/usecase/shared"
)

// CompleteTaskInput contains the parameters for completing a task.
type CompleteTaskInput struct {
	Caller domain.Identity
	TaskID string
}

// CompleteTaskOutput contains the completed task and its final cost.
type CompleteTaskOutput struct {
	Task         *domain.Task
	TotalMinutes int64
	CostCents    int64
}

// CompleteTask is the use case for closing a task.
// The store applies the completion guard in the same write as the status
// change: the task must be open and assigned, the caller a participant,
// no session open, and some work logged.
type CompleteTask struct {
	tasks   domain.TaskRepository
	billing domain.Billing
	clock   domain.Clock
	logger  domain.Logger
}

// NewCompleteTask creates a new CompleteTask use case.
func NewCompleteTask(
	tasks domain.TaskRepository,
	billing domain.Billing,
	clock domain.Clock,
	logger domain.Logger,
) *CompleteTask {
	return &CompleteTask{
		tasks:   tasks,
		billing: billing,
		clock:   clock,
		logger:  logger,
	}
}

// Execute completes the task and returns the final cost.
func (uc *CompleteTask) Execute(_ context.Context, in CompleteTaskInput) (*CompleteTaskOutput, error) {
	if err := shared.RequireIdentity(in.Caller); err != nil {
		return nil, err
	}

	task, entries, err := uc.tasks.Complete(in.TaskID, in.Caller, uc.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}

	// Billed from the entries the guard accepted; nothing is read after the commit.
	w := domain.Summarize(entries)
	cost, err := uc.billing.Cost(task, w.TotalMinutes)
	if err != nil {
		return nil, fmt.Errorf("bill task: %w", err)
	}

	uc.logger.Info(task.ID, "task",
		fmt.Sprintf("completed by %s: %d min, %d cents", in.Caller, w.TotalMinutes, cost))

	return &CompleteTaskOutput{
		Task:         task,
		TotalMinutes: w.TotalMinutes,
		CostCents:    cost,
	}, nil
}
