package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/usecase/shared"
)

// AcceptTaskInput contains the parameters for accepting a task.
type AcceptTaskInput struct {
	Caller domain.Identity
	TaskID string
}

// AcceptTaskOutput contains the assigned task.
type AcceptTaskOutput struct {
	Task *domain.Task
}

// AcceptTask is the use case for a worker claiming an open task.
// The claim is a single conditional write in the store, so of any number
// of concurrent callers exactly one wins and the rest get domain.ErrConflict.
type AcceptTask struct {
	tasks    domain.TaskRepository
	notifier domain.AssignmentNotifier
	logger   domain.Logger
}

// NewAcceptTask creates a new AcceptTask use case.
func NewAcceptTask(tasks domain.TaskRepository, notifier domain.AssignmentNotifier, logger domain.Logger) *AcceptTask {
	return &AcceptTask{
		tasks:    tasks,
		notifier: notifier,
		logger:   logger,
	}
}

// Execute assigns the task to the caller and then notifies the messaging
// system. A notifier failure is logged and does not undo the assignment.
func (uc *AcceptTask) Execute(ctx context.Context, in AcceptTaskInput) (*AcceptTaskOutput, error) {
	if err := shared.RequireIdentity(in.Caller); err != nil {
		return nil, err
	}

	task, err := uc.tasks.Assign(in.TaskID, in.Caller)
	if err != nil {
		return nil, fmt.Errorf("assign task: %w", err)
	}

	uc.logger.Info(task.ID, "accept", fmt.Sprintf("assigned to %s", task.AssignedTo))

	if err := uc.notifier.TaskAssigned(ctx, task.ID, task.AssignedTo); err != nil {
		uc.logger.Warn(task.ID, "notify", fmt.Sprintf("assignment notice failed: %v", err))
	}

	return &AcceptTaskOutput{Task: task}, nil
}
