package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/usecase/shared"
)

// EditTaskInput contains the parameters for editing a task.
type EditTaskInput struct {
	Caller domain.Identity
	TaskID string
	Patch  domain.TaskPatch
}

// EditTaskOutput contains the edited task.
type EditTaskOutput struct {
	Task *domain.Task
}

// EditTask is the use case for changing an open task's fields.
// Only the requester may edit, and only while the task is open.
type EditTask struct {
	tasks  domain.TaskRepository
	logger domain.Logger
}

// NewEditTask creates a new EditTask use case.
func NewEditTask(tasks domain.TaskRepository, logger domain.Logger) *EditTask {
	return &EditTask{
		tasks:  tasks,
		logger: logger,
	}
}

// Execute applies the patch in one conditional write.
func (uc *EditTask) Execute(_ context.Context, in EditTaskInput) (*EditTaskOutput, error) {
	if err := shared.RequireIdentity(in.Caller); err != nil {
		return nil, err
	}
	if in.Patch.IsEmpty() {
		return nil, domain.ErrNoFieldsToUpdate
	}

	task, err := uc.tasks.Update(in.TaskID, in.Caller, in.Patch)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	uc.logger.Info(task.ID, "task", "edited")

	return &EditTaskOutput{Task: task}, nil
}
