package usecase

import (
	"context"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/usecase/shared"
)

// ShowTaskInput contains the parameters for showing a task.
type ShowTaskInput struct {
	TaskID string
}

// ShowTaskOutput contains the task.
type ShowTaskOutput struct {
	Task *domain.Task
}

// ShowTask is the use case for reading one task.
type ShowTask struct {
	tasks domain.TaskRepository
}

// NewShowTask creates a new ShowTask use case.
func NewShowTask(tasks domain.TaskRepository) *ShowTask {
	return &ShowTask{tasks: tasks}
}

// Execute returns the task or domain.ErrTaskNotFound.
func (uc *ShowTask) Execute(_ context.Context, in ShowTaskInput) (*ShowTaskOutput, error) {
	task, err := shared.GetTask(uc.tasks, in.TaskID)
	if err != nil {
		return nil, err
	}
	return &ShowTaskOutput{Task: task}, nil
}
