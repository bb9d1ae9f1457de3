package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/hora/internal/domain"
)

// ListTasksInput contains the parameters for listing tasks.
// At least one of PostedBy and AssignedTo must be set.
type ListTasksInput struct {
	PostedBy   domain.Identity
	AssignedTo domain.Identity
	Statuses   []domain.Status // Empty = all
}

// ListTasksOutput contains the matching tasks, newest first.
type ListTasksOutput struct {
	Tasks []*domain.Task
}

// ListTasks is the use case for a caller's own task lists:
// tasks they posted, or tasks assigned to them.
type ListTasks struct {
	tasks domain.TaskRepository
}

// NewListTasks creates a new ListTasks use case.
func NewListTasks(tasks domain.TaskRepository) *ListTasks {
	return &ListTasks{tasks: tasks}
}

// Execute returns the tasks matching the input.
func (uc *ListTasks) Execute(_ context.Context, in ListTasksInput) (*ListTasksOutput, error) {
	if in.PostedBy.IsZero() && in.AssignedTo.IsZero() {
		return nil, domain.ErrNoIdentity
	}
	for _, s := range in.Statuses {
		if !s.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, s)
		}
	}

	tasks, err := uc.tasks.List(domain.TaskFilter{
		Requester:  in.PostedBy,
		AssignedTo: in.AssignedTo,
		Statuses:   in.Statuses,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	return &ListTasksOutput{Tasks: tasks}, nil
}
