// Package usecase contains application use cases.
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/usecase/shared"
)

// CreateTaskInput contains the parameters for posting a new task.
// Fields are ordered to minimize memory padding.
type CreateTaskInput struct {
	ScheduledAt       *time.Time      // Start time (required unless IsImmediate)
	Requester         domain.Identity // Caller posting the task (required)
	Title             string          // Task title (required)
	Description       string          // Task description (optional)
	Category          domain.Category // "task" (default) or "companion"
	LocationText      string          // Free-form location (optional)
	EstimatedMinutes  int             // Expected duration, must be positive
	PrepayAmountCents int64           // Amount paid up front, must not be negative
	IsImmediate       bool            // Start as soon as someone accepts
}

// CreateTaskOutput contains the result of creating a task.
type CreateTaskOutput struct {
	Task *domain.Task
}

// CreateTask is the use case for posting a new task.
type CreateTask struct {
	tasks  domain.TaskRepository
	ids    domain.IDGenerator
	clock  domain.Clock
	logger domain.Logger
}

// NewCreateTask creates a new CreateTask use case.
func NewCreateTask(tasks domain.TaskRepository, ids domain.IDGenerator, clock domain.Clock, logger domain.Logger) *CreateTask {
	return &CreateTask{
		tasks:  tasks,
		ids:    ids,
		clock:  clock,
		logger: logger,
	}
}

// Execute validates the input and stores an open, unassigned task.
func (uc *CreateTask) Execute(_ context.Context, in CreateTaskInput) (*CreateTaskOutput, error) {
	if err := shared.RequireIdentity(in.Requester); err != nil {
		return nil, err
	}

	category := in.Category
	if category == "" {
		category = domain.CategoryTask
	}

	task := &domain.Task{
		ID:                uc.ids.NewID(),
		Requester:         in.Requester,
		Status:            domain.StatusOpen,
		Title:             strings.TrimSpace(in.Title),
		Description:       strings.TrimSpace(in.Description),
		Category:          category,
		LocationText:      strings.TrimSpace(in.LocationText),
		EstimatedMinutes:  in.EstimatedMinutes,
		PrepayAmountCents: in.PrepayAmountCents,
		IsImmediate:       in.IsImmediate,
		ScheduledAt:       in.ScheduledAt,
		CreatedAt:         uc.clock.Now(),
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := uc.tasks.Create(task); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}

	uc.logger.Info(task.ID, "task", fmt.Sprintf("posted by %s: %q", task.Requester, task.Title))

	return &CreateTaskOutput{Task: task}, nil
}
