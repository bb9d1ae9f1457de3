// Package shared holds helpers used by several use cases.
package shared

import (
	"fmt"

	"github.com/runoshun/hora/internal/domain"
)

// GetTask retrieves a task by ID and returns domain.ErrTaskNotFound if not found.
// This centralizes the common pattern of:
//
//	task, err := repo.Get(taskID)
//	if err != nil { return nil, fmt.Errorf("get task: %w", err) }
//	if task == nil { return nil, domain.ErrTaskNotFound }
func GetTask(repo domain.TaskRepository, taskID string) (*domain.Task, error) {
	task, err := repo.Get(taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

// RequireIdentity rejects the empty caller.
func RequireIdentity(caller domain.Identity) error {
	if caller.IsZero() {
		return domain.ErrNoIdentity
	}
	return nil
}

// LoadWorklog returns the aggregate of a task's entries.
func LoadWorklog(repo domain.WorklogRepository, taskID string) (domain.Worklog, error) {
	entries, err := repo.Entries(taskID)
	if err != nil {
		return domain.Worklog{}, fmt.Errorf("get worklog: %w", err)
	}
	return domain.Summarize(entries), nil
}
