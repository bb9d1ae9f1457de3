package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StoreInitializer initializes the data store.
type StoreInitializer interface {
	// Initialize creates the store if it doesn't exist.
	Initialize() error
}

// TaskRepository manages task persistence.
// Every mutating method is a single conditional write: it evaluates the
// matching Check function against the current state and applies the change
// only if it passes. On failure nothing is written.
type TaskRepository interface {
	// Create stores a new task. The ID must be unused.
	Create(task *Task) error

	// Get retrieves a task by ID. Returns nil if not found.
	Get(id string) (*Task, error)

	// List retrieves tasks matching the filter, newest first.
	List(filter TaskFilter) ([]*Task, error)

	// Update applies patch if CheckUpdate passes.
	Update(id string, caller Identity, patch TaskPatch) (*Task, error)

	// Assign sets AssignedTo to worker if CheckAccept passes.
	Assign(id string, worker Identity) (*Task, error)

	// Complete marks the task completed at time at if CheckComplete passes.
	// It returns the entries the guard was evaluated against, which are final.
	Complete(id string, caller Identity, at time.Time) (*Task, []WorklogEntry, error)
}

// WorklogRepository manages worklog entries.
type WorklogRepository interface {
	// ClockIn stores entry as a new open session if CheckClockIn passes.
	ClockIn(entry WorklogEntry) (*WorklogEntry, error)

	// ClockOut closes worker's open session at time at if CheckClockOut passes.
	ClockOut(taskID string, worker Identity, at time.Time) (*WorklogEntry, error)

	// Entries returns all entries of a task. Returns an empty slice if none.
	Entries(taskID string) ([]WorklogEntry, error)
}

// Store is a backend that persists both tasks and their worklogs.
type Store interface {
	TaskRepository
	WorklogRepository
	StoreInitializer
}

// AssignmentNotifier tells the external messaging system that a task
// gained an assignee. It is only ever called after a successful accept.
type AssignmentNotifier interface {
	TaskAssigned(ctx context.Context, taskID string, assignee Identity) error
}

// Logger records task-scoped events.
type Logger interface {
	Info(taskID, category, msg string)
	Debug(taskID, category, msg string)
	Warn(taskID, category, msg string)
	Error(taskID, category, msg string)
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (defaults + global + local + env).
	Load() (*Config, error)

	// LoadGlobal returns only the global configuration.
	LoadGlobal() (*Config, error)
}

// IDGenerator issues opaque unique identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random UUIDs.
type UUIDGenerator struct{}

// NewID returns a new random UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}
