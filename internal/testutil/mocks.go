// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/runoshun/hora/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// Advance moves the clock forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.NowTime = m.NowTime.Add(d)
}

// SequenceIDs is a domain.IDGenerator returning prefix-1, prefix-2, ...
type SequenceIDs struct {
	Prefix string
	n      int
	mu     sync.Mutex
}

// NewID returns the next ID in sequence.
func (s *SequenceIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.Prefix, s.n)
}

// MockStore is an in-memory test double for domain.Store.
// Mutations evaluate the same domain checks as the real backends.
// Fields are ordered to minimize memory padding.
type MockStore struct {
	Tasks       map[string]*domain.Task
	Worklogs    map[string][]domain.WorklogEntry
	CreateErr   error
	GetErr      error
	ListErr     error
	UpdateErr   error
	AssignErr   error
	CompleteErr error
	ClockInErr  error
	ClockOutErr error
	EntriesErr  error
	InitErr     error
	Initialized bool
	mu          sync.Mutex
}

// NewMockStore creates a new MockStore with initialized maps.
func NewMockStore() *MockStore {
	return &MockStore{
		Tasks:    make(map[string]*domain.Task),
		Worklogs: make(map[string][]domain.WorklogEntry),
	}
}

// Ensure MockStore implements domain.Store interface.
var _ domain.Store = (*MockStore)(nil)

// Initialize marks the store initialized.
func (m *MockStore) Initialize() error {
	if m.InitErr != nil {
		return m.InitErr
	}
	m.Initialized = true
	return nil
}

// Create stores a copy of task.
func (m *MockStore) Create(task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, ok := m.Tasks[task.ID]; ok {
		return fmt.Errorf("%w: task %s already exists", domain.ErrConflict, task.ID)
	}
	m.Tasks[task.ID] = task.Clone()
	return nil
}

// Get retrieves a copy of a task by ID.
func (m *MockStore) Get(id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if t, ok := m.Tasks[id]; ok {
		return t.Clone(), nil
	}
	return nil, nil
}

// List returns matching tasks, newest first.
func (m *MockStore) List(filter domain.TaskFilter) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var tasks []*domain.Task
	for _, t := range m.Tasks {
		if filter.Matches(t) {
			tasks = append(tasks, t.Clone())
		}
	}
	slices.SortFunc(tasks, func(a, b *domain.Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return tasks, nil
}

// Update applies patch if CheckUpdate passes.
func (m *MockStore) Update(id string, caller domain.Identity, patch domain.TaskPatch) (*domain.Task, error) {
	return m.mutate(id, m.UpdateErr, func(t *domain.Task, _ []domain.WorklogEntry) error {
		if err := domain.CheckUpdate(t, caller); err != nil {
			return err
		}
		return patch.Apply(t)
	})
}

// Assign sets the assignee if CheckAccept passes.
func (m *MockStore) Assign(id string, worker domain.Identity) (*domain.Task, error) {
	return m.mutate(id, m.AssignErr, func(t *domain.Task, _ []domain.WorklogEntry) error {
		if err := domain.CheckAccept(t, worker); err != nil {
			return err
		}
		t.AssignedTo = worker
		return nil
	})
}

// Complete completes the task if CheckComplete passes.
func (m *MockStore) Complete(id string, caller domain.Identity, at time.Time) (*domain.Task, []domain.WorklogEntry, error) {
	var final []domain.WorklogEntry
	task, err := m.mutate(id, m.CompleteErr, func(t *domain.Task, entries []domain.WorklogEntry) error {
		if err := domain.CheckComplete(t, entries, caller); err != nil {
			return err
		}
		t.Status = domain.StatusCompleted
		t.CompletedAt = &at
		final = slices.Clone(entries)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return task, final, nil
}

func (m *MockStore) mutate(id string, injected error, fn func(*domain.Task, []domain.WorklogEntry) error) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if injected != nil {
		return nil, injected
	}
	current, ok := m.Tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	next := current.Clone()
	if err := fn(next, m.Worklogs[id]); err != nil {
		return nil, err
	}
	m.Tasks[id] = next
	return next.Clone(), nil
}

// ClockIn appends entry if CheckClockIn passes.
func (m *MockStore) ClockIn(entry domain.WorklogEntry) (*domain.WorklogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClockInErr != nil {
		return nil, m.ClockInErr
	}
	entries := m.Worklogs[entry.TaskID]
	if err := domain.CheckClockIn(m.Tasks[entry.TaskID], entries, entry.Worker); err != nil {
		return nil, err
	}
	m.Worklogs[entry.TaskID] = append(entries, entry)
	return &entry, nil
}

// ClockOut closes the worker's open entry if CheckClockOut passes.
func (m *MockStore) ClockOut(taskID string, worker domain.Identity, at time.Time) (*domain.WorklogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClockOutErr != nil {
		return nil, m.ClockOutErr
	}
	entries := m.Worklogs[taskID]
	idx, err := domain.CheckClockOut(m.Tasks[taskID], entries, worker, at)
	if err != nil {
		return nil, err
	}
	entries[idx].ClockOutAt = &at
	out := entries[idx]
	return &out, nil
}

// Entries returns a copy of the task's entries.
func (m *MockStore) Entries(taskID string) ([]domain.WorklogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EntriesErr != nil {
		return nil, m.EntriesErr
	}
	return append([]domain.WorklogEntry{}, m.Worklogs[taskID]...), nil
}

// MockNotifier records assignment notices.
type MockNotifier struct {
	Err   error
	Calls []NotifyCall
	mu    sync.Mutex
}

// NotifyCall is one recorded TaskAssigned call.
type NotifyCall struct {
	TaskID   string
	Assignee domain.Identity
}

// Ensure MockNotifier implements domain.AssignmentNotifier interface.
var _ domain.AssignmentNotifier = (*MockNotifier)(nil)

// TaskAssigned records the call and returns Err.
func (m *MockNotifier) TaskAssigned(_ context.Context, taskID string, assignee domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, NotifyCall{TaskID: taskID, Assignee: assignee})
	return m.Err
}

// LogEntry is one recorded log call.
type LogEntry struct {
	Level    string
	TaskID   string
	Category string
	Msg      string
}

// MockLogger records log calls.
type MockLogger struct {
	Entries []LogEntry
	mu      sync.Mutex
}

// NewMockLogger creates a new MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

// Ensure MockLogger implements domain.Logger interface.
var _ domain.Logger = (*MockLogger)(nil)

func (m *MockLogger) record(level, taskID, category, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, LogEntry{Level: level, TaskID: taskID, Category: category, Msg: msg})
}

// Info records an info entry.
func (m *MockLogger) Info(taskID, category, msg string) { m.record("INFO", taskID, category, msg) }

// Debug records a debug entry.
func (m *MockLogger) Debug(taskID, category, msg string) { m.record("DEBUG", taskID, category, msg) }

// Warn records a warning entry.
func (m *MockLogger) Warn(taskID, category, msg string) { m.record("WARN", taskID, category, msg) }

// Error records an error entry.
func (m *MockLogger) Error(taskID, category, msg string) { m.record("ERROR", taskID, category, msg) }

// MockConfigLoader is a test double for domain.ConfigLoader.
type MockConfigLoader struct {
	Config       *domain.Config
	GlobalConfig *domain.Config
	LoadErr      error
	GlobalErr    error
}

// NewMockConfigLoader creates a new MockConfigLoader with default config.
func NewMockConfigLoader() *MockConfigLoader {
	return &MockConfigLoader{
		Config: domain.NewDefaultConfig(),
	}
}

// Ensure MockConfigLoader implements domain.ConfigLoader interface.
var _ domain.ConfigLoader = (*MockConfigLoader)(nil)

// Load returns the configured config or error.
func (m *MockConfigLoader) Load() (*domain.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Config, nil
}

// LoadGlobal returns the configured global config or error.
func (m *MockConfigLoader) LoadGlobal() (*domain.Config, error) {
	if m.GlobalErr != nil {
		return nil, m.GlobalErr
	}
	if m.GlobalConfig != nil {
		return m.GlobalConfig, nil
	}
	return m.Config, nil
}

// MockConfigManager is a test double for domain.ConfigManager.
type MockConfigManager struct {
	InitLocalErr  error
	InitGlobalErr error
	LocalInfo     domain.ConfigInfo
	GlobalInfo    domain.ConfigInfo
	LocalInited   bool
	GlobalInited  bool
}

// Ensure MockConfigManager implements domain.ConfigManager interface.
var _ domain.ConfigManager = (*MockConfigManager)(nil)

// GetLocalConfigInfo returns LocalInfo.
func (m *MockConfigManager) GetLocalConfigInfo() domain.ConfigInfo { return m.LocalInfo }

// GetGlobalConfigInfo returns GlobalInfo.
func (m *MockConfigManager) GetGlobalConfigInfo() domain.ConfigInfo { return m.GlobalInfo }

// InitLocalConfig records the call.
func (m *MockConfigManager) InitLocalConfig() error {
	if m.InitLocalErr != nil {
		return m.InitLocalErr
	}
	m.LocalInited = true
	return nil
}

// InitGlobalConfig records the call.
func (m *MockConfigManager) InitGlobalConfig() error {
	if m.InitGlobalErr != nil {
		return m.InitGlobalErr
	}
	m.GlobalInited = true
	return nil
}
