// Package jsonstore provides a JSON file-based implementation of domain.Store.
//
// Every mutation runs under an exclusive flock on a sidecar lock file, so the
// precondition check and the write form one atomic step across processes.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/runoshun/hora/internal/domain"
)

// storeData represents the JSON file structure.
// Fields are ordered to minimize memory padding.
type storeData struct {
	Tasks    map[string]*domain.Task          `json:"tasks"`
	Worklogs map[string][]domain.WorklogEntry `json:"worklogs"`
	Meta     meta                             `json:"meta"`
}

// meta contains store metadata.
type meta struct {
	Schema int `json:"schema"`
}

const schemaVersion = 1

// Store implements domain.Store using a JSON file.
type Store struct {
	path     string
	lockPath string
	mu       sync.Mutex // serializes writers within this process; flock covers other processes
}

// New creates a new Store for the given file path.
// The file does not need to exist; Initialize creates it.
func New(path string) *Store {
	return &Store{
		path:     path,
		lockPath: path + ".lock",
	}
}

// Create stores a new task.
func (s *Store) Create(task *domain.Task) error {
	return s.withLockWrite(func(data *storeData) error {
		if _, ok := data.Tasks[task.ID]; ok {
			return fmt.Errorf("%w: task %s already exists", domain.ErrConflict, task.ID)
		}
		data.Tasks[task.ID] = task.Clone()
		return nil
	})
}

// Get retrieves a task by ID.
func (s *Store) Get(id string) (*domain.Task, error) {
	var task *domain.Task
	err := s.withLock(func(data *storeData) error {
		if t, ok := data.Tasks[id]; ok {
			task = t
		}
		return nil
	})
	return task, err
}

// List retrieves tasks matching the filter, newest first.
func (s *Store) List(filter domain.TaskFilter) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := s.withLock(func(data *storeData) error {
		for _, t := range data.Tasks {
			if filter.Matches(t) {
				tasks = append(tasks, t)
			}
		}
		return nil
	})

	slices.SortFunc(tasks, func(a, b *domain.Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	return tasks, err
}

// Update applies patch if the caller may edit the task.
func (s *Store) Update(id string, caller domain.Identity, patch domain.TaskPatch) (*domain.Task, error) {
	return s.mutateTask(id, func(task *domain.Task, _ []domain.WorklogEntry) error {
		if err := domain.CheckUpdate(task, caller); err != nil {
			return err
		}
		return patch.Apply(task)
	})
}

// Assign sets the assignee if the task is still open and unclaimed.
func (s *Store) Assign(id string, worker domain.Identity) (*domain.Task, error) {
	return s.mutateTask(id, func(task *domain.Task, _ []domain.WorklogEntry) error {
		if err := domain.CheckAccept(task, worker); err != nil {
			return err
		}
		task.AssignedTo = worker
		return nil
	})
}

// Complete marks the task completed if the completion guard passes.
func (s *Store) Complete(id string, caller domain.Identity, at time.Time) (*domain.Task, []domain.WorklogEntry, error) {
	var final []domain.WorklogEntry
	task, err := s.mutateTask(id, func(task *domain.Task, entries []domain.WorklogEntry) error {
		if err := domain.CheckComplete(task, entries, caller); err != nil {
			return err
		}
		task.Status = domain.StatusCompleted
		task.CompletedAt = &at
		final = slices.Clone(entries)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return task, final, nil
}

// ClockIn stores entry as a new open session.
func (s *Store) ClockIn(entry domain.WorklogEntry) (*domain.WorklogEntry, error) {
	var out domain.WorklogEntry
	err := s.withLockWrite(func(data *storeData) error {
		entries := data.Worklogs[entry.TaskID]
		if err := domain.CheckClockIn(data.Tasks[entry.TaskID], entries, entry.Worker); err != nil {
			return err
		}
		data.Worklogs[entry.TaskID] = append(entries, entry)
		out = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ClockOut closes the worker's open session.
func (s *Store) ClockOut(taskID string, worker domain.Identity, at time.Time) (*domain.WorklogEntry, error) {
	var out domain.WorklogEntry
	err := s.withLockWrite(func(data *storeData) error {
		entries := data.Worklogs[taskID]
		idx, err := domain.CheckClockOut(data.Tasks[taskID], entries, worker, at)
		if err != nil {
			return err
		}
		entries[idx].ClockOutAt = &at
		out = entries[idx]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Entries returns all entries of a task.
func (s *Store) Entries(taskID string) ([]domain.WorklogEntry, error) {
	entries := []domain.WorklogEntry{} // Return empty slice, not nil
	err := s.withLock(func(data *storeData) error {
		entries = append(entries, data.Worklogs[taskID]...)
		return nil
	})
	return entries, err
}

// IsInitialized checks if the store file exists.
func (s *Store) IsInitialized() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Initialize creates an empty store file if it doesn't exist.
func (s *Store) Initialize() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return nil // Already exists
	}

	data := &storeData{
		Meta:     meta{Schema: schemaVersion},
		Tasks:    make(map[string]*domain.Task),
		Worklogs: make(map[string][]domain.WorklogEntry),
	}

	return s.write(data)
}

// mutateTask runs fn against a copy of the task and its entries under the
// write lock and stores the copy only if fn succeeds.
func (s *Store) mutateTask(id string, fn func(*domain.Task, []domain.WorklogEntry) error) (*domain.Task, error) {
	var out *domain.Task
	err := s.withLockWrite(func(data *storeData) error {
		current, ok := data.Tasks[id]
		if !ok {
			return domain.ErrTaskNotFound
		}
		next := current.Clone()
		if err := fn(next, data.Worklogs[id]); err != nil {
			return err
		}
		data.Tasks[id] = next
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// withLock executes fn with a shared (read) lock.
func (s *Store) withLock(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_SH)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	return fn(data)
}

// withLockWrite executes fn with an exclusive (write) lock and writes the result.
// If fn fails, nothing is written.
func (s *Store) withLockWrite(fn func(*storeData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	if err := fn(data); err != nil {
		return err
	}

	return s.write(data)
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	dir := filepath.Dir(s.lockPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return lock, nil
}

func (s *Store) releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

func (s *Store) read() (*storeData, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotInitialized
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var data storeData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parse store file: %w", err)
	}

	// Ensure maps are initialized
	if data.Tasks == nil {
		data.Tasks = make(map[string]*domain.Task)
	}
	if data.Worklogs == nil {
		data.Worklogs = make(map[string][]domain.WorklogEntry)
	}

	return &data, nil
}

func (s *Store) write(data *storeData) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store data: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath) // Clean up
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// Ensure Store implements domain.Store.
var _ domain.Store = (*Store)(nil)
