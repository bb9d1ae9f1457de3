// Package gitstore provides a Git plumbing-based implementation of domain.Store.
package gitstore

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage"
	"gopkg.in/yaml.v3"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/infra/crypto"
)

// maxCASAttempts bounds how often a mutation re-reads a ref that another
// writer moved underneath it.
const maxCASAttempts = 8

// Store implements domain.Store using Git plumbing (refs and blobs).
//
// Data structure:
//
//	refs/<namespace>/
//	  initialized  → blob (marker)
//	  tasks/
//	    <id>       → blob (task and worklog YAML)
//
// A task and its worklog share one ref, so every mutation is a single
// compare-and-swap of that ref from the hash it was read at.
type Store struct {
	repo      *git.Repository
	encryptor *crypto.Encryptor // nil stores plain YAML
	namespace string            // e.g., "hora"
	mu        sync.RWMutex
}

// document is the YAML blob stored per task.
type document struct {
	Task    *domain.Task          `yaml:"task"`
	Entries []domain.WorklogEntry `yaml:"entries"`
}

// Open opens the repository at path, creating a bare repository if none exists.
func Open(path, namespace string) (*Store, error) {
	return OpenWithEncryption(path, namespace, "")
}

// OpenWithEncryption is Open with task documents sealed by encryptionKey.
// An empty key disables encryption.
func OpenWithEncryption(path, namespace, encryptionKey string) (*Store, error) {
	var encryptor *crypto.Encryptor
	if encryptionKey != "" {
		var err error
		encryptor, err = crypto.NewEncryptor(encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("create encryptor: %w", err)
		}
	}

	repo, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(path, true)
	}
	if err != nil {
		return nil, fmt.Errorf("open git repository: %w", err)
	}
	return NewWithRepoAndEncryptor(repo, namespace, encryptor), nil
}

// NewWithRepo creates a new Store with an existing repository instance.
func NewWithRepo(repo *git.Repository, namespace string) *Store {
	return NewWithRepoAndEncryptor(repo, namespace, nil)
}

// NewWithRepoAndEncryptor creates a new Store with an existing repository and encryptor.
func NewWithRepoAndEncryptor(repo *git.Repository, namespace string, encryptor *crypto.Encryptor) *Store {
	if namespace == "" {
		namespace = domain.DefaultNamespace
	}
	return &Store{
		repo:      repo,
		encryptor: encryptor,
		namespace: namespace,
	}
}

// refPrefix returns the ref prefix for this namespace.
func (s *Store) refPrefix() string {
	return "refs/" + s.namespace + "/"
}

// taskRef returns the ref name for a task.
func (s *Store) taskRef(id string) plumbing.ReferenceName {
	return plumbing.ReferenceName(s.refPrefix() + "tasks/" + id)
}

// initializedRef returns the ref name for the initialized marker.
func (s *Store) initializedRef() plumbing.ReferenceName {
	return plumbing.ReferenceName(s.refPrefix() + "initialized")
}

// Create stores a new task with an empty worklog.
func (s *Store) Create(task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := s.taskRef(task.ID)
	if _, err := s.repo.Reference(name, true); err == nil {
		return fmt.Errorf("%w: task %s already exists", domain.ErrConflict, task.ID)
	} else if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("get task ref: %w", err)
	}

	hash, err := s.writeDocument(&document{Task: task.Clone(), Entries: []domain.WorklogEntry{}})
	if err != nil {
		return err
	}

	ref := plumbing.NewHashReference(name, hash)
	if err := s.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("set task ref: %w", err)
	}
	return nil
}

// Get retrieves a task by ID.
func (s *Store) Get(id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, _, err := s.load(id)
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.Task, nil
}

// List retrieves tasks matching the filter, newest first.
func (s *Store) List(filter domain.TaskFilter) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*domain.Task
	prefix := s.refPrefix() + "tasks/"

	refs, err := s.repo.References()
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}

	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if !strings.HasPrefix(ref.Name().String(), prefix) {
			return nil
		}

		doc, readErr := s.readDocument(ref.Hash())
		if readErr != nil {
			return readErr
		}
		if filter.Matches(doc.Task) {
			tasks = append(tasks, doc.Task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(tasks, func(a, b *domain.Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	return tasks, nil
}

// Update applies patch if the caller may edit the task.
func (s *Store) Update(id string, caller domain.Identity, patch domain.TaskPatch) (*domain.Task, error) {
	doc, err := s.mutate(id, func(doc *document) error {
		if err := domain.CheckUpdate(doc.Task, caller); err != nil {
			return err
		}
		return patch.Apply(doc.Task)
	})
	if err != nil {
		return nil, err
	}
	return doc.Task, nil
}

// Assign sets the assignee if the task is still open and unclaimed.
func (s *Store) Assign(id string, worker domain.Identity) (*domain.Task, error) {
	doc, err := s.mutate(id, func(doc *document) error {
		if err := domain.CheckAccept(doc.Task, worker); err != nil {
			return err
		}
		doc.Task.AssignedTo = worker
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc.Task, nil
}

// Complete marks the task completed if the completion guard passes.
func (s *Store) Complete(id string, caller domain.Identity, at time.Time) (*domain.Task, []domain.WorklogEntry, error) {
	doc, err := s.mutate(id, func(doc *document) error {
		if err := domain.CheckComplete(doc.Task, doc.Entries, caller); err != nil {
			return err
		}
		doc.Task.Status = domain.StatusCompleted
		doc.Task.CompletedAt = &at
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return doc.Task, doc.Entries, nil
}

// ClockIn stores entry as a new open session.
func (s *Store) ClockIn(entry domain.WorklogEntry) (*domain.WorklogEntry, error) {
	_, err := s.mutate(entry.TaskID, func(doc *document) error {
		if err := domain.CheckClockIn(doc.Task, doc.Entries, entry.Worker); err != nil {
			return err
		}
		doc.Entries = append(doc.Entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ClockOut closes the worker's open session.
func (s *Store) ClockOut(taskID string, worker domain.Identity, at time.Time) (*domain.WorklogEntry, error) {
	var out domain.WorklogEntry
	_, err := s.mutate(taskID, func(doc *document) error {
		idx, err := domain.CheckClockOut(doc.Task, doc.Entries, worker, at)
		if err != nil {
			return err
		}
		doc.Entries[idx].ClockOutAt = &at
		out = doc.Entries[idx]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Entries returns all entries of a task.
func (s *Store) Entries(taskID string) ([]domain.WorklogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, _, err := s.load(taskID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return []domain.WorklogEntry{}, nil
	}
	return doc.Entries, nil
}

// Initialize creates the initialized marker if it doesn't exist.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.repo.Reference(s.initializedRef(), true)
	if err == nil {
		return nil // Already initialized
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("check initialized ref: %w", err)
	}

	hash, err := s.writeBlob([]byte("initialized"))
	if err != nil {
		return err
	}
	ref := plumbing.NewHashReference(s.initializedRef(), hash)
	if err := s.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("set initialized ref: %w", err)
	}
	return nil
}

// IsInitialized checks if the store has been initialized.
func (s *Store) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := s.repo.Reference(s.initializedRef(), true)
	return err == nil
}

// mutate reads the task document, applies fn and swaps the ref from the
// hash it was read at to the new blob. If another process moved the ref in
// between, the whole step is retried on the fresh document, so fn always
// judges the state it replaces.
func (s *Store) mutate(id string, fn func(*document) error) (*document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		doc, old, err := s.load(id)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, domain.ErrTaskNotFound
		}

		if err := fn(doc); err != nil {
			return nil, err
		}

		hash, err := s.writeDocument(doc)
		if err != nil {
			return nil, err
		}

		next := plumbing.NewHashReference(old.Name(), hash)
		err = s.repo.Storer.CheckAndSetReference(next, old)
		if errors.Is(err, storage.ErrReferenceHasChanged) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("swap task ref: %w", err)
		}
		return doc, nil
	}

	return nil, fmt.Errorf("%w: task %s kept changing during update", domain.ErrConflict, id)
}

// load reads the document of a task and the ref it was read from.
// Returns nil document if the task does not exist. Caller must hold the lock.
func (s *Store) load(id string) (*document, *plumbing.Reference, error) {
	ref, err := s.repo.Reference(s.taskRef(id), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("get task ref: %w", err)
	}

	doc, err := s.readDocument(ref.Hash())
	if err != nil {
		return nil, nil, err
	}
	return doc, ref, nil
}

func (s *Store) readDocument(hash plumbing.Hash) (*document, error) {
	data, err := s.readBlob(hash)
	if err != nil {
		return nil, fmt.Errorf("read task: %w", err)
	}
	if s.encryptor != nil {
		if data, err = s.encryptor.Decrypt(data); err != nil {
			return nil, fmt.Errorf("decrypt task: %w", err)
		}
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	if doc.Task == nil {
		return nil, errors.New("decode task: missing task section")
	}
	if doc.Entries == nil {
		doc.Entries = []domain.WorklogEntry{}
	}
	return &doc, nil
}

func (s *Store) writeDocument(doc *document) (plumbing.Hash, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("marshal task: %w", err)
	}
	if s.encryptor != nil {
		if data, err = s.encryptor.Encrypt(data); err != nil {
			return plumbing.ZeroHash, fmt.Errorf("encrypt task: %w", err)
		}
	}
	return s.writeBlob(data)
}

// writeBlob writes data to a blob and returns the hash.
func (s *Store) writeBlob(data []byte) (plumbing.Hash, error) {
	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))

	writer, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("create blob writer: %w", err)
	}

	if _, writeErr := writer.Write(data); writeErr != nil {
		_ = writer.Close()
		return plumbing.ZeroHash, fmt.Errorf("write blob: %w", writeErr)
	}
	_ = writer.Close()

	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("store blob: %w", err)
	}

	return hash, nil
}

// readBlob reads the content of a blob.
func (s *Store) readBlob(hash plumbing.Hash) ([]byte, error) {
	blob, err := s.repo.BlobObject(hash)
	if err != nil {
		return nil, fmt.Errorf("get blob: %w", err)
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	defer func() { _ = reader.Close() }()

	return io.ReadAll(reader)
}

// Ensure Store implements domain.Store.
var _ domain.Store = (*Store)(nil)
