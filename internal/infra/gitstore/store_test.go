package gitstore

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/hora/internal/domain"
)

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return baseTime.Add(time.Duration(minutes) * time.Minute)
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	repo, err := git.Init(memory.NewStorage(), nil)
	require.NoError(t, err)

	store := NewWithRepo(repo, "hora-test")
	require.NoError(t, store.Initialize())
	return store
}

func newOpenTask(id string, requester domain.Identity, created time.Time) *domain.Task {
	return &domain.Task{
		ID:               id,
		Requester:        requester,
		Status:           domain.StatusOpen,
		Title:            "Walk the dog",
		Category:         domain.CategoryCompanion,
		EstimatedMinutes: 45,
		IsImmediate:      true,
		CreatedAt:        created,
	}
}

func TestOpen_CreatesBareRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.git")

	store, err := Open(path, "")
	require.NoError(t, err)
	assert.False(t, store.IsInitialized())
	require.NoError(t, store.Initialize())
	require.NoError(t, store.Create(newOpenTask("t1", "alice", baseTime)))

	// Reopen sees the same data
	reopened, err := Open(path, "")
	require.NoError(t, err)
	assert.True(t, reopened.IsInitialized())

	got, err := reopened.Get("t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Walk the dog", got.Title)
}

func TestStore_Initialize(t *testing.T) {
	store := setupTestStore(t)

	// Second call should be idempotent
	require.NoError(t, store.Initialize())
	assert.True(t, store.IsInitialized())
}

func TestStore_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)

	scheduled := at(120)
	task := newOpenTask("t1", "alice", baseTime)
	task.IsImmediate = false
	task.ScheduledAt = &scheduled
	task.PrepayAmountCents = 500
	require.NoError(t, store.Create(task))

	got, err := store.Get("t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.CategoryCompanion, got.Category)
	assert.Equal(t, int64(500), got.PrepayAmountCents)
	require.NotNil(t, got.ScheduledAt)
	assert.True(t, got.ScheduledAt.Equal(scheduled))

	err = store.Create(newOpenTask("t1", "bob", baseTime))
	assert.ErrorIs(t, err, domain.ErrConflict)

	missing, err := store.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_List(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Create(newOpenTask("t1", "alice", at(0))))
	require.NoError(t, store.Create(newOpenTask("t2", "bob", at(1))))

	tasks, err := store.List(domain.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t2", tasks[0].ID)

	tasks, err = store.List(domain.TaskFilter{Requester: "alice"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)
}

func TestStore_NamespaceIsolation(t *testing.T) {
	repo, err := git.Init(memory.NewStorage(), nil)
	require.NoError(t, err)

	a := NewWithRepo(repo, "ns-a")
	b := NewWithRepo(repo, "ns-b")
	require.NoError(t, a.Create(newOpenTask("t1", "alice", baseTime)))

	got, err := b.Get("t1")
	require.NoError(t, err)
	assert.Nil(t, got)

	tasks, err := b.List(domain.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestStore_Lifecycle(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Create(newOpenTask("t1", "alice", baseTime)))

	desc := "Around the park"
	_, err := store.Update("t1", "alice", domain.TaskPatch{Description: &desc})
	require.NoError(t, err)

	_, err = store.Assign("t1", "alice")
	assert.ErrorIs(t, err, domain.ErrOwnTask)

	_, err = store.Assign("t1", "bob")
	require.NoError(t, err)

	_, err = store.ClockIn(domain.WorklogEntry{ID: "w1", TaskID: "t1", Worker: "bob", ClockInAt: at(0)})
	require.NoError(t, err)

	_, _, err = store.Complete("t1", "alice", at(10))
	assert.ErrorIs(t, err, domain.ErrSessionOpen)

	closed, err := store.ClockOut("t1", "bob", at(30))
	require.NoError(t, err)
	assert.Equal(t, int64(30), closed.Minutes())

	got, final, err := store.Complete("t1", "alice", at(31))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	require.Len(t, final, 1)
	assert.Equal(t, int64(30), final[0].Minutes())

	_, err = store.Update("t1", "alice", domain.TaskPatch{Description: &desc})
	assert.ErrorIs(t, err, domain.ErrTaskCompleted)

	entries, err := store.Entries("t1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "w1", entries[0].ID)

	stored, err := store.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, desc, stored.Description)
	assert.Equal(t, domain.Identity("bob"), stored.AssignedTo)
}

// openHandles returns n stores over one repository, as separate processes would see it.
func openHandles(t *testing.T, n int) []*Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.git")
	first, err := Open(path, "")
	require.NoError(t, err)
	require.NoError(t, first.Initialize())

	stores := []*Store{first}
	for len(stores) < n {
		s, err := Open(path, "")
		require.NoError(t, err)
		stores = append(stores, s)
	}
	return stores
}

func TestStore_Assign_Concurrent(t *testing.T) {
	const workers = 12
	stores := openHandles(t, workers)
	require.NoError(t, stores[0].Create(newOpenTask("t1", "alice", baseTime)))

	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := stores[i].Assign("t1", domain.Identity(fmt.Sprintf("worker-%d", i)))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)
}

func TestStore_ClockIn_Concurrent(t *testing.T) {
	const workers = 12
	stores := openHandles(t, workers)
	require.NoError(t, stores[0].Create(newOpenTask("t1", "alice", baseTime)))
	_, err := stores[0].Assign("t1", "bob")
	require.NoError(t, err)

	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := stores[i].ClockIn(domain.WorklogEntry{
				ID: fmt.Sprintf("w%d", i), TaskID: "t1", Worker: "bob", ClockInAt: at(0),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyClockedIn)
	}
	assert.Equal(t, 1, succeeded)

	entries, err := stores[0].Entries("t1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsOpen())
}

func TestStore_Mutate_RetriesOnMovedRef(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Create(newOpenTask("t1", "alice", baseTime)))

	// Another process assigns the task between our read and our swap.
	attempts := 0
	_, err := store.mutate("t1", func(doc *document) error {
		attempts++
		if attempts == 1 {
			rival := &document{Task: doc.Task.Clone(), Entries: doc.Entries}
			rival.Task.AssignedTo = "carol"
			hash, err := store.writeDocument(rival)
			require.NoError(t, err)
			require.NoError(t, store.repo.Storer.SetReference(
				plumbing.NewHashReference(store.taskRef("t1"), hash)))
		}
		if err := domain.CheckAccept(doc.Task, "bob"); err != nil {
			return err
		}
		doc.Task.AssignedTo = "bob"
		return nil
	})

	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)
	assert.Equal(t, 2, attempts)

	got, err := store.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, domain.Identity("carol"), got.AssignedTo)
}

func TestStore_Mutate_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Assign("missing", "bob")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = store.ClockOut("missing", "bob", baseTime)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestOpenWithEncryption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.git")
	key := strings.Repeat("ab", 32)

	store, err := OpenWithEncryption(path, "", key)
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	require.NoError(t, store.Create(newOpenTask("t1", "alice", baseTime)))

	ref, err := store.repo.Reference(store.taskRef("t1"), true)
	require.NoError(t, err)
	raw, err := store.readBlob(ref.Hash())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Walk the dog")

	reopened, err := OpenWithEncryption(path, "", key)
	require.NoError(t, err)
	got, err := reopened.Get("t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Walk the dog", got.Title)

	plain, err := Open(path, "")
	require.NoError(t, err)
	_, err = plain.Get("t1")
	assert.Error(t, err)
}

func TestOpenWithEncryption_InvalidKey(t *testing.T) {
	_, err := OpenWithEncryption(filepath.Join(t.TempDir(), "tasks.git"), "", "not-a-key")
	assert.Error(t, err)
}
