// Package pgstore provides a PostgreSQL implementation of domain.Store.
//
// Accept is one conditional UPDATE. Every other mutation locks the task row
// with SELECT ... FOR UPDATE, evaluates the domain check against what it
// read, and writes in the same transaction. Clock-ins lock the same row, so
// completion and a late clock-in cannot both succeed.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/runoshun/hora/internal/domain"
)

const queryTimeout = 10 * time.Second

const uniqueViolation = "23505"

const schema = `
create table if not exists hora_tasks (
  id                  text primary key,
  title               text not null,
  description         text not null default '',
  category            text not null,
  location_text       text not null default '',
  estimated_minutes   integer not null,
  prepay_amount_cents bigint not null default 0,
  is_immediate        boolean not null,
  scheduled_at        timestamptz,
  requester           text not null,
  assigned_to         text not null default '',
  status              text not null default 'open',
  created_at          timestamptz not null,
  completed_at        timestamptz
);
create index if not exists hora_tasks_requester_idx on hora_tasks (requester, created_at desc);
create index if not exists hora_tasks_assigned_idx on hora_tasks (assigned_to, created_at desc);
create table if not exists hora_worklogs (
  id           text primary key,
  task_id      text not null references hora_tasks (id),
  worker       text not null,
  clock_in_at  timestamptz not null,
  clock_out_at timestamptz
);
create unique index if not exists hora_worklogs_one_open_idx
  on hora_worklogs (task_id, worker) where clock_out_at is null;
`

const taskColumns = `id, title, description, category, location_text,
  estimated_minutes, prepay_amount_cents, is_immediate, scheduled_at,
  requester, assigned_to, status, created_at, completed_at`

const entryColumns = `id, task_id, worker, clock_in_at, clock_out_at`

// Store implements domain.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Initialize creates tables and indexes if they don't exist.
func (s *Store) Initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Create stores a new task.
func (s *Store) Create(task *domain.Task) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
    insert into hora_tasks (`+taskColumns+`)
    values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    on conflict (id) do nothing
  `, taskArgs(task)...)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: task %s already exists", domain.ErrConflict, task.ID)
	}
	return nil
}

// Get retrieves a task by ID.
func (s *Store) Get(id string) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return getTask(ctx, s.pool, id, false)
}

// List retrieves tasks matching the filter, newest first.
func (s *Store) List(filter domain.TaskFilter) ([]*domain.Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var (
		conds []string
		args  []any
	)
	if !filter.Requester.IsZero() {
		args = append(args, string(filter.Requester))
		conds = append(conds, "requester = $"+strconv.Itoa(len(args)))
	}
	if !filter.AssignedTo.IsZero() {
		args = append(args, string(filter.AssignedTo))
		conds = append(conds, "assigned_to = $"+strconv.Itoa(len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, statuses)
		conds = append(conds, "status = any($"+strconv.Itoa(len(args))+")")
	}

	query := "select " + taskColumns + " from hora_tasks"
	if len(conds) > 0 {
		query += " where " + strings.Join(conds, " and ")
	}
	query += " order by created_at desc, id asc"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update applies patch if the caller may edit the task.
func (s *Store) Update(id string, caller domain.Identity, patch domain.TaskPatch) (*domain.Task, error) {
	var out *domain.Task
	err := s.inTx(func(ctx context.Context, tx pgx.Tx) error {
		task, err := getTask(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := domain.CheckUpdate(task, caller); err != nil {
			return err
		}
		if err := patch.Apply(task); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
      update hora_tasks set title=$2, description=$3, category=$4, location_text=$5,
        estimated_minutes=$6, prepay_amount_cents=$7, is_immediate=$8, scheduled_at=$9
      where id=$1
    `, task.ID, task.Title, task.Description, string(task.Category), task.LocationText,
			task.EstimatedMinutes, task.PrepayAmountCents, task.IsImmediate, task.ScheduledAt)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		out = task
		return nil
	})
	return out, err
}

// Assign sets the assignee if the task is still open and unclaimed.
// The precondition is the WHERE clause, so of any number of concurrent
// callers exactly one row update happens.
func (s *Store) Assign(id string, worker domain.Identity) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx, `
    update hora_tasks set assigned_to=$2
    where id=$1 and status='open' and assigned_to='' and requester<>$2
    returning `+taskColumns, id, string(worker))
	task, err := scanTask(row)
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("assign task: %w", err)
	}

	// No row matched; report which precondition failed.
	current, err := getTask(ctx, s.pool, id, false)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckAccept(current, worker); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: task %s changed during accept", domain.ErrConflict, id)
}

// Complete marks the task completed if the completion guard passes.
func (s *Store) Complete(id string, caller domain.Identity, at time.Time) (*domain.Task, []domain.WorklogEntry, error) {
	var out *domain.Task
	var final []domain.WorklogEntry
	err := s.inTx(func(ctx context.Context, tx pgx.Tx) error {
		task, err := getTask(ctx, tx, id, true)
		if err != nil {
			return err
		}
		entries, err := listEntries(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := domain.CheckComplete(task, entries, caller); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`update hora_tasks set status=$2, completed_at=$3 where id=$1`,
			id, string(domain.StatusCompleted), at); err != nil {
			return fmt.Errorf("complete task: %w", err)
		}
		task.Status = domain.StatusCompleted
		task.CompletedAt = &at
		out = task
		final = entries
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, final, nil
}

// ClockIn stores entry as a new open session.
func (s *Store) ClockIn(entry domain.WorklogEntry) (*domain.WorklogEntry, error) {
	err := s.inTx(func(ctx context.Context, tx pgx.Tx) error {
		task, err := getTask(ctx, tx, entry.TaskID, true)
		if err != nil {
			return err
		}
		entries, err := listEntries(ctx, tx, entry.TaskID)
		if err != nil {
			return err
		}
		if err := domain.CheckClockIn(task, entries, entry.Worker); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
      insert into hora_worklogs (`+entryColumns+`) values ($1,$2,$3,$4,null)
    `, entry.ID, entry.TaskID, string(entry.Worker), entry.ClockInAt)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyClockedIn
		}
		if err != nil {
			return fmt.Errorf("insert worklog: %w", err)
		}
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
	err := s.inTx(func(ctx context.Context, tx pgx.Tx) error {
		task, err := getTask(ctx, tx, taskID, true)
		if err != nil {
			return err
		}
		entries, err := listEntries(ctx, tx, taskID)
		if err != nil {
			return err
		}
		idx, err := domain.CheckClockOut(task, entries, worker, at)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`update hora_worklogs set clock_out_at=$2 where id=$1`, entries[idx].ID, at); err != nil {
			return fmt.Errorf("close worklog: %w", err)
		}
		out = entries[idx]
		out.ClockOutAt = &at
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Entries returns all entries of a task.
func (s *Store) Entries(taskID string) ([]domain.WorklogEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return listEntries(ctx, s.pool, taskID)
}

// inTx runs fn in a transaction that is committed only if fn succeeds.
func (s *Store) inTx(fn func(context.Context, pgx.Tx) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
}

// querier is the subset of pgxpool.Pool and pgx.Tx used for reads.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// getTask reads one task. With lock set, the row stays locked until the
// transaction ends. Returns nil if not found, or ErrTaskNotFound when locking.
func getTask(ctx context.Context, q querier, id string, lock bool) (*domain.Task, error) {
	query := "select " + taskColumns + " from hora_tasks where id=$1"
	if lock {
		query += " for update"
	}
	task, err := scanTask(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		if lock {
			return nil, domain.ErrTaskNotFound
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func listEntries(ctx context.Context, q querier, taskID string) ([]domain.WorklogEntry, error) {
	rows, err := q.Query(ctx, `
    select `+entryColumns+` from hora_worklogs
    where task_id=$1 order by clock_in_at asc, id asc
  `, taskID)
	if err != nil {
		return nil, fmt.Errorf("list worklog: %w", err)
	}
	defer rows.Close()

	entries := []domain.WorklogEntry{}
	for rows.Next() {
		var (
			e      domain.WorklogEntry
			worker string
		)
		if err := rows.Scan(&e.ID, &e.TaskID, &worker, &e.ClockInAt, &e.ClockOutAt); err != nil {
			return nil, fmt.Errorf("scan worklog: %w", err)
		}
		e.Worker = domain.Identity(worker)
		e.ClockInAt = e.ClockInAt.UTC()
		if e.ClockOutAt != nil {
			out := e.ClockOutAt.UTC()
			e.ClockOutAt = &out
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		t                                      domain.Task
		category, requester, assigned, status string
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &category, &t.LocationText,
		&t.EstimatedMinutes, &t.PrepayAmountCents, &t.IsImmediate, &t.ScheduledAt,
		&requester, &assigned, &status, &t.CreatedAt, &t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Category = domain.Category(category)
	t.Requester = domain.Identity(requester)
	t.AssignedTo = domain.Identity(assigned)
	t.Status = domain.Status(status)
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

func taskArgs(t *domain.Task) []any {
	return []any{
		t.ID, t.Title, t.Description, string(t.Category), t.LocationText,
		t.EstimatedMinutes, t.PrepayAmountCents, t.IsImmediate, t.ScheduledAt,
		string(t.Requester), string(t.AssignedTo), string(t.Status), t.CreatedAt, t.CompletedAt,
	}
}

// Ensure Store implements domain.Store.
var _ domain.Store = (*Store)(nil)
