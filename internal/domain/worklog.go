package domain

import (
	"slices"
	"time"
)

// WorklogEntry is one clock-in/clock-out session of a worker on a task.
// Fields are ordered to minimize memory padding.
type WorklogEntry struct {
	ClockInAt  time.Time  `json:"clock_in_at" yaml:"clockInAt"`
	ClockOutAt *time.Time `json:"clock_out_at,omitempty" yaml:"clockOutAt,omitempty"` // nil while the session is open
	ID         string     `json:"id" yaml:"id"`
	TaskID     string     `json:"task_id" yaml:"taskID"`
	Worker     Identity   `json:"worker" yaml:"worker"`
}

// IsOpen returns true while the session has not been clocked out.
func (e *WorklogEntry) IsOpen() bool {
	return e.ClockOutAt == nil
}

// Minutes returns the billable minutes of a closed entry.
// Partial minutes round up; open and zero-length entries count zero.
func (e *WorklogEntry) Minutes() int64 {
	if e.ClockOutAt == nil {
		return 0
	}
	d := e.ClockOutAt.Sub(e.ClockInAt)
	if d <= 0 {
		return 0
	}
	m := int64(d / time.Minute)
	if d%time.Minute != 0 {
		m++
	}
	return m
}

// Worklog is the read-only aggregate of a task's entries.
type Worklog struct {
	Entries      []WorklogEntry `json:"entries"`
	TotalMinutes int64          `json:"total_minutes"`
	HasOpen      bool           `json:"has_open"`
}

// Summarize builds the aggregate for entries, ordered by clock-in time.
func Summarize(entries []WorklogEntry) Worklog {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b WorklogEntry) int {
		return a.ClockInAt.Compare(b.ClockInAt)
	})
	if sorted == nil {
		sorted = []WorklogEntry{}
	}

	w := Worklog{Entries: sorted}
	for i := range sorted {
		if sorted[i].IsOpen() {
			w.HasOpen = true
			continue
		}
		w.TotalMinutes += sorted[i].Minutes()
	}
	return w
}

// OpenEntryIndex returns the index of the open entry of worker, or -1.
func OpenEntryIndex(entries []WorklogEntry, worker Identity) int {
	for i := range entries {
		if entries[i].Worker == worker && entries[i].IsOpen() {
			return i
		}
	}
	return -1
}
