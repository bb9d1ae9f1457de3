// Package domain contains core business entities and interfaces.
package domain

import (
	"strings"
	"time"
)

// Identity is a verified caller identity supplied by the external identity provider.
// The empty Identity means "nobody".
type Identity string

// IsZero reports whether the identity is empty.
func (id Identity) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Category classifies a task.
type Category string

const (
	CategoryTask      Category = "task"
	CategoryCompanion Category = "companion"
)

// IsValid returns true if the category is a known value.
func (c Category) IsValid() bool {
	return c == CategoryTask || c == CategoryCompanion
}

// Task represents a unit of paid work posted by a requester.
// Fields are ordered to minimize memory padding.
type Task struct {
	CreatedAt         time.Time  `json:"created_at" yaml:"createdAt"`
	ScheduledAt       *time.Time `json:"scheduled_at,omitempty" yaml:"scheduledAt,omitempty"` // Required iff not immediate
	CompletedAt       *time.Time `json:"completed_at,omitempty" yaml:"completedAt,omitempty"` // Set once on completion
	ID                string     `json:"id" yaml:"id"`
	Requester         Identity   `json:"requester" yaml:"requester"`                         // Immutable after creation
	AssignedTo        Identity   `json:"assigned_to,omitempty" yaml:"assignedTo,omitempty"` // Empty until accepted, never cleared
	Status            Status     `json:"status" yaml:"status"`
	Title             string     `json:"title" yaml:"title"`
	Description       string     `json:"description,omitempty" yaml:"description,omitempty"`
	Category          Category   `json:"category" yaml:"category"`
	LocationText      string     `json:"location_text,omitempty" yaml:"locationText,omitempty"`
	EstimatedMinutes  int        `json:"estimated_minutes" yaml:"estimatedMinutes"`
	PrepayAmountCents int64      `json:"prepay_amount_cents" yaml:"prepayAmountCents"`
	IsImmediate       bool       `json:"is_immediate" yaml:"isImmediate"`
}

// IsAssigned returns true if a worker has accepted the task.
func (t *Task) IsAssigned() bool {
	return !t.AssignedTo.IsZero()
}

// IsParticipant returns true if id is the requester or the assignee.
func (t *Task) IsParticipant(id Identity) bool {
	if id.IsZero() {
		return false
	}
	return id == t.Requester || (t.IsAssigned() && id == t.AssignedTo)
}

// Phase returns a display label combining status and assignment.
func (t *Task) Phase() string {
	if t.Status == StatusOpen {
		if t.IsAssigned() {
			return "open, assigned"
		}
		return "open, unassigned"
	}
	return t.Status.Display()
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	if t.ScheduledAt != nil {
		at := *t.ScheduledAt
		c.ScheduledAt = &at
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

// Validate checks the caller-supplied fields of the task.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if t.EstimatedMinutes <= 0 {
		return ErrInvalidEstimate
	}
	if t.PrepayAmountCents < 0 {
		return ErrNegativePrepay
	}
	if !t.Category.IsValid() {
		return ErrInvalidCategory
	}
	if t.IsImmediate == (t.ScheduledAt != nil) {
		return ErrScheduleIncoherent
	}
	return nil
}

// TaskPatch describes an edit by the requester. Nil fields are left unchanged.
// Requester, assignee and status cannot be patched.
type TaskPatch struct {
	ScheduledAt       *time.Time
	Title             *string
	Description       *string
	Category          *Category
	LocationText      *string
	EstimatedMinutes  *int
	PrepayAmountCents *int64
	IsImmediate       *bool
}

// IsEmpty returns true if the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.ScheduledAt == nil && p.Title == nil && p.Description == nil && p.Category == nil &&
		p.LocationText == nil && p.EstimatedMinutes == nil && p.PrepayAmountCents == nil && p.IsImmediate == nil
}

// Apply writes the patch onto t and re-validates the result.
// Switching to immediate clears the schedule; setting a schedule clears immediate.
func (p TaskPatch) Apply(t *Task) error {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.LocationText != nil {
		t.LocationText = strings.TrimSpace(*p.LocationText)
	}
	if p.EstimatedMinutes != nil {
		t.EstimatedMinutes = *p.EstimatedMinutes
	}
	if p.PrepayAmountCents != nil {
		t.PrepayAmountCents = *p.PrepayAmountCents
	}
	if p.IsImmediate != nil {
		t.IsImmediate = *p.IsImmediate
		if t.IsImmediate && p.ScheduledAt == nil {
			t.ScheduledAt = nil
		}
	}
	if p.ScheduledAt != nil {
		at := *p.ScheduledAt
		t.ScheduledAt = &at
		if p.IsImmediate == nil {
			t.IsImmediate = false
		}
	}
	return t.Validate()
}

// TaskFilter specifies criteria for listing tasks.
// Zero values match everything.
type TaskFilter struct {
	Requester  Identity
	AssignedTo Identity
	Statuses   []Status
}

// Matches returns true if the task satisfies the filter.
func (f TaskFilter) Matches(t *Task) bool {
	if !f.Requester.IsZero() && t.Requester != f.Requester {
		return false
	}
	if !f.AssignedTo.IsZero() && t.AssignedTo != f.AssignedTo {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if t.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
