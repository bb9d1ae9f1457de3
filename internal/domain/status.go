package domain

// Status represents the lifecycle state of a task.
// Assignment is not a status: an open task is either unassigned or assigned,
// which is tracked by Task.AssignedTo.
type Status string

const (
	StatusOpen      Status = "open"      // Posted, possibly assigned, work may be logged
	StatusCompleted Status = "completed" // Terminal
)

// AllStatuses returns all valid status values.
func AllStatuses() []Status {
	return []Status{StatusOpen, StatusCompleted}
}

// transitions defines the allowed status transitions.
var transitions = map[Status][]Status{
	StatusOpen:      {StatusCompleted},
	StatusCompleted: {},
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, ok := transitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// Display returns a human-readable representation of the status.
func (s Status) Display() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusCompleted:
		return true
	default:
		return false
	}
}
