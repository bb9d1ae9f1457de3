package domain

import "time"

// The Check functions are the preconditions of every task mutation.
// Storage backends evaluate them inside their atomic write, so a check and
// the write it guards are never separated by another writer.

// CheckUpdate guards an edit of the task's fields.
func CheckUpdate(task *Task, caller Identity) error {
	if task == nil {
		return ErrTaskNotFound
	}
	if caller != task.Requester {
		return ErrNotRequester
	}
	if task.Status != StatusOpen {
		return ErrTaskCompleted
	}
	return nil
}

// CheckAccept guards the assignment of the task to caller.
func CheckAccept(task *Task, caller Identity) error {
	if task == nil {
		return ErrTaskNotFound
	}
	if task.Status != StatusOpen {
		return ErrTaskCompleted
	}
	if caller == task.Requester {
		return ErrOwnTask
	}
	if task.IsAssigned() {
		return ErrAlreadyAssigned
	}
	return nil
}

// CheckClockIn guards opening a new session by caller.
func CheckClockIn(task *Task, entries []WorklogEntry, caller Identity) error {
	if task == nil {
		return ErrTaskNotFound
	}
	if task.Status != StatusOpen {
		return ErrTaskCompleted
	}
	if !task.IsAssigned() || task.AssignedTo != caller {
		return ErrNotAssignee
	}
	if OpenEntryIndex(entries, caller) >= 0 {
		return ErrAlreadyClockedIn
	}
	return nil
}

// CheckClockOut guards closing caller's open session at time at.
// It returns the index of the entry to close.
func CheckClockOut(task *Task, entries []WorklogEntry, caller Identity, at time.Time) (int, error) {
	if task == nil {
		return -1, ErrTaskNotFound
	}
	idx := OpenEntryIndex(entries, caller)
	if idx < 0 {
		return -1, ErrNotClockedIn
	}
	if at.Before(entries[idx].ClockInAt) {
		return -1, ErrClockSkew
	}
	return idx, nil
}

// CheckComplete guards the terminal transition to completed.
func CheckComplete(task *Task, entries []WorklogEntry, caller Identity) error {
	if task == nil {
		return ErrTaskNotFound
	}
	if !task.Status.CanTransitionTo(StatusCompleted) {
		return ErrTaskCompleted
	}
	if !task.IsParticipant(caller) {
		return ErrNotParticipant
	}
	if !task.IsAssigned() {
		return ErrNotAssigned
	}
	w := Summarize(entries)
	if w.HasOpen {
		return ErrSessionOpen
	}
	if w.TotalMinutes <= 0 {
		return ErrNoWorkLogged
	}
	return nil
}
