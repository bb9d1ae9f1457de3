package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/usecase/shared"
)

// ClockOutInput contains the parameters for ending a work session.
type ClockOutInput struct {
	Caller domain.Identity
	TaskID string
}

// ClockOutOutput contains the closed entry.
type ClockOutOutput struct {
	Entry *domain.WorklogEntry
}

// ClockOut is the use case for closing the caller's open session.
type ClockOut struct {
	worklogs domain.WorklogRepository
	clock    domain.Clock
	logger   domain.Logger
}

// NewClockOut creates a new ClockOut use case.
func NewClockOut(worklogs domain.WorklogRepository, clock domain.Clock, logger domain.Logger) *ClockOut {
	return &ClockOut{
		worklogs: worklogs,
		clock:    clock,
		logger:   logger,
	}
}

// Execute closes the open session at the current time.
func (uc *ClockOut) Execute(_ context.Context, in ClockOutInput) (*ClockOutOutput, error) {
	if err := shared.RequireIdentity(in.Caller); err != nil {
		return nil, err
	}

	entry, err := uc.worklogs.ClockOut(in.TaskID, in.Caller, uc.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("clock out: %w", err)
	}

	uc.logger.Info(in.TaskID, "worklog",
		fmt.Sprintf("%s clocked out after %d min", in.Caller, entry.Minutes()))

	return &ClockOutOutput{Entry: entry}, nil
}
