package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/usecase/shared"
)

// ClockInInput contains the parameters for starting a work session.
type ClockInInput struct {
	Caller domain.Identity
	TaskID string
}

// ClockInOutput contains the new open entry.
type ClockInOutput struct {
	Entry *domain.WorklogEntry
}

// ClockIn is the use case for the assignee starting a work session.
type ClockIn struct {
	worklogs domain.WorklogRepository
	ids      domain.IDGenerator
	clock    domain.Clock
	logger   domain.Logger
}

// NewClockIn creates a new ClockIn use case.
func NewClockIn(worklogs domain.WorklogRepository, ids domain.IDGenerator, clock domain.Clock, logger domain.Logger) *ClockIn {
	return &ClockIn{
		worklogs: worklogs,
		ids:      ids,
		clock:    clock,
		logger:   logger,
	}
}

// Execute opens a session at the current time.
func (uc *ClockIn) Execute(_ context.Context, in ClockInInput) (*ClockInOutput, error) {
	if err := shared.RequireIdentity(in.Caller); err != nil {
		return nil, err
	}

	entry, err := uc.worklogs.ClockIn(domain.WorklogEntry{
		ID:        uc.ids.NewID(),
		TaskID:    in.TaskID,
		Worker:    in.Caller,
		ClockInAt: uc.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("clock in: %w", err)
	}

	uc.logger.Info(in.TaskID, "worklog", fmt.Sprintf("%s clocked in", in.Caller))

	return &ClockInOutput{Entry: entry}, nil
}
