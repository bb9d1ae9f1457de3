package usecase

import (
	"context"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/usecase/shared"
)

// ShowWorklogInput contains the parameters for reading a task's worklog.
type ShowWorklogInput struct {
	Caller domain.Identity
	TaskID string
}

// ShowWorklogOutput contains the worklog and what it costs so far.
type ShowWorklogOutput struct {
	Task      *domain.Task
	Worklog   domain.Worklog
	CostCents int64
}

// ShowWorklog is the participant-only read of a task's worklog.
type ShowWorklog struct {
	tasks    domain.TaskRepository
	worklogs domain.WorklogRepository
	billing  domain.Billing
}

// NewShowWorklog creates a new ShowWorklog use case.
func NewShowWorklog(tasks domain.TaskRepository, worklogs domain.WorklogRepository, billing domain.Billing) *ShowWorklog {
	return &ShowWorklog{
		tasks:    tasks,
		worklogs: worklogs,
		billing:  billing,
	}
}

// Execute returns the worklog if the caller is the requester or the assignee.
func (uc *ShowWorklog) Execute(_ context.Context, in ShowWorklogInput) (*ShowWorklogOutput, error) {
	if err := shared.RequireIdentity(in.Caller); err != nil {
		return nil, err
	}

	task, err := shared.GetTask(uc.tasks, in.TaskID)
	if err != nil {
		return nil, err
	}
	if !task.IsParticipant(in.Caller) {
		return nil, domain.ErrNotParticipant
	}

	w, err := shared.LoadWorklog(uc.worklogs, in.TaskID)
	if err != nil {
		return nil, err
	}
	cost, err := uc.billing.Cost(task, w.TotalMinutes)
	if err != nil {
		return nil, err
	}

	return &ShowWorklogOutput{
		Task:      task,
		Worklog:   w,
		CostCents: cost,
	}, nil
}
