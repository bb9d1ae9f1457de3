package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/usecase/shared"
)

// QuoteCostInput contains the parameters for quoting a task's cost.
type QuoteCostInput struct {
	Caller domain.Identity
	TaskID string
}

// QuoteCostOutput breaks the cost down.
// Fields are ordered to minimize memory padding.
type QuoteCostOutput struct {
	Rate         decimal.Decimal // Cents per minute
	TotalMinutes int64
	LaborCents   int64
	PrepayCents  int64
	CostCents    int64 // LaborCents + PrepayCents
}

// QuoteCost is the use case for the cost of the work logged so far.
type QuoteCost struct {
	tasks    domain.TaskRepository
	worklogs domain.WorklogRepository
	billing  domain.Billing
}

// NewQuoteCost creates a new QuoteCost use case.
func NewQuoteCost(tasks domain.TaskRepository, worklogs domain.WorklogRepository, billing domain.Billing) *QuoteCost {
	return &QuoteCost{
		tasks:    tasks,
		worklogs: worklogs,
		billing:  billing,
	}
}

// Execute computes the cost for a participant of the task.
func (uc *QuoteCost) Execute(_ context.Context, in QuoteCostInput) (*QuoteCostOutput, error) {
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

	return &QuoteCostOutput{
		Rate:         uc.billing.Rate(),
		TotalMinutes: w.TotalMinutes,
		LaborCents:   cost - task.PrepayAmountCents,
		PrepayCents:  task.PrepayAmountCents,
		CostCents:    cost,
	}, nil
}
