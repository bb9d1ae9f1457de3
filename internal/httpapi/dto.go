package httpapi

import (
	"time"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/usecase"
)

type createTaskRequest struct {
	ScheduledAt       *time.Time `json:"scheduled_at"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Category          string     `json:"category"`
	LocationText      string     `json:"location_text"`
	EstimatedMinutes  int        `json:"estimated_minutes"`
	PrepayAmountCents int64      `json:"prepay_amount_cents"`
	IsImmediate       bool       `json:"is_immediate"`
}

type patchTaskRequest struct {
	ScheduledAt       *time.Time `json:"scheduled_at"`
	Title             *string    `json:"title"`
	Description       *string    `json:"description"`
	Category          *string    `json:"category"`
	LocationText      *string    `json:"location_text"`
	EstimatedMinutes  *int       `json:"estimated_minutes"`
	PrepayAmountCents *int64     `json:"prepay_amount_cents"`
	IsImmediate       *bool      `json:"is_immediate"`
}

func (p patchTaskRequest) toPatch() domain.TaskPatch {
	patch := domain.TaskPatch{
		ScheduledAt:       p.ScheduledAt,
		Title:             p.Title,
		Description:       p.Description,
		LocationText:      p.LocationText,
		EstimatedMinutes:  p.EstimatedMinutes,
		PrepayAmountCents: p.PrepayAmountCents,
		IsImmediate:       p.IsImmediate,
	}
	if p.Category != nil {
		category := domain.Category(*p.Category)
		patch.Category = &category
	}
	return patch
}

type taskResponse struct {
	ScheduledAt       *string `json:"scheduled_at"`
	CompletedAt       *string `json:"completed_at"`
	ID                string  `json:"id"`
	Requester         string  `json:"requester"`
	AssignedTo        *string `json:"assigned_to"`
	Status            string  `json:"status"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	Category          string  `json:"category"`
	LocationText      string  `json:"location_text"`
	CreatedAt         string  `json:"created_at"`
	EstimatedMinutes  int     `json:"estimated_minutes"`
	PrepayAmountCents int64   `json:"prepay_amount_cents"`
	IsImmediate       bool    `json:"is_immediate"`
}

type entryResponse struct {
	ClockOutAt *string `json:"clock_out_at"`
	ID         string  `json:"id"`
	TaskID     string  `json:"task_id"`
	Worker     string  `json:"worker"`
	ClockInAt  string  `json:"clock_in_at"`
	Minutes    int64   `json:"minutes"`
}

type worklogResponse struct {
	Entries      []entryResponse `json:"entries"`
	TotalMinutes int64           `json:"total_minutes"`
	CostCents    *int64          `json:"cost_cents,omitempty"`
	HasOpen      bool            `json:"has_open"`
}

type completeResponse struct {
	Task         taskResponse `json:"task"`
	TotalMinutes int64        `json:"total_minutes"`
	CostCents    int64        `json:"cost_cents"`
}

type costResponse struct {
	RateCentsPerMinute string `json:"rate_cents_per_minute"`
	TotalMinutes       int64  `json:"total_minutes"`
	LaborCents         int64  `json:"labor_cents"`
	PrepayCents        int64  `json:"prepay_cents"`
	CostCents          int64  `json:"cost_cents"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

func toTaskResponse(t *domain.Task) taskResponse {
	res := taskResponse{
		ScheduledAt:       formatTime(t.ScheduledAt),
		CompletedAt:       formatTime(t.CompletedAt),
		ID:                t.ID,
		Requester:         string(t.Requester),
		Status:            string(t.Status),
		Title:             t.Title,
		Description:       t.Description,
		Category:          string(t.Category),
		LocationText:      t.LocationText,
		CreatedAt:         t.CreatedAt.UTC().Format(time.RFC3339Nano),
		EstimatedMinutes:  t.EstimatedMinutes,
		PrepayAmountCents: t.PrepayAmountCents,
		IsImmediate:       t.IsImmediate,
	}
	if t.IsAssigned() {
		assignee := string(t.AssignedTo)
		res.AssignedTo = &assignee
	}
	return res
}

func toTaskResponses(tasks []*domain.Task) []taskResponse {
	res := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, toTaskResponse(t))
	}
	return res
}

func toEntryResponse(e *domain.WorklogEntry) entryResponse {
	return entryResponse{
		ClockOutAt: formatTime(e.ClockOutAt),
		ID:         e.ID,
		TaskID:     e.TaskID,
		Worker:     string(e.Worker),
		ClockInAt:  e.ClockInAt.UTC().Format(time.RFC3339Nano),
		Minutes:    e.Minutes(),
	}
}

func toWorklogResponse(w domain.Worklog) worklogResponse {
	entries := make([]entryResponse, 0, len(w.Entries))
	for i := range w.Entries {
		entries = append(entries, toEntryResponse(&w.Entries[i]))
	}
	return worklogResponse{
		Entries:      entries,
		TotalMinutes: w.TotalMinutes,
		HasOpen:      w.HasOpen,
	}
}

func toCostResponse(out *usecase.QuoteCostOutput) costResponse {
	return costResponse{
		RateCentsPerMinute: out.Rate.String(),
		TotalMinutes:       out.TotalMinutes,
		LaborCents:         out.LaborCents,
		PrepayCents:        out.PrepayCents,
		CostCents:          out.CostCents,
	}
}
