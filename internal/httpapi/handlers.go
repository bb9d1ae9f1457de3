package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/usecase"
)

// maxBodyBytes limits request bodies.
const maxBodyBytes = 1 << 20

// POST /tasks
func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !s.decode(w, r, &req) {
		return
	}

	out, err := s.c.CreateTaskUseCase().Execute(r.Context(), usecase.CreateTaskInput{
		ScheduledAt:       req.ScheduledAt,
		Requester:         identityFrom(r),
		Title:             req.Title,
		Description:       req.Description,
		Category:          domain.Category(req.Category),
		LocationText:      req.LocationText,
		EstimatedMinutes:  req.EstimatedMinutes,
		PrepayAmountCents: req.PrepayAmountCents,
		IsImmediate:       req.IsImmediate,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTaskResponse(out.Task))
}

// GET /tasks
func (s *Server) listPosted(w http.ResponseWriter, r *http.Request) {
	var statuses []domain.Status
	for _, v := range r.URL.Query()["status"] {
		statuses = append(statuses, domain.Status(v))
	}
	s.list(w, r, usecase.ListTasksInput{
		PostedBy: identityFrom(r),
		Statuses: statuses,
	})
}

// GET /tasks/assigned
func (s *Server) listAssigned(w http.ResponseWriter, r *http.Request) {
	s.list(w, r, usecase.ListTasksInput{
		AssignedTo: identityFrom(r),
		Statuses:   []domain.Status{domain.StatusOpen},
	})
}

// GET /tasks/done
func (s *Server) listDone(w http.ResponseWriter, r *http.Request) {
	s.list(w, r, usecase.ListTasksInput{
		AssignedTo: identityFrom(r),
		Statuses:   []domain.Status{domain.StatusCompleted},
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, in usecase.ListTasksInput) {
	out, err := s.c.ListTasksUseCase().Execute(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponses(out.Tasks))
}

// GET /tasks/{id}
func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	out, err := s.c.ShowTaskUseCase().Execute(r.Context(), usecase.ShowTaskInput{
		TaskID: chi.URLParam(r, "id"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(out.Task))
}

// PATCH /tasks/{id}
func (s *Server) editTask(w http.ResponseWriter, r *http.Request) {
	var req patchTaskRequest
	if !s.decode(w, r, &req) {
		return
	}

	out, err := s.c.EditTaskUseCase().Execute(r.Context(), usecase.EditTaskInput{
		Caller: identityFrom(r),
		TaskID: chi.URLParam(r, "id"),
		Patch:  req.toPatch(),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(out.Task))
}

// POST /tasks/{id}/accept
func (s *Server) acceptTask(w http.ResponseWriter, r *http.Request) {
	out, err := s.c.AcceptTaskUseCase().Execute(r.Context(), usecase.AcceptTaskInput{
		Caller: identityFrom(r),
		TaskID: chi.URLParam(r, "id"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(out.Task))
}

// POST /tasks/{id}/clock-in
func (s *Server) clockIn(w http.ResponseWriter, r *http.Request) {
	out, err := s.c.ClockInUseCase().Execute(r.Context(), usecase.ClockInInput{
		Caller: identityFrom(r),
		TaskID: chi.URLParam(r, "id"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryResponse(out.Entry))
}

// POST /tasks/{id}/clock-out
func (s *Server) clockOut(w http.ResponseWriter, r *http.Request) {
	out, err := s.c.ClockOutUseCase().Execute(r.Context(), usecase.ClockOutInput{
		Caller: identityFrom(r),
		TaskID: chi.URLParam(r, "id"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(out.Entry))
}

// GET /tasks/{id}/worklogs
func (s *Server) showWorklog(w http.ResponseWriter, r *http.Request) {
	out, err := s.c.ShowWorklogUseCase().Execute(r.Context(), usecase.ShowWorklogInput{
		Caller: identityFrom(r),
		TaskID: chi.URLParam(r, "id"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	res := toWorklogResponse(out.Worklog)
	res.CostCents = &out.CostCents
	writeJSON(w, http.StatusOK, res)
}

// GET /tasks/{id}/worklogs/status
func (s *Server) worklogStatus(w http.ResponseWriter, r *http.Request) {
	out, err := s.c.WorklogStatusUseCase().Execute(r.Context(), usecase.WorklogStatusInput{
		TaskID: chi.URLParam(r, "id"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorklogResponse(out.Worklog))
}

// POST /tasks/{id}/complete
func (s *Server) completeTask(w http.ResponseWriter, r *http.Request) {
	out, err := s.c.CompleteTaskUseCase().Execute(r.Context(), usecase.CompleteTaskInput{
		Caller: identityFrom(r),
		TaskID: chi.URLParam(r, "id"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{
		Task:         toTaskResponse(out.Task),
		TotalMinutes: out.TotalMinutes,
		CostCents:    out.CostCents,
	})
}

// GET /tasks/{id}/cost
func (s *Server) quoteCost(w http.ResponseWriter, r *http.Request) {
	out, err := s.c.QuoteCostUseCase().Execute(r.Context(), usecase.QuoteCostInput{
		Caller: identityFrom(r),
		TaskID: chi.URLParam(r, "id"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCostResponse(out))
}

// decode reads a JSON body into dst. On failure it writes a 400 and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return false
	}
	return true
}

// statusFor maps an error kind to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAlreadyClockedIn):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNotClockedIn),
		errors.Is(err, domain.ErrClockSkew):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	res := errorResponse{Error: domain.Kind(err), Message: err.Error()}
	if status == http.StatusInternalServerError {
		s.c.Slog.Error("request failed", "error", err)
		res.Message = "internal server error"
	}
	writeJSON(w, status, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
