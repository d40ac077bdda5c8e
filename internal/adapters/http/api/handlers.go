package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/masarhr/murshid/internal/adapters/repository"
	"github.com/masarhr/murshid/internal/domain/model"
)

// recommendRequest is the payload of a synchronous recommendation call.
// Alpha overrides the configured ML/rule fusion weight when present.
type recommendRequest struct {
	Employee model.EmployeeProfile   `json:"employee" validate:"required"`
	Courses  []model.CourseCandidate `json:"courses" validate:"required,min=1"`
	TopK     int                     `json:"top_k" validate:"omitempty,min=1"`
	Alpha    *float64                `json:"alpha" validate:"omitempty,min=0,max=1"`
}

func (r recommendRequest) check() error {
	if r.Employee.EmployeeID == "" {
		return fmt.Errorf("%w: employee.employee_id is required", ErrBadRequest)
	}
	for i, c := range r.Courses {
		if c.ID == "" {
			return fmt.Errorf("%w: courses[%d].id is required", ErrBadRequest, i)
		}
	}
	return nil
}

type recommendResponse struct {
	EmployeeID      string                 `json:"employee_id"`
	Recommendations []model.Recommendation `json:"recommendations"`
}

// batchRequest is the payload of an asynchronous batch submission.
// BatchID is optional; a generated id is returned when absent. Resubmitting
// the same id is a no-op.
type batchRequest struct {
	BatchID   string                  `json:"batch_id" validate:"omitempty,max=128"`
	Employees []model.EmployeeProfile `json:"employees" validate:"required,min=1"`
	Courses   []model.CourseCandidate `json:"courses" validate:"required,min=1"`
	TopK      int                     `json:"top_k" validate:"omitempty,min=1"`
}

func (r batchRequest) check() error {
	for i, e := range r.Employees {
		if e.EmployeeID == "" {
			return fmt.Errorf("%w: employees[%d].employee_id is required", ErrBadRequest, i)
		}
	}
	for i, c := range r.Courses {
		if c.ID == "" {
			return fmt.Errorf("%w: courses[%d].id is required", ErrBadRequest, i)
		}
	}
	return nil
}

type batchResponse struct {
	BatchID   string `json:"batch_id"`
	Queued    int    `json:"queued"`
	Duplicate bool   `json:"duplicate"`
}

type storedResponse struct {
	EmployeeID      string                 `json:"employee_id"`
	BatchID         string                 `json:"batch_id,omitempty"`
	Recommendations []model.Recommendation `json:"recommendations"`
	GeneratedAt     string                 `json:"generated_at"`
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := req.check(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	alpha := -1.0
	if req.Alpha != nil {
		alpha = *req.Alpha
	}

	recs, err := s.deps.Recommend(r.Context(), req.Employee, req.Courses, req.TopK, alpha)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ranking_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, recommendResponse{
		EmployeeID:      req.Employee.EmployeeID,
		Recommendations: recs,
	})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := req.check(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	batchID, queued, duplicate := s.deps.EnqueueBatch(r.Context(), req.BatchID, req.Employees, req.Courses, req.TopK)
	if queued == 0 && !duplicate {
		writeError(w, http.StatusTooManyRequests, "queue_full", ErrBackpressure)
		return
	}

	writeJSON(w, http.StatusAccepted, batchResponse{
		BatchID:   batchID,
		Queued:    queued,
		Duplicate: duplicate,
	})
}

func (s *Server) handleGetStored(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if employeeID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Errorf("%w: employeeID is required", ErrBadRequest))
		return
	}

	res, err := s.deps.StoredRecommendations(r.Context(), employeeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, storedResponse{
		EmployeeID:      res.EmployeeID,
		BatchID:         res.BatchID,
		Recommendations: res.Recommendations,
		GeneratedAt:     res.GeneratedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	status, ok := s.deps.BatchStatus(batchID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("unknown batch %q", batchID))
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleModelStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.ModelStatus())
}

func (s *Server) handleModelReload(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.ReloadModel(r.Context()); err != nil {
		writeError(w, http.StatusConflict, "reload_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.ModelStatus())
}

func (s *Server) handleRankerConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.GetRankerConfig())
}
