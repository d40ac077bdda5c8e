// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/masarhr/murshid/internal/adapters/modelstore"
	"github.com/masarhr/murshid/internal/adapters/repository"
	service "github.com/masarhr/murshid/internal/app"
	"github.com/masarhr/murshid/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Recommend runs the ranking pipeline synchronously for one employee.
	Recommend(ctx context.Context, p model.EmployeeProfile, candidates []model.CourseCandidate, topK int, alpha float64) ([]model.Recommendation, error)

	// EnqueueBatch queues a batch of employees for asynchronous ranking.
	EnqueueBatch(ctx context.Context, batchID string, profiles []model.EmployeeProfile, candidates []model.CourseCandidate, topK int) (string, int, bool)

	// BatchStatus reports per-batch progress.
	BatchStatus(batchID string) (service.BatchStatus, bool)

	// StoredRecommendations reads the latest stored result for an employee.
	StoredRecommendations(ctx context.Context, employeeID string) (repository.Result, error)

	// Model registry operations.
	ModelStatus() modelstore.Status
	ReloadModel(ctx context.Context) error

	// GetRankerConfig exposes the active fusion/diversity configuration.
	GetRankerConfig() service.RankerConfig
}

// validate checks request payload constraints declared via struct tags.
var validate = validator.New()

// Server wires HTTP routes for the business API.
type Server struct {
	deps          Dependencies
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		deps:          deps,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
	}
}

// Routes builds the chi router for the business API.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recommendations", MetricsMiddleware(s.handleRecommend, "recommendations"))
		r.Post("/recommendations/batch", MetricsMiddleware(s.handleBatch, "recommendations_batch"))
		r.Get("/recommendations/{employeeID}", MetricsMiddleware(s.handleGetStored, "recommendations_get"))
		r.Get("/batches/{batchID}", MetricsMiddleware(s.handleBatchStatus, "batch_status"))
		r.Get("/model/status", MetricsMiddleware(s.handleModelStatus, "model_status"))
		r.Post("/model/reload", MetricsMiddleware(s.handleModelReload, "model_reload"))
		r.Get("/ranker/config", MetricsMiddleware(s.handleRankerConfig, "ranker_config"))
	})

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
