// Package chi is the HTTP surface of the service.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/footrag/internal/domain/entity"
	healthuc "github.com/kailas-cloud/footrag/internal/usecase/health"
	"github.com/kailas-cloud/footrag/internal/usecase/pipeline"
	"github.com/kailas-cloud/footrag/internal/version"
)

const maxBodyBytes = 64 << 10

// Error codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeMethodNotAllowed = "method_not_allowed"
	codeInternalError    = "internal_error"
)

type answerer interface {
	AnswerLimit(ctx context.Context, raw string, limit int) pipeline.Response
}

type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the question answering API.
type Server struct {
	pipeline answerer
	health   healthChecker
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(p answerer, health healthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{pipeline: p, health: health, logger: logger}
}

type askRequest struct {
	Query string `json:"query"`
	Limit *int   `json:"limit,omitempty"`
}

type askResponse struct {
	Answer   string            `json:"answer"`
	Context  []entity.Document `json:"context"`
	Strategy string            `json:"strategy"`
	Filters  map[string]string `json:"filters"`
	Route    string            `json:"route"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Ask handles POST /ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		msg := "Invalid request body"
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			msg = "Request body too large"
		} else if errors.Is(err, io.EOF) {
			msg = "Request body is empty"
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, msg)
		return
	}

	if err := pipeline.Validate(req.Query); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	limit := 0
	if req.Limit != nil {
		if *req.Limit <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be positive")
			return
		}
		limit = *req.Limit
	}

	resp := s.pipeline.AnswerLimit(r.Context(), req.Query, limit)

	ctxDocs := resp.Context
	if ctxDocs == nil {
		ctxDocs = []entity.Document{}
	}
	writeJSON(w, http.StatusOK, askResponse{
		Answer:   resp.Answer,
		Context:  ctxDocs,
		Strategy: resp.Strategy,
		Filters:  resp.Filters,
		Route:    string(resp.Route),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
