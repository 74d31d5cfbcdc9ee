// Package api exposes the session engine over HTTP: a small REST
// surface plus a websocket practice stream. No business logic lives
// here; handlers map requests to engine calls.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aves-lingo/aves-engine/internal/exercise"
	"github.com/aves-lingo/aves-engine/internal/session"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server holds the engine and the readiness checks.
type Server struct {
	engine   *session.Engine
	checkers map[string]HealthChecker
}

// NewServer creates an API server over the engine. Checkers are probed
// by the readiness endpoint; pass the database and cache wrappers.
func NewServer(engine *session.Engine, checkers map[string]HealthChecker) *Server {
	return &Server{engine: engine, checkers: checkers}
}

// Routes builds the HTTP router.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.HandleFunc("GET /api/learners/{id}/next-exercise", s.handleNextExercise)
	mux.HandleFunc("POST /api/learners/{id}/answers", s.handleSubmitAnswer)
	mux.HandleFunc("GET /api/learners/{id}/progress", s.handleProgress)
	mux.HandleFunc("GET /api/learners/{id}/due", s.handleDueTerms)
	mux.HandleFunc("GET /ws/practice", s.handlePractice)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	for name, checker := range s.checkers {
		if err := checker.HealthCheck(r.Context()); err != nil {
			slog.Warn("readiness check failed", "dependency", name, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"failed": name,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleNextExercise(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	if learnerID == "" {
		writeError(w, http.StatusBadRequest, "learner id is required")
		return
	}

	var (
		ex  *exercise.Exercise
		err error
	)
	if t := r.URL.Query().Get("type"); t != "" {
		ex, err = s.engine.SynthesizeType(r.Context(), learnerID, exercise.Type(t))
	} else {
		ex, err = s.engine.NextExercise(r.Context(), learnerID)
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

// answerRequest carries a submission plus timing the client measured.
type answerRequest struct {
	exercise.Submission
	ElapsedMS int64 `json:"elapsed_ms"`
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	if learnerID == "" {
		writeError(w, http.StatusBadRequest, "learner id is required")
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := s.engine.SubmitAnswer(r.Context(), learnerID, req.Submission,
		time.Duration(req.ElapsedMS)*time.Millisecond)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	if learnerID == "" {
		writeError(w, http.StatusBadRequest, "learner id is required")
		return
	}

	stats, err := s.engine.Progress(r.Context(), learnerID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDueTerms(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	if learnerID == "" {
		writeError(w, http.StatusBadRequest, "learner id is required")
		return
	}

	asOf := time.Now()
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "as_of must be RFC 3339")
			return
		}
		asOf = parsed
	}

	due, err := s.engine.DueTerms(r.Context(), learnerID, asOf)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, due)
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrMalformedSubmission):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrExerciseNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrNoExerciseAvailable):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
