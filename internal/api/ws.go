package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/aves-lingo/aves-engine/internal/exercise"
	"github.com/aves-lingo/aves-engine/internal/session"
)

// practiceRequest is one inbound frame on the practice stream.
type practiceRequest struct {
	Op         string               `json:"op"` // "next" or "submit"
	Type       string               `json:"type,omitempty"`
	Submission *exercise.Submission `json:"submission,omitempty"`
	ElapsedMS  int64                `json:"elapsed_ms,omitempty"`
}

// practiceResponse is one outbound frame on the practice stream.
type practiceResponse struct {
	Op       string             `json:"op"`
	Exercise *exercise.Exercise `json:"exercise,omitempty"`
	Outcome  *session.Outcome   `json:"outcome,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// handlePractice runs a live practice session over a websocket: the
// client alternates "next" and "submit" frames; the engine serializes
// per learner, so a second connection for the same learner queues
// rather than interleaves.
func (s *Server) handlePractice(w http.ResponseWriter, r *http.Request) {
	learnerID := r.URL.Query().Get("learner_id")
	if learnerID == "" {
		writeError(w, http.StatusBadRequest, "learner_id query parameter is required")
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	slog.Info("practice session opened", "learner_id", learnerID)
	ctx := r.Context()

	for {
		var req practiceRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				slog.Info("practice session closed", "learner_id", learnerID)
			} else if ctx.Err() == nil {
				slog.Warn("practice read failed", "learner_id", learnerID, "error", err)
			}
			return
		}

		resp := s.handlePracticeFrame(r, learnerID, req)
		if err := wsjson.Write(ctx, conn, resp); err != nil {
			slog.Warn("practice write failed", "learner_id", learnerID, "error", err)
			return
		}
	}
}

func (s *Server) handlePracticeFrame(r *http.Request, learnerID string, req practiceRequest) practiceResponse {
	switch req.Op {
	case "next":
		var (
			ex  *exercise.Exercise
			err error
		)
		if req.Type != "" {
			ex, err = s.engine.SynthesizeType(r.Context(), learnerID, exercise.Type(req.Type))
		} else {
			ex, err = s.engine.NextExercise(r.Context(), learnerID)
		}
		if err != nil {
			return practiceResponse{Op: req.Op, Error: practiceError(err)}
		}
		return practiceResponse{Op: req.Op, Exercise: ex}

	case "submit":
		if req.Submission == nil {
			return practiceResponse{Op: req.Op, Error: session.ErrMalformedSubmission.Error()}
		}
		outcome, err := s.engine.SubmitAnswer(r.Context(), learnerID, *req.Submission,
			time.Duration(req.ElapsedMS)*time.Millisecond)
		if err != nil {
			return practiceResponse{Op: req.Op, Error: practiceError(err)}
		}
		return practiceResponse{Op: req.Op, Outcome: outcome}

	default:
		return practiceResponse{Op: req.Op, Error: "unknown op"}
	}
}

func practiceError(err error) string {
	switch {
	case errors.Is(err, session.ErrMalformedSubmission),
		errors.Is(err, session.ErrExerciseNotFound),
		errors.Is(err, session.ErrNoExerciseAvailable):
		return err.Error()
	default:
		slog.Error("practice frame failed", "error", err)
		return "internal error"
	}
}
