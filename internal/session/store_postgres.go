package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aves-lingo/aves-engine/internal/exercise"
	"github.com/aves-lingo/aves-engine/internal/srs"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the engine's tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS review_states (
			learner_id       TEXT NOT NULL,
			annotation_id    TEXT NOT NULL,
			repetitions      INT NOT NULL DEFAULT 0,
			ease_factor      DOUBLE PRECISION NOT NULL DEFAULT 2.5,
			interval_days    INT NOT NULL DEFAULT 0,
			next_review_at   TIMESTAMPTZ,
			last_reviewed_at TIMESTAMPTZ,
			correct_count    INT NOT NULL DEFAULT 0,
			incorrect_count  INT NOT NULL DEFAULT 0,
			streak           INT NOT NULL DEFAULT 0,
			longest_streak   INT NOT NULL DEFAULT 0,
			mastery          INT NOT NULL DEFAULT 0,
			PRIMARY KEY (learner_id, annotation_id)
		);
		CREATE TABLE IF NOT EXISTS exercise_results (
			id            BIGSERIAL PRIMARY KEY,
			learner_id    TEXT NOT NULL,
			exercise_id   TEXT NOT NULL,
			exercise_type TEXT NOT NULL,
			annotation_id TEXT,
			correct       BOOLEAN NOT NULL,
			score         DOUBLE PRECISION NOT NULL,
			elapsed_ms    BIGINT NOT NULL,
			attempts      INT NOT NULL DEFAULT 0,
			hints_used    INT NOT NULL DEFAULT 0,
			metadata      JSONB,
			recorded_at   TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS exercise_results_learner_idx
			ON exercise_results (learner_id, recorded_at);
	`)
	if err != nil {
		return fmt.Errorf("migrating session schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReviewState(learnerID, annotationID string) (srs.ReviewState, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	state := srs.ReviewState{LearnerID: learnerID, AnnotationID: annotationID}
	var nextReview, lastReviewed *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT repetitions, ease_factor, interval_days, next_review_at, last_reviewed_at,
		        correct_count, incorrect_count, streak, longest_streak, mastery
		 FROM review_states
		 WHERE learner_id = $1 AND annotation_id = $2`,
		learnerID, annotationID,
	).Scan(
		&state.Repetitions,
		&state.EaseFactor,
		&state.IntervalDays,
		&nextReview,
		&lastReviewed,
		&state.CorrectCount,
		&state.IncorrectCount,
		&state.Streak,
		&state.LongestStreak,
		&state.Mastery,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return srs.ReviewState{}, false, nil
		}
		return srs.ReviewState{}, false, fmt.Errorf("get review state: %w", err)
	}

	if nextReview != nil {
		state.NextReviewAt = *nextReview
	}
	if lastReviewed != nil {
		state.LastReviewedAt = *lastReviewed
	}
	return state, true, nil
}

func (s *PostgresStore) UpsertReviewState(state srs.ReviewState) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if state.LearnerID == "" || state.AnnotationID == "" {
		return fmt.Errorf("learner_id and annotation_id are required")
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO review_states (
			learner_id, annotation_id, repetitions, ease_factor, interval_days,
			next_review_at, last_reviewed_at, correct_count, incorrect_count,
			streak, longest_streak, mastery
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (learner_id, annotation_id) DO UPDATE SET
			repetitions = EXCLUDED.repetitions,
			ease_factor = EXCLUDED.ease_factor,
			interval_days = EXCLUDED.interval_days,
			next_review_at = EXCLUDED.next_review_at,
			last_reviewed_at = EXCLUDED.last_reviewed_at,
			correct_count = EXCLUDED.correct_count,
			incorrect_count = EXCLUDED.incorrect_count,
			streak = EXCLUDED.streak,
			longest_streak = EXCLUDED.longest_streak,
			mastery = EXCLUDED.mastery`,
		state.LearnerID,
		state.AnnotationID,
		state.Repetitions,
		state.EaseFactor,
		state.IntervalDays,
		nullIfZeroTime(state.NextReviewAt),
		nullIfZeroTime(state.LastReviewedAt),
		state.CorrectCount,
		state.IncorrectCount,
		state.Streak,
		state.LongestStreak,
		state.Mastery,
	)
	if err != nil {
		return fmt.Errorf("upsert review state: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListReviewStates(learnerID string) ([]srs.ReviewState, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT annotation_id, repetitions, ease_factor, interval_days, next_review_at,
		        last_reviewed_at, correct_count, incorrect_count, streak, longest_streak, mastery
		 FROM review_states
		 WHERE learner_id = $1`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query review states: %w", err)
	}
	defer rows.Close()

	var states []srs.ReviewState
	for rows.Next() {
		state := srs.ReviewState{LearnerID: learnerID}
		var nextReview, lastReviewed *time.Time
		if err := rows.Scan(
			&state.AnnotationID,
			&state.Repetitions,
			&state.EaseFactor,
			&state.IntervalDays,
			&nextReview,
			&lastReviewed,
			&state.CorrectCount,
			&state.IncorrectCount,
			&state.Streak,
			&state.LongestStreak,
			&state.Mastery,
		); err != nil {
			return nil, fmt.Errorf("scan review state: %w", err)
		}
		if nextReview != nil {
			state.NextReviewAt = *nextReview
		}
		if lastReviewed != nil {
			state.LastReviewedAt = *lastReviewed
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review states: %w", err)
	}
	return states, nil
}

func (s *PostgresStore) AddResult(learnerID string, res exercise.Result) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	var metadata []byte
	if len(res.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(res.Metadata)
		if err != nil {
			return fmt.Errorf("marshal result metadata: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO exercise_results (
			learner_id, exercise_id, exercise_type, annotation_id, correct,
			score, elapsed_ms, attempts, hints_used, metadata, recorded_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		learnerID,
		res.ExerciseID,
		string(res.Type),
		nullIfEmpty(res.AnnotationID),
		res.Correct,
		res.Score,
		res.Elapsed.Milliseconds(),
		res.Attempts,
		res.HintsUsed,
		metadata,
		res.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListResults(learnerID string) ([]exercise.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT exercise_id, exercise_type, annotation_id, correct, score,
		        elapsed_ms, attempts, hints_used, metadata, recorded_at
		 FROM exercise_results
		 WHERE learner_id = $1
		 ORDER BY recorded_at ASC`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []exercise.Result
	for rows.Next() {
		var res exercise.Result
		var exType string
		var annotationID *string
		var elapsedMS int64
		var metadata []byte
		if err := rows.Scan(
			&res.ExerciseID,
			&exType,
			&annotationID,
			&res.Correct,
			&res.Score,
			&elapsedMS,
			&res.Attempts,
			&res.HintsUsed,
			&metadata,
			&res.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.Type = exercise.Type(exType)
		if annotationID != nil {
			res.AnnotationID = *annotationID
		}
		res.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &res.Metadata); err != nil {
				return nil, fmt.Errorf("decode result metadata: %w", err)
			}
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

func nullIfZeroTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
