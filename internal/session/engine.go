package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/aves-lingo/aves-engine/internal/annotation"
	"github.com/aves-lingo/aves-engine/internal/exercise"
	"github.com/aves-lingo/aves-engine/internal/progress"
	"github.com/aves-lingo/aves-engine/internal/srs"
)

var (
	// ErrNoExerciseAvailable is returned when the retry loop exhausts
	// its budget without a synthesizable type.
	ErrNoExerciseAvailable = errors.New("no exercise available for the current pool and level")
	// ErrExerciseNotFound is returned when a submission references an
	// exercise the engine no longer knows.
	ErrExerciseNotFound = errors.New("exercise not found")
	// ErrMalformedSubmission is returned for submissions missing the
	// exercise reference.
	ErrMalformedSubmission = errors.New("submission is missing exercise_id")
)

// EngineConfig holds dependencies for the session engine.
type EngineConfig struct {
	Pool    *annotation.Pool
	Content *exercise.Content // nil means built-in content
	Store   Store             // nil means in-memory
	Cache   *ExerciseCache    // optional exercise cache
	Seed    int64             // 0 seeds from the clock; set for deterministic tests
	Now     func() time.Time  // nil means time.Now
}

// Engine drives the exercise loop. All mutable state (selector
// history, in-flight exercises, session counters) lives in per-learner
// sessions guarded by a per-learner lock, so concurrent requests for
// one learner serialize while different learners proceed in parallel.
type Engine struct {
	pool      *annotation.Pool
	synth     *exercise.Synthesizer
	store     Store
	cache     *ExerciseCache
	scheduler *srs.Scheduler
	rng       *rand.Rand
	now       func() time.Time

	mu       sync.Mutex
	learners map[string]*learnerSession
}

type learnerSession struct {
	mu       sync.Mutex
	selector *exercise.Selector
	pending  map[string]*exercise.Exercise
	correct  int
	total    int
}

// NewEngine creates a session engine over a non-empty annotation pool.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Pool == nil {
		return nil, fmt.Errorf("annotation pool is required")
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// One generator feeds every learner session; the source is locked
	// because only same-learner calls are serialized.
	rng := rand.New(&lockedSource{src: rand.NewSource(seed)})
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	scheduler := srs.NewScheduler()
	scheduler.Now = now

	return &Engine{
		pool:      cfg.Pool,
		synth:     exercise.NewSynthesizer(cfg.Pool, cfg.Content, rng),
		store:     store,
		cache:     cfg.Cache,
		scheduler: scheduler,
		rng:       rng,
		now:       now,
		learners:  make(map[string]*learnerSession),
	}, nil
}

// NextExercise selects a type for the learner's level and synthesizes
// an exercise from the pool. Types the pool cannot support are skipped
// and reselected, capped at twice the candidate-set size.
func (e *Engine) NextExercise(ctx context.Context, learnerID string) (*exercise.Exercise, error) {
	sess := e.session(learnerID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	attempts := 2 * len(sess.selector.Candidates())
	for i := 0; i < attempts; i++ {
		t := sess.selector.SelectNext()
		ex := e.synth.SynthesizeAt(t, preferredDifficulty(sess.selector.Level()))
		if ex == nil {
			continue
		}

		sess.pending[ex.ID] = ex
		if e.cache != nil {
			if err := e.cache.Put(ctx, ex); err != nil {
				slog.Warn("failed to cache exercise", "exercise_id", ex.ID, "error", err)
			}
		}
		slog.Info("exercise generated",
			"learner_id", learnerID,
			"exercise_id", ex.ID,
			"type", ex.Type,
			"level", sess.selector.Level(),
		)
		return ex, nil
	}

	return nil, ErrNoExerciseAvailable
}

// SynthesizeType builds an exercise of an explicitly requested type
// (spatial variants, re-drills) outside the level table.
func (e *Engine) SynthesizeType(ctx context.Context, learnerID string, t exercise.Type) (*exercise.Exercise, error) {
	sess := e.session(learnerID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	ex := e.synth.Synthesize(t)
	if ex == nil {
		return nil, ErrNoExerciseAvailable
	}
	sess.pending[ex.ID] = ex
	if e.cache != nil {
		if err := e.cache.Put(ctx, ex); err != nil {
			slog.Warn("failed to cache exercise", "exercise_id", ex.ID, "error", err)
		}
	}
	return ex, nil
}

// Outcome is the graded response to a submission.
type Outcome struct {
	Result      exercise.Result  `json:"result"`
	ReviewState *srs.ReviewState `json:"review_state,omitempty"`
	Level       int              `json:"level"`
}

// SubmitAnswer grades a submission, advances the term's review state,
// records the result, and feeds session accuracy back into the
// proficiency level.
func (e *Engine) SubmitAnswer(ctx context.Context, learnerID string, sub exercise.Submission, elapsed time.Duration) (*Outcome, error) {
	if sub.ExerciseID == "" {
		return nil, ErrMalformedSubmission
	}

	sess := e.session(learnerID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	ex, err := e.lookupExercise(ctx, sess, sub.ExerciseID)
	if err != nil {
		return nil, err
	}

	res := exercise.Grade(ex, sub, elapsed)

	outcome := &Outcome{Result: res}
	if ex.AnnotationID != "" {
		state, found, err := e.store.GetReviewState(learnerID, ex.AnnotationID)
		if err != nil {
			return nil, fmt.Errorf("loading review state: %w", err)
		}
		if !found {
			state = srs.NewReviewState(learnerID, ex.AnnotationID)
		}
		quality := qualityFor(res)
		if err := e.scheduler.RecordReview(&state, quality); err != nil {
			return nil, fmt.Errorf("recording review: %w", err)
		}
		if err := e.store.UpsertReviewState(state); err != nil {
			return nil, fmt.Errorf("saving review state: %w", err)
		}
		outcome.ReviewState = &state
	}

	if err := e.store.AddResult(learnerID, res); err != nil {
		return nil, fmt.Errorf("recording result: %w", err)
	}

	sess.total++
	if res.Correct {
		sess.correct++
	}
	sess.selector.UpdateLevel(sess.correct, sess.total)
	outcome.Level = sess.selector.Level()

	delete(sess.pending, ex.ID)
	if e.cache != nil {
		if err := e.cache.Delete(ctx, ex.ID); err != nil {
			slog.Warn("failed to evict cached exercise", "exercise_id", ex.ID, "error", err)
		}
	}

	slog.Info("answer recorded",
		"learner_id", learnerID,
		"exercise_id", ex.ID,
		"correct", res.Correct,
		"score", res.Score,
		"level", outcome.Level,
	)
	return outcome, nil
}

// Progress recomputes the learner's statistics from the result log and
// term-state table.
func (e *Engine) Progress(ctx context.Context, learnerID string) (progress.Stats, error) {
	results, err := e.store.ListResults(learnerID)
	if err != nil {
		return progress.Stats{}, fmt.Errorf("loading results: %w", err)
	}
	states, err := e.store.ListReviewStates(learnerID)
	if err != nil {
		return progress.Stats{}, fmt.Errorf("loading review states: %w", err)
	}
	return progress.Compute(results, states), nil
}

// DueTerms returns the learner's terms due for review as of the given
// time, most overdue first.
func (e *Engine) DueTerms(ctx context.Context, learnerID string, asOf time.Time) ([]srs.ReviewState, error) {
	states, err := e.store.ListReviewStates(learnerID)
	if err != nil {
		return nil, fmt.Errorf("loading review states: %w", err)
	}
	return srs.DueTerms(states, asOf), nil
}

// Level returns the learner's current proficiency level.
func (e *Engine) Level(learnerID string) int {
	sess := e.session(learnerID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.selector.Level()
}

func (e *Engine) lookupExercise(ctx context.Context, sess *learnerSession, id string) (*exercise.Exercise, error) {
	if ex, ok := sess.pending[id]; ok {
		return ex, nil
	}
	if e.cache != nil {
		ex, found, err := e.cache.Get(ctx, id)
		if err != nil {
			slog.Warn("exercise cache lookup failed", "exercise_id", id, "error", err)
		} else if found {
			return ex, nil
		}
	}
	return nil, ErrExerciseNotFound
}

func (e *Engine) session(learnerID string) *learnerSession {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, ok := e.learners[learnerID]
	if !ok {
		sess = &learnerSession{
			selector: exercise.NewSelector(e.rng),
			pending:  make(map[string]*exercise.Exercise),
		}
		e.learners[learnerID] = sess
	}
	return sess
}

// preferredDifficulty maps the coarse proficiency level onto the 1–5
// annotation difficulty scale; the synthesizer falls back to the full
// pool when the band is too thin.
func preferredDifficulty(level int) int {
	switch level {
	case 1:
		return 1
	case 2:
		return 3
	default:
		return 5
	}
}

// lockedSource guards a rand source with a mutex, mirroring the
// stdlib's global source.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

// qualityFor maps a graded result onto the 0–5 SM-2 quality scale:
// full credit grades by speed, partial credit by score, and misses
// drop to 0 when hints were needed.
func qualityFor(res exercise.Result) int {
	switch {
	case res.Score >= 1:
		if res.Elapsed < 8*time.Second {
			return 5
		}
		if res.Elapsed < 20*time.Second {
			return 4
		}
		return 3
	case res.Score >= 0.5:
		return 3
	case res.Score > 0:
		return 2
	default:
		if res.HintsUsed > 0 {
			return 0
		}
		return 1
	}
}
