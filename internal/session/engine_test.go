package session_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aves-lingo/aves-engine/internal/annotation"
	"github.com/aves-lingo/aves-engine/internal/exercise"
	"github.com/aves-lingo/aves-engine/internal/session"
)

func testPool(t *testing.T) *annotation.Pool {
	t.Helper()
	terms := []struct {
		id, spanish, english, pron string
	}{
		{"a1", "pico", "beak", "PEE-koh"},
		{"a2", "ala", "wing", "AH-lah"},
		{"a3", "cola", "tail", "KOH-lah"},
		{"a4", "pata", "leg", "PAH-tah"},
	}
	anns := make([]annotation.Annotation, 0, len(terms))
	for i, term := range terms {
		anns = append(anns, annotation.Annotation{
			ID:            term.id,
			ImageID:       "cardinal-01",
			Category:      annotation.CategoryAnatomical,
			SpanishTerm:   term.spanish,
			EnglishTerm:   term.english,
			Pronunciation: term.pron,
			Region: annotation.Region{
				TopLeft:     annotation.Point{X: 0.1 * float64(i+1), Y: 0.1},
				BottomRight: annotation.Point{X: 0.1*float64(i+1) + 0.05, Y: 0.2},
			},
			DifficultyLevel: 1,
			Visible:         true,
		})
	}
	pool, err := annotation.NewPool(anns)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	return pool
}

func testEngine(t *testing.T) *session.Engine {
	t.Helper()
	eng, err := session.NewEngine(session.EngineConfig{
		Pool: testPool(t),
		Seed: 42,
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return eng
}

// correctSubmission builds the submission the exercise's own key would
// accept.
func correctSubmission(t *testing.T, ex *exercise.Exercise) exercise.Submission {
	t.Helper()
	sub := exercise.Submission{ExerciseID: ex.ID}
	switch key := ex.Key.(type) {
	case exercise.TermKey:
		sub.Text = key.Term
	case exercise.OptionKey:
		sub.Text = key.OptionID
	case exercise.PairsKey:
		sub.Mapping = make(map[string]string, len(key.Pairs))
		for _, p := range key.Pairs {
			sub.Mapping[p.Spanish] = p.English
		}
	case exercise.OrderKey:
		sub.Ordered = append([]string(nil), key.Words...)
	case exercise.IndexKey:
		n := float64(key.Index)
		sub.Number = &n
	default:
		t.Fatalf("unsupported key type %T", ex.Key)
	}
	return sub
}

func TestEngine_RequiresPool(t *testing.T) {
	if _, err := session.NewEngine(session.EngineConfig{}); err == nil {
		t.Error("NewEngine() without a pool should fail")
	}
}

func TestEngine_NextExerciseStartsAtLevelOne(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		ex, err := eng.NextExercise(ctx, "learner-1")
		if err != nil {
			t.Fatalf("NextExercise() error = %v", err)
		}
		if ex.Type != exercise.TypeVisualIdentification && ex.Type != exercise.TypeVisualDiscrimination {
			t.Fatalf("NextExercise() at level 1 = %q, want a visual type", ex.Type)
		}
	}
}

func TestEngine_SubmitAnswerFlow(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	ex, err := eng.NextExercise(ctx, "learner-1")
	if err != nil {
		t.Fatalf("NextExercise() error = %v", err)
	}

	outcome, err := eng.SubmitAnswer(ctx, "learner-1", correctSubmission(t, ex), 5*time.Second)
	if err != nil {
		t.Fatalf("SubmitAnswer() error = %v", err)
	}
	if !outcome.Result.Correct {
		t.Error("Result.Correct = false for the key's own answer")
	}
	if outcome.ReviewState == nil {
		t.Fatal("ReviewState = nil for a term-backed exercise")
	}
	if outcome.ReviewState.Repetitions != 1 {
		t.Errorf("Repetitions = %d, want 1 after first correct review", outcome.ReviewState.Repetitions)
	}
	if outcome.ReviewState.AnnotationID != ex.AnnotationID {
		t.Errorf("review state is for %q, want %q", outcome.ReviewState.AnnotationID, ex.AnnotationID)
	}

	// A settled exercise cannot be graded twice.
	if _, err := eng.SubmitAnswer(ctx, "learner-1", correctSubmission(t, ex), time.Second); !errors.Is(err, session.ErrExerciseNotFound) {
		t.Errorf("resubmission error = %v, want ErrExerciseNotFound", err)
	}
}

func TestEngine_SubmitAnswerErrors(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	_, err := eng.SubmitAnswer(ctx, "learner-1", exercise.Submission{Text: "pico"}, time.Second)
	if !errors.Is(err, session.ErrMalformedSubmission) {
		t.Errorf("missing exercise_id error = %v, want ErrMalformedSubmission", err)
	}

	_, err = eng.SubmitAnswer(ctx, "learner-1", exercise.Submission{ExerciseID: "ex-unknown"}, time.Second)
	if !errors.Is(err, session.ErrExerciseNotFound) {
		t.Errorf("unknown exercise error = %v, want ErrExerciseNotFound", err)
	}
}

func TestEngine_LevelFeedback(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	if got := eng.Level("learner-1"); got != 1 {
		t.Fatalf("Level() = %d, want 1 for a fresh learner", got)
	}

	// The level is re-evaluated after every answer, so a perfect run
	// climbs one level per submission until it tops out.
	levels := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		ex, err := eng.NextExercise(ctx, "learner-1")
		if err != nil {
			t.Fatalf("NextExercise() error = %v", err)
		}
		outcome, err := eng.SubmitAnswer(ctx, "learner-1", correctSubmission(t, ex), 3*time.Second)
		if err != nil {
			t.Fatalf("SubmitAnswer() error = %v", err)
		}
		levels = append(levels, outcome.Level)
	}
	want := []int{2, 3, 3, 3}
	for i := range want {
		if levels[i] != want[i] {
			t.Fatalf("levels after perfect run = %v, want %v", levels, want)
		}
	}

	// Another learner is unaffected.
	if got := eng.Level("learner-2"); got != 1 {
		t.Errorf("Level() for an untouched learner = %d, want 1", got)
	}
}

func TestEngine_ProgressAndDueTerms(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	ex, err := eng.NextExercise(ctx, "learner-1")
	if err != nil {
		t.Fatalf("NextExercise() error = %v", err)
	}
	if _, err := eng.SubmitAnswer(ctx, "learner-1", correctSubmission(t, ex), 3*time.Second); err != nil {
		t.Fatalf("SubmitAnswer() error = %v", err)
	}

	stats, err := eng.Progress(ctx, "learner-1")
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if stats.TotalAttempts != 1 || stats.CorrectCount != 1 {
		t.Errorf("Progress() = %d/%d, want 1/1", stats.CorrectCount, stats.TotalAttempts)
	}

	// The first pass schedules the term one day out, so it is due
	// tomorrow but not right now.
	due, err := eng.DueTerms(ctx, "learner-1", time.Now())
	if err != nil {
		t.Fatalf("DueTerms() error = %v", err)
	}
	if len(due) != 0 {
		t.Errorf("DueTerms(now) returned %d terms, want 0", len(due))
	}

	due, err = eng.DueTerms(ctx, "learner-1", time.Now().AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("DueTerms() error = %v", err)
	}
	if len(due) != 1 {
		t.Errorf("DueTerms(+2d) returned %d terms, want 1", len(due))
	}
}

func TestEngine_SynthesizeType(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	// Spatial variants never appear in the level table but are available
	// on request.
	ex, err := eng.SynthesizeType(ctx, "learner-1", exercise.TypeSpatialClick)
	if err != nil {
		t.Fatalf("SynthesizeType() error = %v", err)
	}
	if ex.Type != exercise.TypeSpatialClick {
		t.Errorf("Type = %q, want spatial_click", ex.Type)
	}

	key, ok := ex.Key.(exercise.RegionKey)
	if !ok {
		t.Fatalf("Key is %T, want RegionKey", ex.Key)
	}
	center := key.Region.Center()
	sub := exercise.Submission{
		ExerciseID: ex.ID,
		Mapping: map[string]string{
			"x": formatCoord(center.X),
			"y": formatCoord(center.Y),
		},
	}
	outcome, err := eng.SubmitAnswer(ctx, "learner-1", sub, time.Second)
	if err != nil {
		t.Fatalf("SubmitAnswer() error = %v", err)
	}
	if !outcome.Result.Correct {
		t.Error("a click on the region center should grade correct")
	}
}

func TestEngine_DeterministicUnderSeed(t *testing.T) {
	a := testEngine(t)
	b := testEngine(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		exA, err := a.NextExercise(ctx, "learner-1")
		if err != nil {
			t.Fatalf("NextExercise() error = %v", err)
		}
		exB, err := b.NextExercise(ctx, "learner-1")
		if err != nil {
			t.Fatalf("NextExercise() error = %v", err)
		}
		if exA.Type != exB.Type {
			t.Fatalf("type diverged at step %d: %q vs %q", i, exA.Type, exB.Type)
		}
		if exA.AnnotationID != exB.AnnotationID {
			t.Fatalf("target diverged at step %d: %q vs %q", i, exA.AnnotationID, exB.AnnotationID)
		}
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
