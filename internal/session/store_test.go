package session_test

import (
	"testing"
	"time"

	"github.com/aves-lingo/aves-engine/internal/exercise"
	"github.com/aves-lingo/aves-engine/internal/session"
	"github.com/aves-lingo/aves-engine/internal/srs"
)

func TestMemoryStore_ReviewStates(t *testing.T) {
	store := session.NewMemoryStore()

	if _, found, err := store.GetReviewState("l1", "a1"); err != nil || found {
		t.Fatalf("GetReviewState() on empty store = found %v, err %v", found, err)
	}

	state := srs.NewReviewState("l1", "a1")
	state.Repetitions = 2
	state.IntervalDays = 6
	state.NextReviewAt = time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	if err := store.UpsertReviewState(state); err != nil {
		t.Fatalf("UpsertReviewState() error = %v", err)
	}

	got, found, err := store.GetReviewState("l1", "a1")
	if err != nil || !found {
		t.Fatalf("GetReviewState() = found %v, err %v", found, err)
	}
	if got.Repetitions != 2 || got.IntervalDays != 6 {
		t.Errorf("GetReviewState() = %+v, want stored state back", got)
	}

	// Upsert replaces, never duplicates.
	state.Repetitions = 3
	if err := store.UpsertReviewState(state); err != nil {
		t.Fatalf("UpsertReviewState() error = %v", err)
	}
	states, err := store.ListReviewStates("l1")
	if err != nil {
		t.Fatalf("ListReviewStates() error = %v", err)
	}
	if len(states) != 1 || states[0].Repetitions != 3 {
		t.Errorf("ListReviewStates() = %+v, want one updated state", states)
	}

	// Learners are isolated.
	if _, found, _ := store.GetReviewState("l2", "a1"); found {
		t.Error("GetReviewState() should not leak across learners")
	}
}

func TestMemoryStore_Results(t *testing.T) {
	store := session.NewMemoryStore()

	if err := store.AddResult("l1", exercise.Result{ExerciseID: "e1", Correct: true}); err != nil {
		t.Fatalf("AddResult() error = %v", err)
	}
	if err := store.AddResult("l1", exercise.Result{ExerciseID: "e2"}); err != nil {
		t.Fatalf("AddResult() error = %v", err)
	}

	results, err := store.ListResults("l1")
	if err != nil {
		t.Fatalf("ListResults() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("ListResults() returned %d results, want 2", len(results))
	}
	if results[0].ExerciseID != "e1" || results[1].ExerciseID != "e2" {
		t.Error("ListResults() should preserve recording order")
	}

	// The returned slice is a copy; mutating it must not touch the log.
	results[0].ExerciseID = "mutated"
	fresh, _ := store.ListResults("l1")
	if fresh[0].ExerciseID != "e1" {
		t.Error("ListResults() should return a defensive copy")
	}

	other, err := store.ListResults("l2")
	if err != nil {
		t.Fatalf("ListResults() error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("ListResults() for another learner returned %d results, want 0", len(other))
	}
}
