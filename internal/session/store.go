// Package session orchestrates the exercise loop for each learner:
// type selection, synthesis, grading, scheduling, and progress. It owns
// the only mutable state in the engine, selector history and per-term
// review records, and serializes access per learner.
package session

import (
	"sync"

	"github.com/aves-lingo/aves-engine/internal/exercise"
	"github.com/aves-lingo/aves-engine/internal/srs"
)

// Store persists review states and the result log per learner.
type Store interface {
	GetReviewState(learnerID, annotationID string) (srs.ReviewState, bool, error)
	UpsertReviewState(state srs.ReviewState) error
	ListReviewStates(learnerID string) ([]srs.ReviewState, error)
	AddResult(learnerID string, res exercise.Result) error
	ListResults(learnerID string) ([]exercise.Result, error)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	states  map[string]map[string]srs.ReviewState // learner -> annotation -> state
	results map[string][]exercise.Result
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:  make(map[string]map[string]srs.ReviewState),
		results: make(map[string][]exercise.Result),
	}
}

func (s *MemoryStore) GetReviewState(learnerID, annotationID string) (srs.ReviewState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[learnerID][annotationID]
	return state, ok, nil
}

func (s *MemoryStore) UpsertReviewState(state srs.ReviewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byTerm, ok := s.states[state.LearnerID]
	if !ok {
		byTerm = make(map[string]srs.ReviewState)
		s.states[state.LearnerID] = byTerm
	}
	byTerm[state.AnnotationID] = state
	return nil
}

func (s *MemoryStore) ListReviewStates(learnerID string) ([]srs.ReviewState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byTerm := s.states[learnerID]
	out := make([]srs.ReviewState, 0, len(byTerm))
	for _, state := range byTerm {
		out = append(out, state)
	}
	return out, nil
}

func (s *MemoryStore) AddResult(learnerID string, res exercise.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[learnerID] = append(s.results[learnerID], res)
	return nil
}

func (s *MemoryStore) ListResults(learnerID string) ([]exercise.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.results[learnerID]
	out := make([]exercise.Result, len(stored))
	copy(out, stored)
	return out, nil
}
