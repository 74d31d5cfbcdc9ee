// Package srs implements the SM-2 derived spaced-repetition scheduler
// that governs per-term review timing and the bounded mastery score.
package srs

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrInvalidQuality is returned for quality ratings outside 0–5.
var ErrInvalidQuality = errors.New("quality rating must be in [0,5]")

const (
	initialEase = 2.5
	minEase     = 1.3
	passQuality = 3
	masteryGain = 8
	masteryLoss = 15
	matureDays  = 21
)

// Regime is the qualitative state implied by a term's numeric fields.
type Regime string

const (
	RegimeNew      Regime = "new"
	RegimeLearning Regime = "learning"
	RegimeMature   Regime = "mature"
)

// ReviewState is the per-(learner, annotation) scheduling record. One
// record per term per learner, updated exactly once per recorded
// review.
type ReviewState struct {
	LearnerID      string    `json:"learner_id"`
	AnnotationID   string    `json:"annotation_id"`
	Repetitions    int       `json:"repetitions"`
	EaseFactor     float64   `json:"ease_factor"`
	IntervalDays   int       `json:"interval_days"`
	NextReviewAt   time.Time `json:"next_review_at"`
	LastReviewedAt time.Time `json:"last_reviewed_at"`
	CorrectCount   int       `json:"correct_count"`
	IncorrectCount int       `json:"incorrect_count"`
	Streak         int       `json:"streak"`
	LongestStreak  int       `json:"longest_streak"`
	Mastery        int       `json:"mastery"`
}

// NewReviewState initializes scheduling state for a term's first
// exposure.
func NewReviewState(learnerID, annotationID string) ReviewState {
	return ReviewState{
		LearnerID:    learnerID,
		AnnotationID: annotationID,
		EaseFactor:   initialEase,
	}
}

// Regime classifies the term: new (never repeated), learning
// (interval under 21 days), mature (21 days or more).
func (s *ReviewState) Regime() Regime {
	switch {
	case s.Repetitions == 0:
		return RegimeNew
	case s.IntervalDays < matureDays:
		return RegimeLearning
	default:
		return RegimeMature
	}
}

// Scheduler applies SM-2 transitions to review states. The clock is a
// field so tests can pin time.
type Scheduler struct {
	Now func() time.Time
}

// NewScheduler creates a scheduler on the real clock.
func NewScheduler() *Scheduler {
	return &Scheduler{Now: time.Now}
}

// RecordReview applies one review with the given quality (0–5) to the
// state. Quality below 3 is a lapse: repetitions reset and the term
// comes back in one day. The ease factor update applies on both
// branches and never drops below 1.3.
//
// The mastery accumulator (+8 on pass, −15 on lapse, clamped to
// [0,100]) is a pedagogy-layer heuristic on top of the interval math,
// not part of SM-2 itself.
func (sch *Scheduler) RecordReview(state *ReviewState, quality int) error {
	if quality < 0 || quality > 5 {
		return ErrInvalidQuality
	}

	// A term seen for the first time gets implicit initialization.
	if state.EaseFactor == 0 {
		state.EaseFactor = initialEase
	}

	q := float64(quality)
	ease := state.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ease < minEase {
		ease = minEase
	}
	state.EaseFactor = ease

	if quality < passQuality {
		state.Repetitions = 0
		state.IntervalDays = 1
		state.IncorrectCount++
		state.Streak = 0
		state.Mastery -= masteryLoss
		if state.Mastery < 0 {
			state.Mastery = 0
		}
	} else {
		state.Repetitions++
		switch state.Repetitions {
		case 1:
			state.IntervalDays = 1
		case 2:
			state.IntervalDays = 6
		default:
			state.IntervalDays = int(math.Round(float64(state.IntervalDays) * state.EaseFactor))
		}
		state.CorrectCount++
		state.Streak++
		if state.Streak > state.LongestStreak {
			state.LongestStreak = state.Streak
		}
		state.Mastery += masteryGain
		if state.Mastery > 100 {
			state.Mastery = 100
		}
	}

	now := sch.Now()
	state.LastReviewedAt = now
	state.NextReviewAt = now.AddDate(0, 0, state.IntervalDays)
	return nil
}

// DueTerms returns the states due at the given time, most overdue
// first, ties broken by lowest mastery.
func DueTerms(states []ReviewState, asOf time.Time) []ReviewState {
	var due []ReviewState
	for _, s := range states {
		if !s.NextReviewAt.After(asOf) {
			due = append(due, s)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if !due[i].NextReviewAt.Equal(due[j].NextReviewAt) {
			return due[i].NextReviewAt.Before(due[j].NextReviewAt)
		}
		return due[i].Mastery < due[j].Mastery
	})
	return due
}
