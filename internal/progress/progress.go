// Package progress derives session and lifetime statistics from
// recorded exercise results and term review states. Pure functions, no
// shared state; callers recompute on demand.
package progress

import (
	"github.com/aves-lingo/aves-engine/internal/exercise"
	"github.com/aves-lingo/aves-engine/internal/srs"
)

// Stats is a snapshot of a learner's performance.
type Stats struct {
	TotalAttempts    int                `json:"total_attempts"`
	CorrectCount     int                `json:"correct_count"`
	Accuracy         float64            `json:"accuracy"`
	CurrentStreak    int                `json:"current_streak"`
	LongestStreak    int                `json:"longest_streak"`
	MasteryHistogram map[srs.Regime]int `json:"mastery_histogram"`
}

// Compute folds a result log and the term-state table into a stats
// snapshot. Results are expected in recording order; the current streak
// is the trailing run of correct answers.
func Compute(results []exercise.Result, states []srs.ReviewState) Stats {
	stats := Stats{
		MasteryHistogram: map[srs.Regime]int{
			srs.RegimeNew:      0,
			srs.RegimeLearning: 0,
			srs.RegimeMature:   0,
		},
	}

	streak := 0
	for _, r := range results {
		stats.TotalAttempts++
		if r.Correct {
			stats.CorrectCount++
			streak++
			if streak > stats.LongestStreak {
				stats.LongestStreak = streak
			}
		} else {
			streak = 0
		}
	}
	stats.CurrentStreak = streak

	if stats.TotalAttempts > 0 {
		stats.Accuracy = float64(stats.CorrectCount) / float64(stats.TotalAttempts)
	}

	for i := range states {
		stats.MasteryHistogram[states[i].Regime()]++
	}

	return stats
}
