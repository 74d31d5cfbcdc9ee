package exercise

import (
	"math/rand"
)

const historySize = 2

// defaultLevelTable maps a proficiency level to the exercise types
// eligible at that level.
func defaultLevelTable() map[int][]Type {
	return map[int][]Type{
		1: {TypeVisualIdentification, TypeVisualDiscrimination},
		2: {TypeTermMatching, TypeAudioRecognition, TypeContextualFill},
		3: {TypeSentenceBuilding, TypeCulturalContext},
	}
}

// Selector picks the next exercise type from the current proficiency
// level and a short anti-repetition history. It owns the proficiency
// level; level changes happen only through UpdateLevel.
//
// Level adjustment is a simple hysteresis controller on aggregate
// accuracy, not adaptive IRT.
type Selector struct {
	level   int
	history []Type
	rng     *rand.Rand
	table   map[int][]Type
}

// NewSelector creates a selector at level 1. The random source is
// injected so selection is deterministic under a seeded source.
func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{
		level: 1,
		rng:   rng,
		table: defaultLevelTable(),
	}
}

// Level returns the current proficiency level (1–3).
func (s *Selector) Level() int {
	return s.level
}

// Candidates returns the eligible types for the current level. Levels
// outside 1–3 clamp to the nearest bound.
func (s *Selector) Candidates() []Type {
	level := s.level
	if level < 1 {
		level = 1
	}
	if level > 3 {
		level = 3
	}
	table := s.table[level]
	out := make([]Type, len(table))
	copy(out, table)
	return out
}

// SelectNext picks the next exercise type: eligible types for the
// current level, minus anything in the last-2 history unless that would
// empty the set, chosen uniformly at random.
func (s *Selector) SelectNext() Type {
	candidates := s.Candidates()

	filtered := make([]Type, 0, len(candidates))
	for _, t := range candidates {
		if !s.inHistory(t) {
			filtered = append(filtered, t)
		}
	}
	// Anti-repetition must never block selection.
	if len(filtered) == 0 {
		filtered = candidates
	}

	chosen := filtered[s.rng.Intn(len(filtered))]

	s.history = append(s.history, chosen)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
	return chosen
}

// UpdateLevel adjusts the proficiency level from aggregate accuracy:
// above 0.8 raises it, below 0.5 lowers it, bounded to [1,3]. A zero
// total is a no-op.
func (s *Selector) UpdateLevel(correct, total int) {
	if total == 0 {
		return
	}
	accuracy := float64(correct) / float64(total)
	switch {
	case accuracy > 0.8 && s.level < 3:
		s.level++
	case accuracy < 0.5 && s.level > 1:
		s.level--
	}
}

func (s *Selector) inHistory(t Type) bool {
	for _, h := range s.history {
		if h == t {
			return true
		}
	}
	return false
}
