package annotation

import (
	"errors"
	"fmt"
)

// ErrEmptyPool is returned when a pool is constructed with no usable annotations.
var ErrEmptyPool = errors.New("annotation pool is empty")

// Pool is a read-only view over a fixed collection of annotations.
// Hidden annotations are dropped at construction; every synthesizer
// requires a nonzero minimum, so a pool must never hold zero items.
type Pool struct {
	annotations []Annotation
}

// NewPool validates the given annotations and builds a pool over the
// visible ones. Returns ErrEmptyPool if no visible annotation remains.
func NewPool(annotations []Annotation) (*Pool, error) {
	visible := make([]Annotation, 0, len(annotations))
	for i := range annotations {
		if err := annotations[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid annotation: %w", err)
		}
		if annotations[i].Visible {
			visible = append(visible, annotations[i])
		}
	}
	if len(visible) == 0 {
		return nil, ErrEmptyPool
	}
	return &Pool{annotations: visible}, nil
}

// Len returns the number of annotations in the pool.
func (p *Pool) Len() int {
	return len(p.annotations)
}

// All returns a copy of every annotation in the pool.
func (p *Pool) All() []Annotation {
	out := make([]Annotation, len(p.annotations))
	copy(out, p.annotations)
	return out
}

// ByCategory returns all annotations whose category matches.
func (p *Pool) ByCategory(c Category) []Annotation {
	var out []Annotation
	for _, a := range p.annotations {
		if a.Category == c {
			out = append(out, a)
		}
	}
	return out
}

// ByDifficulty filters on exact difficulty level. Callers fall back to
// the full pool when the filtered result is smaller than a synthesizer's
// minimum.
func (p *Pool) ByDifficulty(level int) []Annotation {
	var out []Annotation
	for _, a := range p.annotations {
		if a.DifficultyLevel == level {
			out = append(out, a)
		}
	}
	return out
}

// GroupedByCategory returns the pool grouped by category.
func (p *Pool) GroupedByCategory() map[Category][]Annotation {
	groups := make(map[Category][]Annotation)
	for _, a := range p.annotations {
		groups[a.Category] = append(groups[a.Category], a)
	}
	return groups
}

// ByID looks up a single annotation.
func (p *Pool) ByID(id string) (Annotation, bool) {
	for _, a := range p.annotations {
		if a.ID == id {
			return a, true
		}
	}
	return Annotation{}, false
}
