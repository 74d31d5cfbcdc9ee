// Package annotation defines the teachable vocabulary units and the
// read-only pool the exercise engine draws from. Annotations are produced
// by an upstream content pipeline and never mutated here.
package annotation

import (
	"errors"
	"fmt"
	"time"
)

// Category classifies what aspect of the bird an annotation teaches.
type Category string

const (
	CategoryAnatomical Category = "anatomical"
	CategoryBehavioral Category = "behavioral"
	CategoryColor      Category = "color"
	CategoryPattern    Category = "pattern"
	CategoryHabitat    Category = "habitat"
)

// Categories lists all valid annotation categories.
var Categories = []Category{
	CategoryAnatomical,
	CategoryBehavioral,
	CategoryColor,
	CategoryPattern,
	CategoryHabitat,
}

// ParseCategory validates a category string.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Point is a normalized image coordinate in [0,1].
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Region is a normalized bounding region on the source image.
// BottomRight must strictly exceed TopLeft on both axes.
type Region struct {
	TopLeft     Point  `json:"top_left" yaml:"top_left"`
	BottomRight Point  `json:"bottom_right" yaml:"bottom_right"`
	Shape       string `json:"shape,omitempty" yaml:"shape,omitempty"`
}

// Contains reports whether a normalized point falls inside the region.
func (r Region) Contains(p Point) bool {
	return p.X >= r.TopLeft.X && p.X <= r.BottomRight.X &&
		p.Y >= r.TopLeft.Y && p.Y <= r.BottomRight.Y
}

// Center returns the midpoint of the region.
func (r Region) Center() Point {
	return Point{
		X: (r.TopLeft.X + r.BottomRight.X) / 2,
		Y: (r.TopLeft.Y + r.BottomRight.Y) / 2,
	}
}

// Area returns the normalized area of the region.
func (r Region) Area() float64 {
	return (r.BottomRight.X - r.TopLeft.X) * (r.BottomRight.Y - r.TopLeft.Y)
}

// IoU returns the intersection-over-union of two regions.
func (r Region) IoU(other Region) float64 {
	ix := min(r.BottomRight.X, other.BottomRight.X) - max(r.TopLeft.X, other.TopLeft.X)
	iy := min(r.BottomRight.Y, other.BottomRight.Y) - max(r.TopLeft.Y, other.TopLeft.Y)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := r.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func (r Region) validate() error {
	for _, p := range []Point{r.TopLeft, r.BottomRight} {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return errors.New("region coordinates must be within [0,1]")
		}
	}
	if r.BottomRight.X <= r.TopLeft.X || r.BottomRight.Y <= r.TopLeft.Y {
		return errors.New("region bottom_right must strictly exceed top_left")
	}
	return nil
}

// Annotation is a single teachable unit tied to a region of a bird image.
type Annotation struct {
	ID              string    `json:"id" yaml:"id"`
	ImageID         string    `json:"image_id" yaml:"image_id"`
	Region          Region    `json:"region" yaml:"region"`
	Category        Category  `json:"category" yaml:"category"`
	SpanishTerm     string    `json:"spanish_term" yaml:"spanish_term"`
	EnglishTerm     string    `json:"english_term" yaml:"english_term"`
	Pronunciation   string    `json:"pronunciation,omitempty" yaml:"pronunciation,omitempty"`
	DifficultyLevel int       `json:"difficulty_level" yaml:"difficulty_level"`
	Visible         bool      `json:"visible" yaml:"visible"`
	CreatedAt       time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Validate enforces the annotation invariants.
func (a *Annotation) Validate() error {
	if a.ID == "" {
		return errors.New("annotation id is required")
	}
	if a.SpanishTerm == "" {
		return fmt.Errorf("annotation %s: spanish_term is required", a.ID)
	}
	if a.EnglishTerm == "" {
		return fmt.Errorf("annotation %s: english_term is required", a.ID)
	}
	if _, err := ParseCategory(string(a.Category)); err != nil {
		return fmt.Errorf("annotation %s: %w", a.ID, err)
	}
	if a.DifficultyLevel < 1 || a.DifficultyLevel > 5 {
		return fmt.Errorf("annotation %s: difficulty_level must be in [1,5], got %d", a.ID, a.DifficultyLevel)
	}
	if err := a.Region.validate(); err != nil {
		return fmt.Errorf("annotation %s: %w", a.ID, err)
	}
	return nil
}

// HasPronunciation reports whether the annotation carries a pronunciation guide.
func (a *Annotation) HasPronunciation() bool {
	return a.Pronunciation != ""
}
