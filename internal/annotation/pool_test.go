package annotation_test

import (
	"errors"
	"testing"

	"github.com/aves-lingo/aves-engine/internal/annotation"
)

func testAnnotation(id string, category annotation.Category, spanish, english string) annotation.Annotation {
	return annotation.Annotation{
		ID:          id,
		ImageID:     "img-1",
		Category:    category,
		SpanishTerm: spanish,
		EnglishTerm: english,
		Region: annotation.Region{
			TopLeft:     annotation.Point{X: 0.1, Y: 0.1},
			BottomRight: annotation.Point{X: 0.4, Y: 0.3},
		},
		DifficultyLevel: 1,
		Visible:         true,
	}
}

func TestNewPool_Empty(t *testing.T) {
	_, err := annotation.NewPool(nil)
	if !errors.Is(err, annotation.ErrEmptyPool) {
		t.Errorf("NewPool(nil) error = %v, want ErrEmptyPool", err)
	}
}

func TestNewPool_AllHidden(t *testing.T) {
	a := testAnnotation("a1", annotation.CategoryAnatomical, "pico", "beak")
	a.Visible = false

	_, err := annotation.NewPool([]annotation.Annotation{a})
	if !errors.Is(err, annotation.ErrEmptyPool) {
		t.Errorf("NewPool() with only hidden annotations error = %v, want ErrEmptyPool", err)
	}
}

func TestNewPool_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*annotation.Annotation)
	}{
		{"empty-spanish", func(a *annotation.Annotation) { a.SpanishTerm = "" }},
		{"empty-english", func(a *annotation.Annotation) { a.EnglishTerm = "" }},
		{"difficulty-low", func(a *annotation.Annotation) { a.DifficultyLevel = 0 }},
		{"difficulty-high", func(a *annotation.Annotation) { a.DifficultyLevel = 6 }},
		{"bad-category", func(a *annotation.Annotation) { a.Category = "plumage" }},
		{"coords-out-of-range", func(a *annotation.Annotation) { a.Region.BottomRight.X = 1.5 }},
		{"degenerate-region", func(a *annotation.Annotation) {
			a.Region.BottomRight = a.Region.TopLeft
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testAnnotation("a1", annotation.CategoryAnatomical, "pico", "beak")
			tt.mutate(&a)
			if _, err := annotation.NewPool([]annotation.Annotation{a}); err == nil {
				t.Error("NewPool() should reject invalid annotation")
			}
		})
	}
}

func TestPool_ByCategory(t *testing.T) {
	pool, err := annotation.NewPool([]annotation.Annotation{
		testAnnotation("a1", annotation.CategoryAnatomical, "pico", "beak"),
		testAnnotation("a2", annotation.CategoryAnatomical, "ala", "wing"),
		testAnnotation("a3", annotation.CategoryColor, "rojo", "red"),
	})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	anatomical := pool.ByCategory(annotation.CategoryAnatomical)
	if len(anatomical) != 2 {
		t.Errorf("ByCategory(anatomical) returned %d annotations, want 2", len(anatomical))
	}
	if got := pool.ByCategory(annotation.CategoryHabitat); len(got) != 0 {
		t.Errorf("ByCategory(habitat) returned %d annotations, want 0", len(got))
	}
}

func TestPool_ByDifficulty(t *testing.T) {
	hard := testAnnotation("a2", annotation.CategoryBehavioral, "volar", "to fly")
	hard.DifficultyLevel = 4

	pool, err := annotation.NewPool([]annotation.Annotation{
		testAnnotation("a1", annotation.CategoryAnatomical, "pico", "beak"),
		hard,
	})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	if got := pool.ByDifficulty(4); len(got) != 1 || got[0].ID != "a2" {
		t.Errorf("ByDifficulty(4) = %v, want [a2]", got)
	}
	if got := pool.ByDifficulty(5); len(got) != 0 {
		t.Errorf("ByDifficulty(5) returned %d annotations, want 0", len(got))
	}
}

func TestPool_GroupedByCategory(t *testing.T) {
	pool, err := annotation.NewPool([]annotation.Annotation{
		testAnnotation("a1", annotation.CategoryAnatomical, "pico", "beak"),
		testAnnotation("a2", annotation.CategoryAnatomical, "ala", "wing"),
		testAnnotation("a3", annotation.CategoryColor, "rojo", "red"),
	})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	groups := pool.GroupedByCategory()
	if len(groups[annotation.CategoryAnatomical]) != 2 {
		t.Errorf("anatomical group size = %d, want 2", len(groups[annotation.CategoryAnatomical]))
	}
	if len(groups[annotation.CategoryColor]) != 1 {
		t.Errorf("color group size = %d, want 1", len(groups[annotation.CategoryColor]))
	}
}

func TestPool_FiltersHidden(t *testing.T) {
	hidden := testAnnotation("a2", annotation.CategoryAnatomical, "ala", "wing")
	hidden.Visible = false

	pool, err := annotation.NewPool([]annotation.Annotation{
		testAnnotation("a1", annotation.CategoryAnatomical, "pico", "beak"),
		hidden,
	})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	if pool.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (hidden annotation should be dropped)", pool.Len())
	}
	if _, found := pool.ByID("a2"); found {
		t.Error("ByID(a2) should not find hidden annotation")
	}
}

func TestRegion_Geometry(t *testing.T) {
	r := annotation.Region{
		TopLeft:     annotation.Point{X: 0.2, Y: 0.2},
		BottomRight: annotation.Point{X: 0.6, Y: 0.6},
	}

	if !r.Contains(annotation.Point{X: 0.4, Y: 0.4}) {
		t.Error("Contains() should report interior point")
	}
	if r.Contains(annotation.Point{X: 0.7, Y: 0.4}) {
		t.Error("Contains() should reject exterior point")
	}

	same := r
	if got := r.IoU(same); got != 1 {
		t.Errorf("IoU(self) = %v, want 1", got)
	}
	disjoint := annotation.Region{
		TopLeft:     annotation.Point{X: 0.7, Y: 0.7},
		BottomRight: annotation.Point{X: 0.9, Y: 0.9},
	}
	if got := r.IoU(disjoint); got != 0 {
		t.Errorf("IoU(disjoint) = %v, want 0", got)
	}
}
