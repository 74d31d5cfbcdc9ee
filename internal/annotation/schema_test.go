package annotation_test

import (
	"testing"

	"github.com/aves-lingo/aves-engine/internal/annotation"
)

const validDocument = `{
  "annotations": [
    {
      "id": "a1",
      "image_id": "cardinal-01",
      "region": {
        "top_left": {"x": 0.1, "y": 0.1},
        "bottom_right": {"x": 0.3, "y": 0.25}
      },
      "category": "anatomical",
      "spanish_term": "pico",
      "english_term": "beak",
      "difficulty_level": 1,
      "visible": true
    }
  ]
}`

func TestParseDocument(t *testing.T) {
	annotations, err := annotation.ParseDocument([]byte(validDocument))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if len(annotations) != 1 {
		t.Fatalf("ParseDocument() returned %d annotations, want 1", len(annotations))
	}
	if annotations[0].Category != annotation.CategoryAnatomical {
		t.Errorf("Category = %q, want anatomical", annotations[0].Category)
	}
}

func TestParseDocument_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not-json", `not json`},
		{"missing-annotations", `{}`},
		{"missing-term", `{"annotations":[{"id":"a1","image_id":"i","region":{"top_left":{"x":0,"y":0},"bottom_right":{"x":1,"y":1}},"category":"anatomical","english_term":"beak","difficulty_level":1}]}`},
		{"bad-category", `{"annotations":[{"id":"a1","image_id":"i","region":{"top_left":{"x":0,"y":0},"bottom_right":{"x":1,"y":1}},"category":"size","spanish_term":"pico","english_term":"beak","difficulty_level":1}]}`},
		{"difficulty-out-of-range", `{"annotations":[{"id":"a1","image_id":"i","region":{"top_left":{"x":0,"y":0},"bottom_right":{"x":1,"y":1}},"category":"anatomical","spanish_term":"pico","english_term":"beak","difficulty_level":7}]}`},
		{"coordinate-out-of-range", `{"annotations":[{"id":"a1","image_id":"i","region":{"top_left":{"x":0,"y":0},"bottom_right":{"x":2,"y":1}},"category":"anatomical","spanish_term":"pico","english_term":"beak","difficulty_level":1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := annotation.ParseDocument([]byte(tt.doc)); err == nil {
				t.Error("ParseDocument() should reject document")
			}
		})
	}
}

func TestParseDocument_DegenerateRegion(t *testing.T) {
	// Passes the structural schema but violates the region invariant.
	doc := `{"annotations":[{"id":"a1","image_id":"i","region":{"top_left":{"x":0.5,"y":0.5},"bottom_right":{"x":0.5,"y":0.5}},"category":"anatomical","spanish_term":"pico","english_term":"beak","difficulty_level":1,"visible":true}]}`
	if _, err := annotation.ParseDocument([]byte(doc)); err == nil {
		t.Error("ParseDocument() should reject degenerate region")
	}
}
