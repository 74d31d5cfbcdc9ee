package annotation_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aves-lingo/aves-engine/internal/annotation"
)

const sampleSet = `image_id: cardinal-01
annotations:
  - id: a1
    region:
      top_left: {x: 0.1, y: 0.1}
      bottom_right: {x: 0.3, y: 0.25}
    category: anatomical
    spanish_term: pico
    english_term: beak
    pronunciation: PEE-koh
    difficulty_level: 1
    visible: true
  - id: a2
    region:
      top_left: {x: 0.4, y: 0.3}
      bottom_right: {x: 0.8, y: 0.6}
    category: anatomical
    spanish_term: ala
    english_term: wing
    difficulty_level: 2
    visible: true
`

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cardinal.yaml"), []byte(sampleSet), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	// A stray non-annotation YAML must be skipped, not fail the load.
	if err := os.WriteFile(filepath.Join(dir, "notes.yaml"), []byte("title: notes\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	annotations, err := annotation.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(annotations) != 2 {
		t.Fatalf("LoadDir() returned %d annotations, want 2", len(annotations))
	}

	if annotations[0].ImageID != "cardinal-01" {
		t.Errorf("ImageID = %q, want cardinal-01 (inherited from set)", annotations[0].ImageID)
	}
	if annotations[0].SpanishTerm != "pico" || annotations[0].EnglishTerm != "beak" {
		t.Errorf("first annotation = %q/%q, want pico/beak",
			annotations[0].SpanishTerm, annotations[0].EnglishTerm)
	}
	if !annotations[0].HasPronunciation() {
		t.Error("first annotation should have a pronunciation guide")
	}
	if annotations[1].HasPronunciation() {
		t.Error("second annotation should not have a pronunciation guide")
	}
}

func TestLoadDir_InvalidAnnotation(t *testing.T) {
	dir := t.TempDir()
	bad := `image_id: x
annotations:
  - id: a1
    region:
      top_left: {x: 0.1, y: 0.1}
      bottom_right: {x: 0.3, y: 0.25}
    category: anatomical
    spanish_term: pico
    english_term: beak
    difficulty_level: 9
    visible: true
`
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if _, err := annotation.LoadDir(dir); err == nil {
		t.Error("LoadDir() should fail on out-of-range difficulty")
	}
}
