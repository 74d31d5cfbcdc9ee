// Package exercise generates, serializes, and grades practice exercises
// from an annotation pool. Every exercise carries its own answer key so
// grading never needs an external lookup.
package exercise

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aves-lingo/aves-engine/internal/annotation"
)

// Type tags the exercise variants.
type Type string

const (
	TypeVisualIdentification Type = "visual_identification"
	TypeVisualDiscrimination Type = "visual_discrimination"
	TypeAudioRecognition     Type = "audio_recognition"
	TypeTermMatching         Type = "term_matching"
	TypeContextualFill       Type = "contextual_fill"
	TypeSentenceBuilding     Type = "sentence_building"
	TypeCulturalContext      Type = "cultural_context"

	// Spatial variants, synthesized on demand rather than through the
	// level table.
	TypeSpatialClick       Type = "spatial_click"
	TypeBoundingBoxDrawing Type = "bounding_box_drawing"
)

// Option is one selectable choice in an option-based exercise. Visual
// variants attach the image region the option refers to.
type Option struct {
	ID      string             `json:"id"`
	Label   string             `json:"label"`
	ImageID string             `json:"image_id,omitempty"`
	Region  *annotation.Region `json:"region,omitempty"`
}

// MatchPair is one Spanish/English correspondence in a matching exercise.
type MatchPair struct {
	Spanish string `json:"spanish"`
	English string `json:"english"`
}

// Exercise is a self-contained practice item. The Key field holds the
// correct answer in a per-type variant; grading an exercise requires
// nothing beyond this payload.
type Exercise struct {
	ID           string    `json:"id"`
	Type         Type      `json:"type"`
	Instructions string    `json:"instructions"`
	AnnotationID string    `json:"annotation_id,omitempty"`
	ImageID      string    `json:"image_id,omitempty"`
	Prompt       string    `json:"prompt,omitempty"`
	Options      []Option  `json:"options,omitempty"`
	SpanishTerms []string  `json:"spanish_terms,omitempty"`
	EnglishTerms []string  `json:"english_terms,omitempty"`
	Words        []string  `json:"words,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Key          AnswerKey `json:"-"`
}

// AnswerKey is the closed set of per-type answer representations. The
// validator dispatches on the concrete type, so an exercise can never
// carry a key its type cannot grade.
type AnswerKey interface {
	keyKind() string
}

// TermKey grades by case-sensitive string equality against a term or
// canonical body-part tag.
type TermKey struct {
	Term string `json:"term"`
}

// OptionKey grades by equality against the correct option's id.
type OptionKey struct {
	OptionID string `json:"option_id"`
}

// PairsKey grades a matching submission: every pair must appear,
// order-independent.
type PairsKey struct {
	Pairs []MatchPair `json:"pairs"`
}

// OrderKey grades an ordered word sequence against the canonical order.
type OrderKey struct {
	Words []string `json:"words"`
}

// IndexKey grades by numeric equality against the correct option index.
type IndexKey struct {
	Index int `json:"index"`
}

// RegionKey grades spatial submissions against a bounding region.
type RegionKey struct {
	Region annotation.Region `json:"region"`
}

func (TermKey) keyKind() string   { return "term" }
func (OptionKey) keyKind() string { return "option" }
func (PairsKey) keyKind() string  { return "pairs" }
func (OrderKey) keyKind() string  { return "order" }
func (IndexKey) keyKind() string  { return "index" }
func (RegionKey) keyKind() string { return "region" }

// keyEnvelope wraps an answer key with its kind tag for transport.
type keyEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type exerciseAlias Exercise

type exerciseWire struct {
	exerciseAlias
	Key *keyEnvelope `json:"key,omitempty"`
}

// MarshalJSON serializes the exercise with its answer key in a tagged
// envelope so a round trip preserves everything grading needs.
func (e Exercise) MarshalJSON() ([]byte, error) {
	wire := exerciseWire{exerciseAlias: exerciseAlias(e)}
	if e.Key != nil {
		data, err := json.Marshal(e.Key)
		if err != nil {
			return nil, fmt.Errorf("marshaling answer key: %w", err)
		}
		wire.Key = &keyEnvelope{Kind: e.Key.keyKind(), Data: data}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON restores the exercise including its typed answer key.
func (e *Exercise) UnmarshalJSON(data []byte) error {
	var wire exerciseWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*e = Exercise(wire.exerciseAlias)
	if wire.Key == nil {
		return nil
	}

	key, err := decodeKey(wire.Key.Kind, wire.Key.Data)
	if err != nil {
		return err
	}
	e.Key = key
	return nil
}

func decodeKey(kind string, data json.RawMessage) (AnswerKey, error) {
	switch kind {
	case "term":
		var k TermKey
		err := json.Unmarshal(data, &k)
		return k, err
	case "option":
		var k OptionKey
		err := json.Unmarshal(data, &k)
		return k, err
	case "pairs":
		var k PairsKey
		err := json.Unmarshal(data, &k)
		return k, err
	case "order":
		var k OrderKey
		err := json.Unmarshal(data, &k)
		return k, err
	case "index":
		var k IndexKey
		err := json.Unmarshal(data, &k)
		return k, err
	case "region":
		var k RegionKey
		err := json.Unmarshal(data, &k)
		return k, err
	default:
		return nil, fmt.Errorf("unknown answer key kind %q", kind)
	}
}

// Submission is a user's answer tagged to an exercise. Exactly one of
// the answer fields is set depending on the exercise type.
type Submission struct {
	ExerciseID string            `json:"exercise_id"`
	Text       string            `json:"text,omitempty"`
	Number     *float64          `json:"number,omitempty"`
	Ordered    []string          `json:"ordered,omitempty"`
	Mapping    map[string]string `json:"mapping,omitempty"`
}

// Result records the outcome of grading one submission.
type Result struct {
	ExerciseID   string             `json:"exercise_id"`
	Type         Type               `json:"type"`
	AnnotationID string             `json:"annotation_id,omitempty"`
	Correct      bool               `json:"correct"`
	Score        float64            `json:"score"`
	Elapsed      time.Duration      `json:"elapsed"`
	Attempts     int                `json:"attempts,omitempty"`
	HintsUsed    int                `json:"hints_used,omitempty"`
	Metadata     map[string]float64 `json:"metadata,omitempty"`
	RecordedAt   time.Time          `json:"recorded_at"`
}
