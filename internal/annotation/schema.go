package annotation

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema validates annotation documents pushed by the CMS over
// JSON before they are admitted to a pool. Structural checks only; range
// invariants are re-checked by Annotation.Validate.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["annotations"],
  "properties": {
    "annotations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "image_id", "region", "category", "spanish_term", "english_term", "difficulty_level"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "image_id": {"type": "string", "minLength": 1},
          "region": {
            "type": "object",
            "required": ["top_left", "bottom_right"],
            "properties": {
              "top_left": {"$ref": "#/definitions/point"},
              "bottom_right": {"$ref": "#/definitions/point"},
              "shape": {"type": "string"}
            }
          },
          "category": {"enum": ["anatomical", "behavioral", "color", "pattern", "habitat"]},
          "spanish_term": {"type": "string", "minLength": 1},
          "english_term": {"type": "string", "minLength": 1},
          "pronunciation": {"type": "string"},
          "difficulty_level": {"type": "integer", "minimum": 1, "maximum": 5},
          "visible": {"type": "boolean"}
        }
      }
    }
  },
  "definitions": {
    "point": {
      "type": "object",
      "required": ["x", "y"],
      "properties": {
        "x": {"type": "number", "minimum": 0, "maximum": 1},
        "y": {"type": "number", "minimum": 0, "maximum": 1}
      }
    }
  }
}`

// ParseDocument validates a JSON annotation document against the schema
// and decodes it. Schema violations are reported with their JSON paths.
func ParseDocument(doc []byte) ([]Annotation, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("validating annotation document: %w", err)
	}
	if !result.Valid() {
		msg := "annotation document rejected:"
		for _, desc := range result.Errors() {
			msg += fmt.Sprintf(" [%s: %s]", desc.Field(), desc.Description())
		}
		return nil, fmt.Errorf("%s", msg)
	}

	var parsed struct {
		Annotations []Annotation `json:"annotations"`
	}
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("decoding annotation document: %w", err)
	}

	for i := range parsed.Annotations {
		if err := parsed.Annotations[i].Validate(); err != nil {
			return nil, err
		}
	}
	return parsed.Annotations, nil
}
