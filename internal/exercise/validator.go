package exercise

import (
	"math"
	"strconv"
	"time"

	"github.com/aves-lingo/aves-engine/internal/annotation"
)

// boxDrawingIoUThreshold is the minimum overlap for a drawn bounding
// box to count as correct.
const boxDrawingIoUThreshold = 0.5

// CheckAnswer grades a submission against the exercise's embedded key.
// Unknown or unsupported type tags fail closed: a stale or malicious
// submission must never crash the grading path.
func CheckAnswer(ex *Exercise, sub Submission) bool {
	if ex == nil || ex.Key == nil {
		return false
	}

	switch ex.Type {
	case TypeVisualIdentification, TypeContextualFill:
		key, ok := ex.Key.(TermKey)
		return ok && sub.Text != "" && sub.Text == key.Term

	case TypeVisualDiscrimination, TypeAudioRecognition:
		key, ok := ex.Key.(OptionKey)
		return ok && sub.Text != "" && sub.Text == key.OptionID

	case TypeTermMatching:
		key, ok := ex.Key.(PairsKey)
		if !ok || len(sub.Mapping) == 0 {
			return false
		}
		// Every stored pair must appear; extra or reordered pairs in
		// the submission are allowed.
		for _, p := range key.Pairs {
			if sub.Mapping[p.Spanish] != p.English {
				return false
			}
		}
		return true

	case TypeSentenceBuilding:
		key, ok := ex.Key.(OrderKey)
		if !ok || len(sub.Ordered) != len(key.Words) {
			return false
		}
		for i, w := range key.Words {
			if sub.Ordered[i] != w {
				return false
			}
		}
		return true

	case TypeCulturalContext:
		key, ok := ex.Key.(IndexKey)
		return ok && sub.Number != nil && *sub.Number == float64(key.Index)

	case TypeSpatialClick:
		key, ok := ex.Key.(RegionKey)
		if !ok {
			return false
		}
		p, ok := submittedPoint(sub)
		return ok && key.Region.Contains(p)

	case TypeBoundingBoxDrawing:
		key, ok := ex.Key.(RegionKey)
		if !ok {
			return false
		}
		r, ok := submittedRegion(sub)
		return ok && key.Region.IoU(r) >= boxDrawingIoUThreshold

	default:
		return false
	}
}

// Grade produces a full result for a submission, with partial credit
// and per-type metadata where the exercise shape supports it.
func Grade(ex *Exercise, sub Submission, elapsed time.Duration) Result {
	res := Result{
		ExerciseID: ex.ID,
		Type:       ex.Type,
		RecordedAt: time.Now(),
		Elapsed:    elapsed,
	}
	res.AnnotationID = ex.AnnotationID
	res.Correct = CheckAnswer(ex, sub)
	if res.Correct {
		res.Score = 1
	}

	switch ex.Type {
	case TypeTermMatching:
		if key, ok := ex.Key.(PairsKey); ok && len(key.Pairs) > 0 {
			matched := 0
			for _, p := range key.Pairs {
				if sub.Mapping[p.Spanish] == p.English {
					matched++
				}
			}
			res.Score = float64(matched) / float64(len(key.Pairs))
			res.Metadata = map[string]float64{"matched_pairs": float64(matched)}
		}

	case TypeSpatialClick:
		if key, ok := ex.Key.(RegionKey); ok {
			if p, ok := submittedPoint(sub); ok {
				c := key.Region.Center()
				dist := math.Hypot(p.X-c.X, p.Y-c.Y)
				res.Metadata = map[string]float64{"click_distance": dist}
			}
		}

	case TypeBoundingBoxDrawing:
		if key, ok := ex.Key.(RegionKey); ok {
			if r, ok := submittedRegion(sub); ok {
				res.Metadata = map[string]float64{"iou": key.Region.IoU(r)}
			}
		}
	}

	return res
}

// submittedPoint decodes a normalized click point from the submission
// mapping ("x"/"y" keys).
func submittedPoint(sub Submission) (annotation.Point, bool) {
	x, okX := parseCoord(sub.Mapping["x"])
	y, okY := parseCoord(sub.Mapping["y"])
	if !okX || !okY {
		return annotation.Point{}, false
	}
	return annotation.Point{X: x, Y: y}, true
}

// submittedRegion decodes a drawn box from the submission mapping
// ("x1"/"y1"/"x2"/"y2" keys).
func submittedRegion(sub Submission) (annotation.Region, bool) {
	x1, ok1 := parseCoord(sub.Mapping["x1"])
	y1, ok2 := parseCoord(sub.Mapping["y1"])
	x2, ok3 := parseCoord(sub.Mapping["x2"])
	y2, ok4 := parseCoord(sub.Mapping["y2"])
	if !ok1 || !ok2 || !ok3 || !ok4 || x2 <= x1 || y2 <= y1 {
		return annotation.Region{}, false
	}
	return annotation.Region{
		TopLeft:     annotation.Point{X: x1, Y: y1},
		BottomRight: annotation.Point{X: x2, Y: y2},
	}, true
}

func parseCoord(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, false
	}
	return v, true
}
