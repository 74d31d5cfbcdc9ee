package exercise

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/aves-lingo/aves-engine/internal/annotation"
)

// MinAnnotations returns the smallest pool a type can be synthesized
// from. Zero means the type is independent of the pool.
func MinAnnotations(t Type) int {
	switch t {
	case TypeVisualIdentification, TypeSentenceBuilding, TypeSpatialClick, TypeBoundingBoxDrawing:
		return 1
	case TypeVisualDiscrimination, TypeAudioRecognition, TypeTermMatching, TypeContextualFill:
		return 4
	case TypeCulturalContext:
		return 0
	default:
		return 0
	}
}

// Synthesizer builds exercises from an annotation pool and the static
// content tables. A nil return means the pool cannot support the
// requested type; callers skip and reselect, it is never an error.
type Synthesizer struct {
	pool    *annotation.Pool
	content *Content
	rng     *rand.Rand
	now     func() time.Time
}

// NewSynthesizer creates a synthesizer. The random source is injected
// so distractor choice and shuffles are deterministic under a seed.
func NewSynthesizer(pool *annotation.Pool, content *Content, rng *rand.Rand) *Synthesizer {
	if content == nil {
		content = DefaultContent()
	}
	return &Synthesizer{
		pool:    pool,
		content: content,
		rng:     rng,
		now:     time.Now,
	}
}

// Synthesize builds an exercise of the given type from the full pool.
func (s *Synthesizer) Synthesize(t Type) *Exercise {
	return s.build(t, s.pool.All())
}

// SynthesizeAt prefers annotations of the given difficulty, falling
// back to the full pool when the filtered set is below the type's
// minimum.
func (s *Synthesizer) SynthesizeAt(t Type, difficulty int) *Exercise {
	anns := s.pool.ByDifficulty(difficulty)
	if len(anns) < MinAnnotations(t) {
		anns = s.pool.All()
	}
	return s.build(t, anns)
}

func (s *Synthesizer) build(t Type, anns []annotation.Annotation) *Exercise {
	if len(anns) < MinAnnotations(t) {
		return nil
	}
	switch t {
	case TypeVisualIdentification:
		return s.visualIdentification(anns)
	case TypeVisualDiscrimination:
		return s.visualDiscrimination(anns)
	case TypeAudioRecognition:
		return s.audioRecognition(anns)
	case TypeTermMatching:
		return s.termMatching(anns)
	case TypeContextualFill:
		return s.contextualFill(anns)
	case TypeSentenceBuilding:
		return s.sentenceBuilding(anns)
	case TypeCulturalContext:
		return s.culturalContext()
	case TypeSpatialClick:
		return s.spatialClick(anns)
	case TypeBoundingBoxDrawing:
		return s.boundingBoxDrawing(anns)
	default:
		return nil
	}
}

func (s *Synthesizer) visualIdentification(anns []annotation.Annotation) *Exercise {
	var anatomical []annotation.Annotation
	for _, a := range anns {
		if a.Category == annotation.CategoryAnatomical {
			anatomical = append(anatomical, a)
		}
	}
	if len(anatomical) == 0 {
		return nil
	}

	target := anatomical[s.rng.Intn(len(anatomical))]
	tag := s.content.BodyPartTag(target.SpanishTerm)

	ex := s.newExercise(TypeVisualIdentification, "Look at the highlighted area and name the body part in English.")
	ex.AnnotationID = target.ID
	ex.ImageID = target.ImageID
	ex.Prompt = target.SpanishTerm
	ex.Key = TermKey{Term: tag}
	return ex
}

func (s *Synthesizer) visualDiscrimination(anns []annotation.Annotation) *Exercise {
	shuffled := s.shuffled(anns)
	target := shuffled[0]
	choices := shuffled[:4]

	options := make([]Option, 0, 4)
	for _, a := range choices {
		region := a.Region
		options = append(options, Option{
			ID:      a.ID,
			Label:   a.SpanishTerm,
			ImageID: a.ImageID,
			Region:  &region,
		})
	}
	s.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	ex := s.newExercise(TypeVisualDiscrimination, "Select the image region that matches the term.")
	ex.AnnotationID = target.ID
	ex.Prompt = target.SpanishTerm
	ex.Options = options
	ex.Key = OptionKey{OptionID: target.ID}
	return ex
}

func (s *Synthesizer) audioRecognition(anns []annotation.Annotation) *Exercise {
	var voiced []annotation.Annotation
	for _, a := range anns {
		if a.HasPronunciation() {
			voiced = append(voiced, a)
		}
	}
	if len(voiced) < 4 {
		return nil
	}

	shuffled := s.shuffled(voiced)
	target := shuffled[0]
	choices := shuffled[:4]

	options := make([]Option, 0, 4)
	for _, a := range choices {
		options = append(options, Option{ID: a.ID, Label: a.SpanishTerm})
	}
	s.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	ex := s.newExercise(TypeAudioRecognition, "Listen to the pronunciation and choose the term you hear.")
	ex.AnnotationID = target.ID
	ex.Prompt = target.Pronunciation
	ex.Options = options
	ex.Key = OptionKey{OptionID: target.ID}
	return ex
}

func (s *Synthesizer) termMatching(anns []annotation.Annotation) *Exercise {
	groups := make(map[annotation.Category][]annotation.Annotation)
	for _, a := range anns {
		groups[a.Category] = append(groups[a.Category], a)
	}

	// Pick a thematically coherent category with enough members.
	// Iterate the fixed category list so the choice is stable under a
	// seeded random source.
	var eligible []annotation.Category
	for _, c := range annotation.Categories {
		if len(groups[c]) >= 4 {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	category := eligible[s.rng.Intn(len(eligible))]
	members := groups[category][:4]

	pairs := make([]MatchPair, 0, 4)
	spanish := make([]string, 0, 4)
	english := make([]string, 0, 4)
	for _, a := range members {
		pairs = append(pairs, MatchPair{Spanish: a.SpanishTerm, English: a.EnglishTerm})
		spanish = append(spanish, a.SpanishTerm)
		english = append(english, a.EnglishTerm)
	}
	s.rng.Shuffle(len(english), func(i, j int) {
		english[i], english[j] = english[j], english[i]
	})

	ex := s.newExercise(TypeTermMatching, "Match each Spanish term with its English translation.")
	ex.SpanishTerms = spanish
	ex.EnglishTerms = english
	ex.Key = PairsKey{Pairs: pairs}
	return ex
}

func (s *Synthesizer) contextualFill(anns []annotation.Annotation) *Exercise {
	// A target needs three same-category distractors besides itself.
	byCategory := make(map[annotation.Category]int)
	for _, a := range anns {
		byCategory[a.Category]++
	}
	var eligible []annotation.Annotation
	for _, a := range anns {
		if byCategory[a.Category]-1 >= 3 {
			eligible = append(eligible, a)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	target := eligible[s.rng.Intn(len(eligible))]

	var distractors []annotation.Annotation
	for _, a := range anns {
		if a.Category == target.Category && a.ID != target.ID {
			distractors = append(distractors, a)
		}
	}
	distractors = s.shuffled(distractors)[:3]

	options := make([]Option, 0, 4)
	options = append(options, Option{ID: slugTerm(target.SpanishTerm), Label: target.SpanishTerm})
	for _, a := range distractors {
		options = append(options, Option{ID: slugTerm(a.SpanishTerm), Label: a.SpanishTerm})
	}
	s.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	template := s.content.FillTemplates[s.rng.Intn(len(s.content.FillTemplates))]

	ex := s.newExercise(TypeContextualFill, "Choose the word that completes the sentence.")
	ex.AnnotationID = target.ID
	ex.Prompt = template
	ex.Options = options
	ex.Key = TermKey{Term: target.SpanishTerm}
	return ex
}

func (s *Synthesizer) sentenceBuilding(anns []annotation.Annotation) *Exercise {
	target := anns[s.rng.Intn(len(anns))]

	vocab := s.content.Adjectives
	if s.rng.Intn(2) == 1 {
		vocab = s.content.Colors
	}
	adj := vocab[s.rng.Intn(len(vocab))]

	template := s.content.SentenceTemplates[s.rng.Intn(len(s.content.SentenceTemplates))]
	sentence := strings.ReplaceAll(template, "{term}", target.SpanishTerm)
	sentence = strings.ReplaceAll(sentence, "{adj}", adj)
	canonical := strings.Fields(sentence)

	scrambled := make([]string, len(canonical))
	copy(scrambled, canonical)
	s.rng.Shuffle(len(scrambled), func(i, j int) {
		scrambled[i], scrambled[j] = scrambled[j], scrambled[i]
	})

	ex := s.newExercise(TypeSentenceBuilding, "Arrange the words to form a correct sentence.")
	ex.AnnotationID = target.ID
	ex.Words = scrambled
	ex.Key = OrderKey{Words: canonical}
	return ex
}

func (s *Synthesizer) culturalContext() *Exercise {
	if len(s.content.Trivia) == 0 {
		return nil
	}
	q := s.content.Trivia[s.rng.Intn(len(s.content.Trivia))]

	options := make([]Option, 0, len(q.Options))
	for i, label := range q.Options {
		options = append(options, Option{ID: strconv.Itoa(i), Label: label})
	}

	ex := s.newExercise(TypeCulturalContext, "Answer the question about birds in the Spanish-speaking world.")
	ex.Prompt = q.Question
	ex.Options = options
	ex.Key = IndexKey{Index: q.CorrectIndex}
	return ex
}

func (s *Synthesizer) spatialClick(anns []annotation.Annotation) *Exercise {
	target := anns[s.rng.Intn(len(anns))]

	ex := s.newExercise(TypeSpatialClick, fmt.Sprintf("Click on the %s in the image.", target.SpanishTerm))
	ex.AnnotationID = target.ID
	ex.ImageID = target.ImageID
	ex.Prompt = target.SpanishTerm
	ex.Key = RegionKey{Region: target.Region}
	return ex
}

func (s *Synthesizer) boundingBoxDrawing(anns []annotation.Annotation) *Exercise {
	target := anns[s.rng.Intn(len(anns))]

	ex := s.newExercise(TypeBoundingBoxDrawing, fmt.Sprintf("Draw a box around the %s.", target.SpanishTerm))
	ex.AnnotationID = target.ID
	ex.ImageID = target.ImageID
	ex.Prompt = target.SpanishTerm
	ex.Key = RegionKey{Region: target.Region}
	return ex
}

func (s *Synthesizer) newExercise(t Type, instructions string) *Exercise {
	now := s.now()
	return &Exercise{
		ID:           fmt.Sprintf("ex-%d-%04d", now.UnixNano(), s.rng.Intn(10000)),
		Type:         t,
		Instructions: instructions,
		CreatedAt:    now,
	}
}

func (s *Synthesizer) shuffled(anns []annotation.Annotation) []annotation.Annotation {
	out := make([]annotation.Annotation, len(anns))
	copy(out, anns)
	s.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
