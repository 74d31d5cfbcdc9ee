package exercise

// TriviaQuestion is one fixed cultural-context question.
type TriviaQuestion struct {
	Question     string   `json:"question" yaml:"question"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correct_index" yaml:"correct_index"`
}

// Content holds the static tables synthesis draws from: the body-part
// lookup, the distractor vocabulary, sentence templates, and cultural
// trivia. Injected at construction and never mutated, so learner
// sessions share no hidden state.
type Content struct {
	// BodyParts maps a folded Spanish anatomical term to its canonical
	// body-part tag.
	BodyParts map[string]string
	// FallbackBodyPart is used when a term has no table entry.
	FallbackBodyPart string
	// Adjectives and Colors parameterize sentence-building templates.
	Adjectives []string
	Colors     []string
	// SentenceTemplates contain {term} and {adj} placeholders; the
	// canonical word order is the template's own order.
	SentenceTemplates []string
	// FillTemplates contain a ___ blank for contextual-fill prompts.
	FillTemplates []string
	// Trivia is the fixed cultural-context question bank.
	Trivia []TriviaQuestion
}

// DefaultContent returns the built-in content tables.
func DefaultContent() *Content {
	return &Content{
		BodyParts: map[string]string{
			"pico":    "beak",
			"ala":     "wing",
			"alas":    "wing",
			"cola":    "tail",
			"pata":    "leg",
			"patas":   "leg",
			"cabeza":  "head",
			"ojo":     "eye",
			"ojos":    "eye",
			"pecho":   "breast",
			"cuello":  "neck",
			"pluma":   "feather",
			"plumas":  "feather",
			"plumaje": "plumage",
			"garra":   "claw",
			"garras":  "claw",
			"espalda": "back",
			"vientre": "belly",
			"cresta":  "crest",
		},
		FallbackBodyPart: "beak",
		Adjectives: []string{
			"grande", "pequeño", "bonito", "rápido", "brillante",
		},
		Colors: []string{
			"rojo", "azul", "amarillo", "negro", "blanco", "verde",
		},
		SentenceTemplates: []string{
			"el {term} es {adj}",
			"el pájaro tiene un {term} {adj}",
			"veo un {term} muy {adj}",
		},
		FillTemplates: []string{
			"El pájaro usa su ___ para volar.",
			"Mira el ___ de ese pájaro.",
			"El ___ de esta especie es muy llamativo.",
			"Los científicos estudian el ___ para identificar la especie.",
		},
		Trivia: []TriviaQuestion{
			{
				Question:     "¿Qué ave es el símbolo nacional de México?",
				Options:      []string{"El cóndor", "El águila real", "El quetzal", "El colibrí"},
				CorrectIndex: 1,
			},
			{
				Question:     "¿Qué ave aparece en el escudo de Guatemala?",
				Options:      []string{"El quetzal", "El tucán", "La guacamaya", "El flamenco"},
				CorrectIndex: 0,
			},
			{
				Question:     "En la cultura andina, ¿qué ave se asocia con el mundo de arriba?",
				Options:      []string{"El hornero", "El cóndor", "El ñandú", "La lechuza"},
				CorrectIndex: 1,
			},
			{
				Question:     "¿Cuál es el ave nacional de Argentina?",
				Options:      []string{"El hornero", "El chimango", "El tero", "El carpintero"},
				CorrectIndex: 0,
			},
			{
				Question:     "¿Qué colibrí es el ave más pequeña del mundo?",
				Options:      []string{"El zunzuncito", "El picaflor rubí", "La esmeralda", "El ermitaño"},
				CorrectIndex: 0,
			},
		},
	}
}

// BodyPartTag resolves a Spanish anatomical term to its canonical tag,
// falling back when the term is not in the table.
func (c *Content) BodyPartTag(spanishTerm string) string {
	if tag, ok := c.BodyParts[foldTerm(spanishTerm)]; ok {
		return tag
	}
	return c.FallbackBodyPart
}
