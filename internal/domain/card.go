package domain

// Card is a static tarot card definition from the card catalog.
type Card struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol,omitempty"`
	MeaningUpright  string  `json:"meaningUpright,omitempty"`
	MeaningReversed string  `json:"meaningReversed,omitempty"`
	Description     string  `json:"description,omitempty"`
	Meaning         string  `json:"meaning,omitempty"`
	Image           *string `json:"image"`
}

// Summary returns the description if present, otherwise the upright
// meaning, otherwise the legacy single meaning field.
func (c Card) Summary() string {
	switch {
	case c.Description != "":
		return c.Description
	case c.MeaningUpright != "":
		return c.MeaningUpright
	default:
		return c.Meaning
	}
}

// Valid reports whether the card carries the minimum fields needed for a reading.
func (c Card) Valid() bool { return c.Name != "" }

// ReadingType selects the interpretation template family.
type ReadingType string

const (
	ReadingDaily      ReadingType = "daily_card"
	ReadingQuestion   ReadingType = "question"
	ReadingClarifying ReadingType = "clarifying_question"
	ReadingSpread     ReadingType = "spread"
)

// Normalize maps unknown or empty types to ReadingQuestion.
func (t ReadingType) Normalize() ReadingType {
	switch t {
	case ReadingDaily, ReadingQuestion, ReadingClarifying, ReadingSpread:
		return t
	default:
		return ReadingQuestion
	}
}
