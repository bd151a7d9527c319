package rote

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Mastery classifies how well a learner knows a card, derived from its
// repetition count and ease factor.
type Mastery int

const (
	MasteryNew           Mastery = iota + 1 // Never reviewed.
	MasteryLearning                         // In the early fixed-interval stages.
	MasteryConsolidating                    // Past the early stages, not yet stable.
	MasteryReview                           // Mature but still effortful.
	MasteryMastered                         // Mature and easy.
)

// masteredEase is the ease threshold above which a mature card counts as mastered.
const masteredEase = 2.3

// highLapses is the lapse count at which a mature card is demoted from
// mastered to review by the lapse-aware classifier.
const highLapses = 3

var (
	masteryNames = [...]string{
		MasteryNew:           "new",
		MasteryLearning:      "learning",
		MasteryConsolidating: "consolidating",
		MasteryReview:        "review",
		MasteryMastered:      "mastered",
	}
	masteryByName = map[string]Mastery{
		"new":           MasteryNew,
		"learning":      MasteryLearning,
		"consolidating": MasteryConsolidating,
		"review":        MasteryReview,
		"mastered":      MasteryMastered,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Mastery(0)
	_ json.Marshaler           = Mastery(0)
	_ json.Unmarshaler         = (*Mastery)(nil)
	_ encoding.TextMarshaler   = Mastery(0)
	_ encoding.TextUnmarshaler = (*Mastery)(nil)
)

// ClassifyMastery returns the mastery level for the given repetition count
// and ease factor.
func ClassifyMastery(repetitions int, ease float64) Mastery {
	switch {
	case repetitions == 0:
		return MasteryNew
	case repetitions < 3:
		return MasteryLearning
	case repetitions < 6:
		return MasteryConsolidating
	case ease > masteredEase:
		return MasteryMastered
	default:
		return MasteryReview
	}
}

// ClassifyMasteryLapses is the lapse-aware variant of ClassifyMastery used by
// the global review flow: a mature card with a high lapse count classifies as
// review even when its ease would otherwise qualify it as mastered.
func ClassifyMasteryLapses(repetitions int, ease float64, lapses int) Mastery {
	m := ClassifyMastery(repetitions, ease)
	if m == MasteryMastered && lapses >= highLapses {
		return MasteryReview
	}
	return m
}

func (m Mastery) isValid() bool {
	return m >= MasteryNew && m <= MasteryMastered
}

// String returns the lowercase name of the mastery level.
// For invalid values it returns "Mastery(n)".
func (m Mastery) String() string {
	if m.isValid() {
		return masteryNames[m]
	}
	return fmt.Sprintf("Mastery(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m Mastery) MarshalText() ([]byte, error) {
	if !m.isValid() {
		return nil, fmt.Errorf("rote: invalid mastery: %d", int(m))
	}
	return []byte(masteryNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mastery) UnmarshalText(text []byte) error {
	v, ok := masteryByName[string(text)]
	if !ok {
		return fmt.Errorf("rote: invalid mastery: %q", text)
	}
	*m = v
	return nil
}

// MarshalJSON implements json.Marshaler. Mastery serializes as a JSON string.
func (m Mastery) MarshalJSON() ([]byte, error) {
	text, err := m.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (m *Mastery) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("rote: invalid mastery: %s", data)
	}
	return m.UnmarshalText([]byte(s))
}
