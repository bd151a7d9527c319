package rote

import (
	"time"

	"github.com/google/uuid"
)

// Ease factor bounds and default. The ease factor governs how fast review
// intervals grow for a card; it never leaves [MinEase, MaxEase].
const (
	MinEase     = 1.3
	MaxEase     = 3.0
	DefaultEase = 2.5
)

// CardStats is the scheduling-relevant state of a card.
type CardStats struct {
	Interval     int        `json:"interval"`      // days until next review; 0 = due within minutes.
	Repetitions  int        `json:"repetitions"`   // consecutive non-hard reviews since last reset.
	EaseFactor   float64    `json:"ease_factor"`   // [MinEase, MaxEase]; zero means "unset" → DefaultEase.
	Lapses       int        `json:"lapses"`        // hard responses recorded on this card.
	LastReviewed *time.Time `json:"last_reviewed"` // nil before first review.
	NextReview   *time.Time `json:"next_review"`   // nil = always due.
}

// Card is a flashcard: identity, content, and scheduling state.
type Card struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id"`
	DeckID string    `json:"deck_id"`
	Front  string    `json:"front"`
	Back   string    `json:"back"`
	Stats  CardStats `json:"stats"`
}

// NewCard creates a card with a fresh ID and zero stats (due immediately).
func NewCard(userID, deckID, front, back string) Card {
	return Card{
		ID:     uuid.NewString(),
		UserID: userID,
		DeckID: deckID,
		Front:  front,
		Back:   back,
	}
}

// clone returns a deep copy of the stats. Pointer fields are copied by value.
func (s CardStats) clone() CardStats {
	out := s
	if s.LastReviewed != nil {
		v := *s.LastReviewed
		out.LastReviewed = &v
	}
	if s.NextReview != nil {
		v := *s.NextReview
		out.NextReview = &v
	}
	return out
}

// normalize corrects out-of-domain inputs instead of rejecting them:
// unset ease becomes DefaultEase, out-of-range ease is clamped, and negative
// interval/repetitions/lapses become zero. Deliberately lenient so the
// scheduler is a total function over anything a store can hand it.
func (s CardStats) normalize() CardStats {
	out := s.clone()
	if out.EaseFactor == 0 {
		out.EaseFactor = DefaultEase
	}
	out.EaseFactor = clampEase(out.EaseFactor)
	if out.Interval < 0 {
		out.Interval = 0
	}
	if out.Repetitions < 0 {
		out.Repetitions = 0
	}
	if out.Lapses < 0 {
		out.Lapses = 0
	}
	return out
}

func clampEase(e float64) float64 {
	if e < MinEase {
		return MinEase
	}
	if e > MaxEase {
		return MaxEase
	}
	return e
}

// EasePercent converts an ease factor to the percentage shown to learners:
// DefaultEase maps to 0, MaxEase to +50, MinEase to -120.
func EasePercent(ease float64) float64 {
	return ease*100 - 250
}
