package rote

import "time"

// IsDue reports whether a card with the given next-review time is due at now.
// A nil nextReview means the card has never been scheduled and is always due.
func IsDue(nextReview *time.Time, now time.Time) bool {
	if nextReview == nil {
		return true
	}
	return !nextReview.After(now)
}

// DueCount returns how many of the cards are due at now.
func DueCount(cards []Card, now time.Time) int {
	n := 0
	for _, c := range cards {
		if IsDue(c.Stats.NextReview, now) {
			n++
		}
	}
	return n
}

// DueCards filters cards to those due at now and returns them in a random
// presentation order. An empty result means nothing is due; that is not an
// error. The input slice is not mutated.
func DueCards(cards []Card, now time.Time, rng RandomSource) []Card {
	due := make([]Card, 0, len(cards))
	for _, c := range cards {
		if IsDue(c.Stats.NextReview, now) {
			due = append(due, c)
		}
	}
	Shuffle(due, rng)
	return due
}

// DeckCards orders a whole deck for single-deck review: every card is
// included regardless of due-ness, the order is random, and the card with
// firstID is pinned to the front so the card that triggered the session is
// always shown first. The input slice is not mutated.
func DeckCards(cards []Card, firstID string, rng RandomSource) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	Shuffle(out, rng)
	for i, c := range out {
		if c.ID == firstID {
			out[0], out[i] = out[i], out[0]
			break
		}
	}
	return out
}

// Shuffle permutes cards in place using a Fisher–Yates shuffle driven by rng.
func Shuffle(cards []Card, rng RandomSource) {
	for i := len(cards) - 1; i > 0; i-- {
		j := int(rng.Float64() * float64(i+1))
		if j > i { // Float64 returning values arbitrarily close to 1
			j = i
		}
		cards[i], cards[j] = cards[j], cards[i]
	}
}
