// Package rote implements an SM-2-style spaced repetition scheduling core.
//
// rote provides a pure Scheduler for computing review intervals from a
// learner's response, due-set selection and ordering helpers, a session
// state machine (in the rote/session subpackage) for driving one review
// sitting, and a SQLite card store (in rote/cardstore).
//
// Basic usage:
//
//	s, err := rote.NewScheduler(rote.SchedulerConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	card := rote.NewCard(userID, deckID, "front", "back")
//	card.Stats = s.NextReview(card.Stats, rote.Easy, time.Now())
package rote
