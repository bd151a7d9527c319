// Package session drives one review sitting over an ordered set of cards.
//
// A Session presents one card at a time: the caller reveals the answer, the
// learner responds, and the session schedules the card's next review, writes
// the updated stats through to a Store, and either re-presents the card
// (hard) or advances. Presentation order is fixed at load time; a hard
// response causes exactly one immediate same-card re-presentation before the
// cursor moves again.
//
// Sessions are single-goroutine state machines: each transition runs to
// completion before the next is accepted, and invalid or reentrant
// transitions are no-ops rather than errors, so rapid duplicate UI events
// are harmless. A failed store write never blocks navigation; it is absorbed
// into the session's failure counters for the caller to surface.
package session
