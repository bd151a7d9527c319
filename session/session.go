package session

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rote-dev/rote"
)

// Mode selects how the working set was assembled and which transitions are
// available at the end of the sequence.
type Mode int

const (
	ModeDue  Mode = iota + 1 // all due cards; session ends when the set is exhausted.
	ModeDeck                 // one deck; Continue may restart with a reshuffle.
)

// Phase is the presentation state of the current card.
type Phase int

const (
	PhaseQuestion Phase = iota + 1 // front shown, answer hidden.
	PhaseAnswer                    // answer revealed, awaiting a response.
	PhaseDone                      // cursor advanced past the last card.
)

var phaseNames = [...]string{PhaseQuestion: "question", PhaseAnswer: "answer", PhaseDone: "done"}

// String returns the lowercase name of the phase.
func (p Phase) String() string {
	if p >= PhaseQuestion && p <= PhaseDone {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Outcome reports what a Respond call did.
type Outcome int

const (
	OutcomeIgnored Outcome = iota // invalid transition; nothing happened.
	OutcomeRetry                  // hard: same card will be presented again.
	OutcomeNext                   // advanced to the next card.
	OutcomeDone                   // advanced past the last card; session finished.
)

var outcomeNames = [...]string{
	OutcomeIgnored: "ignored",
	OutcomeRetry:   "retry",
	OutcomeNext:    "next",
	OutcomeDone:    "done",
}

// String returns the lowercase name of the outcome.
func (o Outcome) String() string {
	if o >= OutcomeIgnored && o <= OutcomeDone {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Config configures a Session. Store is required; everything else defaults.
type Config struct {
	Scheduler *rote.Scheduler   // nil → rote.NewScheduler defaults
	Store     Store             // required
	Recorder  Recorder          // optional study-time sink
	Clock     Clock             // nil → wall clock
	Rand      rote.RandomSource // nil → time-seeded; used by Continue's reshuffle
	Mode      Mode              // zero → ModeDue
}

// Session presents an ordered working set of cards one at a time and applies
// the learner's responses. It is not safe for concurrent use; drive it from
// a single goroutine, one event at a time.
type Session struct {
	sched    *rote.Scheduler
	store    Store
	recorder Recorder
	clock    Clock
	rng      rote.RandomSource
	mode     Mode

	cards  []rote.Card
	cursor int
	phase  Phase

	startedAt  time.Time
	revealedAt time.Time

	reviewed      int
	writeFailures int
	lastWriteErr  error

	inFlight bool
	ended    bool
}

// New creates a session over the given working set. The cards are copied;
// the caller's slice is not retained. An empty set returns rote.ErrNoCards
// so the caller can present an empty state instead of a review screen.
func New(cards []rote.Card, cfg Config) (*Session, error) {
	if len(cards) == 0 {
		return nil, rote.ErrNoCards
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("session: store is required")
	}

	sched := cfg.Scheduler
	if sched == nil {
		var err error
		sched, err = rote.NewScheduler(rote.SchedulerConfig{})
		if err != nil {
			return nil, err
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	mode := cfg.Mode
	if mode == 0 {
		mode = ModeDue
	}

	working := make([]rote.Card, len(cards))
	copy(working, cards)

	return &Session{
		sched:     sched,
		store:     cfg.Store,
		recorder:  cfg.Recorder,
		clock:     clock,
		rng:       rng,
		mode:      mode,
		cards:     working,
		phase:     PhaseQuestion,
		startedAt: clock.Now(),
	}, nil
}

// Reveal shows the current card's answer and starts the study-time clock for
// this card. Revealing an already-revealed card is a no-op, so the reveal
// time is never restarted by a duplicate event.
func (s *Session) Reveal() {
	if s.ended || s.phase != PhaseQuestion {
		return
	}
	s.phase = PhaseAnswer
	s.revealedAt = s.clock.Now()
}

// Respond applies the learner's response to the current card: schedules its
// next review, writes the new stats through to the store, reports study time
// to the recorder, and moves the session forward. Hard re-presents the same
// card; medium and easy advance.
//
// Respond is only valid after Reveal. Calls in any other phase, calls with
// an invalid response, and reentrant calls while a response is still being
// applied all return OutcomeIgnored without side effects.
//
// A store failure does not block navigation: the session transitions as if
// the write succeeded and exposes the failure via WriteFailures and
// LastWriteErr.
func (s *Session) Respond(ctx context.Context, r rote.Response) Outcome {
	if s.ended || s.phase != PhaseAnswer || s.inFlight || !r.IsValid() {
		return OutcomeIgnored
	}
	s.inFlight = true
	defer func() { s.inFlight = false }()

	now := s.clock.Now()
	card := &s.cards[s.cursor]
	card.Stats = s.sched.NextReview(card.Stats, r, now)

	if err := s.store.UpdateCardStats(ctx, card.ID, card.Stats); err != nil {
		s.writeFailures++
		s.lastWriteErr = err
	}
	s.reviewed++

	if s.recorder != nil {
		s.recorder.RecordReview(ctx, Review{
			CardID:          card.ID,
			Response:        r,
			ReviewedAt:      now,
			DurationSeconds: int(now.Sub(s.revealedAt) / time.Second),
		})
	}

	if r == rote.Hard {
		s.phase = PhaseQuestion
		return OutcomeRetry
	}

	s.cursor++
	if s.cursor < len(s.cards) {
		s.phase = PhaseQuestion
		return OutcomeNext
	}
	s.phase = PhaseDone
	return OutcomeDone
}

// Continue restarts a finished deck-mode session over the same in-memory
// working set: the cards (with their already-updated stats) are reshuffled
// and presented again from the top. It reports whether the restart happened;
// it never happens in due mode or before the session has finished.
func (s *Session) Continue() bool {
	if s.ended || s.mode != ModeDeck || s.phase != PhaseDone {
		return false
	}
	rote.Shuffle(s.cards, s.rng)
	s.cursor = 0
	s.phase = PhaseQuestion
	return true
}

// End terminates the session and releases the working set. Valid from any
// state; every transition afterwards is a no-op. Reviewed counts and failure
// flags remain readable.
func (s *Session) End() {
	s.ended = true
	s.phase = PhaseDone
	s.cards = nil
	s.cursor = 0
}

// Reviewed returns how many responses this session has processed, including
// hard re-presentations.
func (s *Session) Reviewed() int { return s.reviewed }

// WriteFailures returns how many store writes have failed this session.
func (s *Session) WriteFailures() int { return s.writeFailures }

// LastWriteErr returns the most recent store write failure, or nil.
func (s *Session) LastWriteErr() error { return s.lastWriteErr }

// Snapshot is everything a renderer needs to draw the current state.
type Snapshot struct {
	Phase      Phase
	Front      string
	Back       string
	ShowAnswer bool

	Position int // 1-based; 0 once the session is done.
	Total    int

	Streak      int     // consecutive non-hard reviews of the current card.
	EasePercent float64 // display ease, 0 = default.
	Mastery     rote.Mastery
	Lapses      int

	Reviewed      int
	WriteFailures int
	Elapsed       time.Duration // since the session started.
}

// View returns a snapshot of the session for rendering. It is valid in every
// state, including after End.
func (s *Session) View() Snapshot {
	snap := Snapshot{
		Phase:         s.phase,
		Total:         len(s.cards),
		Reviewed:      s.reviewed,
		WriteFailures: s.writeFailures,
		Elapsed:       s.clock.Now().Sub(s.startedAt),
	}
	if s.phase == PhaseDone || s.cursor >= len(s.cards) {
		return snap
	}

	card := s.cards[s.cursor]
	ease := card.Stats.EaseFactor
	if ease == 0 { // never reviewed
		ease = rote.DefaultEase
	}
	snap.Front = card.Front
	snap.Back = card.Back
	snap.ShowAnswer = s.phase == PhaseAnswer
	snap.Position = s.cursor + 1
	snap.Streak = card.Stats.Repetitions
	snap.EasePercent = rote.EasePercent(ease)
	snap.Mastery = rote.ClassifyMasteryLapses(card.Stats.Repetitions, ease, card.Stats.Lapses)
	snap.Lapses = card.Stats.Lapses
	return snap
}
