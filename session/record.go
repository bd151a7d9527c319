package session

import (
	"context"
	"time"

	"github.com/rote-dev/rote"
)

// Store is the persistence boundary the session writes card stats through.
// Updates must be idempotent: applying the same stats twice yields the same
// stored state.
type Store interface {
	UpdateCardStats(ctx context.Context, cardID string, stats rote.CardStats) error
}

// Review records a single review event for study-time aggregation.
type Review struct {
	CardID          string        `json:"card_id"`
	Response        rote.Response `json:"response"`
	ReviewedAt      time.Time     `json:"reviewed_at"`
	DurationSeconds int           `json:"duration_seconds"` // reveal → response, whole seconds.
}

// Recorder receives review events, fire-and-forget. Implementations must
// tolerate being invoked while the session that produced the event is being
// torn down; errors are the recorder's own concern and are not reported back.
type Recorder interface {
	RecordReview(ctx context.Context, r Review)
}

// Clock supplies the current time. It exists so tests can control elapsed
// study time and due-date computation.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
