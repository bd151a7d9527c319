package rote

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Algorithm constants. Early repetitions use fixed interval steps; mature
// cards grow multiplicatively from the ease factor.
const (
	DefaultMaxInterval = 60              // days
	DefaultHardDelay   = 5 * time.Minute // retry offset after a hard response

	easeDeltaHard   = -0.2
	easeDeltaMedium = -0.15
	easeDeltaEasy   = 0.1

	mediumGrowth   = 0.85 // damping on the ease multiplier for medium
	easyBaseCap    = 2.8  // cap on the ease multiplier for easy
	maturityStep   = 0.05 // per-repetition easy bonus past maturity
	maturityCap    = 1.3
	matureReps     = 3
	matureFloor    = 7 // days; mature cards never drop below this
	jitterFraction = 0.10
)

// mediumSteps and easySteps are the fixed early intervals (days), indexed by
// the repetition count before the review.
var (
	mediumSteps = [3]int{1, 3, 7}
	easySteps   = [3]int{1, 4, 10}
)

// RandomSource supplies uniform floats in [0, 1). It exists so jitter and
// shuffling can be made deterministic in tests.
type RandomSource interface {
	Float64() float64
}

// SchedulerConfig configures a Scheduler.
// Zero values produce sensible defaults; see field comments.
type SchedulerConfig struct {
	MaxInterval   int           `json:"max_interval"`   // zero → 60 days
	HardDelay     time.Duration `json:"hard_delay"`     // zero → 5 minutes
	DisableJitter bool          `json:"disable_jitter"` // zero false → jitter enabled
	Rand          RandomSource  `json:"-"`              // nil → time-seeded math/rand
}

// Scheduler computes updated card stats from a learner's response using a
// modified SM-2 algorithm with fixed early-repetition intervals.
type Scheduler struct {
	maxInterval   int
	hardDelay     time.Duration
	disableJitter bool
	rng           RandomSource
}

// NewScheduler creates a Scheduler from the given config.
// Zero-value fields are filled with defaults; invalid values return an error.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	maxIvl := cfg.MaxInterval
	if maxIvl == 0 {
		maxIvl = DefaultMaxInterval
	}
	if maxIvl < 0 {
		return nil, fmt.Errorf("rote: maximum interval %d must be positive", maxIvl)
	}

	delay := cfg.HardDelay
	if delay == 0 {
		delay = DefaultHardDelay
	}
	if delay < 0 {
		return nil, fmt.Errorf("rote: hard delay %s must be positive", delay)
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Scheduler{
		maxInterval:   maxIvl,
		hardDelay:     delay,
		disableJitter: cfg.DisableJitter,
		rng:           rng,
	}, nil
}

// NextReview computes the updated stats for a card after the given response
// at the given time. The input stats are not mutated. Out-of-domain inputs
// (negative interval, unset or out-of-range ease) are corrected, not
// rejected; the function cannot fail.
//
// Hard resets the card: interval 0, repetitions 0, due again after the hard
// delay, no jitter. Medium and easy walk the fixed early steps and then grow
// the interval from the ease factor, clamped to the maximum interval.
func (s *Scheduler) NextReview(stats CardStats, r Response, now time.Time) CardStats {
	cur := stats.normalize()
	out := cur
	out.LastReviewed = &now

	if r == Hard {
		out.Interval = 0
		out.Repetitions = 0
		out.Lapses = cur.Lapses + 1
		out.EaseFactor = clampEase(cur.EaseFactor + easeDeltaHard)
		due := now.Add(s.hardDelay)
		out.NextReview = &due
		return out
	}

	if r == Easy {
		out.EaseFactor = clampEase(cur.EaseFactor + easeDeltaEasy)
		if cur.Repetitions < matureReps {
			out.Interval = easySteps[cur.Repetitions]
		} else {
			base := math.Min(out.EaseFactor, easyBaseCap)
			bonus := math.Min(1+float64(cur.Repetitions-matureReps)*maturityStep, maturityCap)
			out.Interval = int(math.Round(float64(cur.Interval) * base * bonus))
		}
	} else {
		// Medium (and, leniently, any unknown response).
		out.EaseFactor = clampEase(cur.EaseFactor + easeDeltaMedium)
		if cur.Repetitions < matureReps {
			out.Interval = mediumSteps[cur.Repetitions]
		} else {
			out.Interval = int(math.Round(float64(cur.Interval) * out.EaseFactor * mediumGrowth))
		}
	}
	out.Repetitions = cur.Repetitions + 1

	if out.Interval > s.maxInterval {
		out.Interval = s.maxInterval
	}
	// Mature cards never fall back to short intervals.
	if out.Repetitions > matureReps && out.Interval < matureFloor {
		out.Interval = matureFloor
	}

	d := time.Duration(out.Interval) * 24 * time.Hour
	if !s.disableJitter && out.Interval > 0 {
		d += jitterOffset(out.Interval, s.rng)
	}
	due := now.Add(d)
	out.NextReview = &due
	return out
}

// Preview returns the result of reviewing the stats with each possible response.
func (s *Scheduler) Preview(stats CardStats, now time.Time) map[Response]CardStats {
	result := make(map[Response]CardStats, 3)
	for _, r := range []Response{Hard, Medium, Easy} {
		result[r] = s.NextReview(stats, r, now)
	}
	return result
}

// schedulerJSON is the serialized form of a Scheduler.
type schedulerJSON struct {
	MaxInterval   int   `json:"max_interval"`
	HardDelay     int64 `json:"hard_delay"` // nanoseconds
	DisableJitter bool  `json:"disable_jitter"`
}

// MarshalJSON implements json.Marshaler.
func (s *Scheduler) MarshalJSON() ([]byte, error) {
	return json.Marshal(schedulerJSON{
		MaxInterval:   s.maxInterval,
		HardDelay:     int64(s.hardDelay),
		DisableJitter: s.disableJitter,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
// The random source is not serialized; a fresh time-seeded one is installed.
func (s *Scheduler) UnmarshalJSON(data []byte) error {
	var j schedulerJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	rebuilt, err := NewScheduler(SchedulerConfig{
		MaxInterval:   j.MaxInterval,
		HardDelay:     time.Duration(j.HardDelay),
		DisableJitter: j.DisableJitter,
	})
	if err != nil {
		return err
	}
	*s = *rebuilt
	return nil
}
