package rote

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func mustScheduler(t *testing.T, cfg SchedulerConfig) *Scheduler {
	t.Helper()
	s, err := NewScheduler(cfg)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

func noJitterCfg() SchedulerConfig {
	return SchedulerConfig{DisableJitter: true}
}

// fixedRand always returns the same value.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

// panicRand fails the test if the scheduler consults randomness at all.
type panicRand struct{ t *testing.T }

func (p panicRand) Float64() float64 {
	p.t.Fatal("random source consulted; expected none")
	return 0
}

func stats(interval, reps int, ease float64) CardStats {
	return CardStats{Interval: interval, Repetitions: reps, EaseFactor: ease}
}

// --- NewScheduler ---

func TestNewSchedulerDefault(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{})
	if s.maxInterval != DefaultMaxInterval {
		t.Errorf("maxInterval = %d, want %d", s.maxInterval, DefaultMaxInterval)
	}
	if s.hardDelay != DefaultHardDelay {
		t.Errorf("hardDelay = %s, want %s", s.hardDelay, DefaultHardDelay)
	}
}

func TestNewSchedulerInvalidMaxInterval(t *testing.T) {
	if _, err := NewScheduler(SchedulerConfig{MaxInterval: -1}); err == nil {
		t.Error("NewScheduler should reject negative max interval")
	}
}

func TestNewSchedulerInvalidHardDelay(t *testing.T) {
	if _, err := NewScheduler(SchedulerConfig{HardDelay: -time.Minute}); err == nil {
		t.Error("NewScheduler should reject negative hard delay")
	}
}

// --- Hard ---

func TestHardResetsCard(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{Rand: panicRand{t}})
	// Scenario: mature card, ease 2.5.
	out := s.NextReview(stats(7, 4, 2.5), Hard, t0)

	if out.Interval != 0 {
		t.Errorf("Interval = %d, want 0", out.Interval)
	}
	if out.Repetitions != 0 {
		t.Errorf("Repetitions = %d, want 0", out.Repetitions)
	}
	assertFloat(t, "EaseFactor", out.EaseFactor, 2.3)
	if out.Lapses != 1 {
		t.Errorf("Lapses = %d, want 1", out.Lapses)
	}
	// Hard delay is exact: no jitter on minute-scale offsets.
	want := t0.Add(5 * time.Minute)
	if out.NextReview == nil || !out.NextReview.Equal(want) {
		t.Errorf("NextReview = %v, want %v", out.NextReview, want)
	}
	if out.LastReviewed == nil || !out.LastReviewed.Equal(t0) {
		t.Errorf("LastReviewed = %v, want %v", out.LastReviewed, t0)
	}
}

func TestHardEaseFloor(t *testing.T) {
	s := mustScheduler(t, noJitterCfg())
	out := s.NextReview(stats(3, 2, MinEase), Hard, t0)
	assertFloat(t, "EaseFactor", out.EaseFactor, MinEase)
}

func TestHardAccumulatesLapses(t *testing.T) {
	s := mustScheduler(t, noJitterCfg())
	in := stats(7, 4, 2.5)
	in.Lapses = 2
	out := s.NextReview(in, Hard, t0)
	if out.Lapses != 3 {
		t.Errorf("Lapses = %d, want 3", out.Lapses)
	}
}

// --- Easy: early steps ---

func TestEasyFirstReview(t *testing.T) {
	// Scenario A.
	s := mustScheduler(t, noJitterCfg())
	out := s.NextReview(stats(0, 0, 2.5), Easy, t0)

	if out.Interval != 1 {
		t.Errorf("Interval = %d, want 1", out.Interval)
	}
	if out.Repetitions != 1 {
		t.Errorf("Repetitions = %d, want 1", out.Repetitions)
	}
	assertFloat(t, "EaseFactor", out.EaseFactor, 2.6)
	want := t0.Add(24 * time.Hour)
	if out.NextReview == nil || !out.NextReview.Equal(want) {
		t.Errorf("NextReview = %v, want %v", out.NextReview, want)
	}
}

func TestEasySecondReview(t *testing.T) {
	// Scenario B.
	s := mustScheduler(t, noJitterCfg())
	out := s.NextReview(stats(1, 1, 2.6), Easy, t0)
	if out.Interval != 4 || out.Repetitions != 2 {
		t.Errorf("got interval=%d reps=%d, want 4, 2", out.Interval, out.Repetitions)
	}
	assertFloat(t, "EaseFactor", out.EaseFactor, 2.7)
}

func TestEasyThirdReview(t *testing.T) {
	s := mustScheduler(t, noJitterCfg())
	out := s.NextReview(stats(4, 2, 2.7), Easy, t0)
	if out.Interval != 10 || out.Repetitions != 3 {
		t.Errorf("got interval=%d reps=%d, want 10, 3", out.Interval, out.Repetitions)
	}
	assertFloat(t, "EaseFactor", out.EaseFactor, 2.8)
}

// --- Easy: mature formula ---

func TestEasyMatureBaseCapped(t *testing.T) {
	// Scenario C: ease rises to 2.9 but the growth base is capped at 2.8,
	// and the maturity bonus is 1.0 at exactly three repetitions.
	s := mustScheduler(t, noJitterCfg())
	out := s.NextReview(stats(10, 3, 2.8), Easy, t0)
	if out.Interval != 28 {
		t.Errorf("Interval = %d, want 28", out.Interval)
	}
	if out.Repetitions != 4 {
		t.Errorf("Repetitions = %d, want 4", out.Repetitions)
	}
	assertFloat(t, "EaseFactor", out.EaseFactor, 2.9)
}

func TestEasyMaturityBonus(t *testing.T) {
	// reps=5 → bonus 1 + 2*0.05 = 1.1; ease 2.5→2.6.
	// interval = round(10 * 2.6 * 1.1) = 29.
	s := mustScheduler(t, noJitterCfg())
	out := s.NextReview(stats(10, 5, 2.5), Easy, t0)
	if out.Interval != 29 {
		t.Errorf("Interval = %d, want 29", out.Interval)
	}
}

func TestEasyMaturityBonusCapped(t *testing.T) {
	// reps=20 → raw bonus 1.85 capped at 1.3; ease 1.3 stays at floor... but
	// easy raises it: 1.3+0.1=1.4. interval = round(10*1.4*1.3) = 18.
	s := mustScheduler(t, noJitterCfg())
	out := s.NextReview(stats(10, 20, 1.3), Easy, t0)
	if out.Interval != 18 {
		t.Errorf("Interval = %d, want 18", out.Interval)
	}
}

func TestEasyEaseCeiling(t *testing.T) {
	s := mustScheduler(t, noJitterCfg())
	out := s.NextReview(stats(10, 3, MaxEase), Easy, t0)
	assertFloat(t, "EaseFactor", out.EaseFactor, MaxEase)
}

// --- Medium ---

func TestMediumEarlySteps(t *testing.T) {
	s := mustScheduler(t, noJitterCfg())
	tests := []struct {
		reps         int
		wantInterval int
	}{
		{0, 1},
		{1, 3},
		{2, 7},
	}
	for _, tt := range tests {
		out := s.NextReview(stats(0, tt.reps, 2.5), Medium, t0)
		if out.Interval != tt.wantInterval {
			t.Errorf("reps=%d: Interval = %d, want %d", tt.reps, out.Interval, tt.wantInterval)
		}
		if out.Repetitions != tt.reps+1 {
			t.Errorf("reps=%d: Repetitions = %d, want %d", tt.reps, out.Repetitions, tt.reps+1)
		}
		assertFloat(t, "EaseFactor", out.EaseFactor, 2.35)
	}
}

func TestMediumMature(t *testing.T) {
	// ease 2.5→2.35; interval = round(10 * 2.35 * 0.85) = 20.
	s := mustScheduler(t, noJitterCfg())
	out := s.NextReview(stats(10, 3, 2.5), Medium, t0)
	if out.Interval != 20 {
		t.Errorf("Interval = %d, want 20", out.Interval)
	}
	if out.Repetitions != 4 {
		t.Errorf("Repetitions = %d, want 4", out.Repetitions)
	}
}

func TestMediumEaseFloor(t *testing.T) {
	s := mustScheduler(t, noJitterCfg())
	out := s.NextReview(stats(3, 1, MinEase), Medium, t0)
	assertFloat(t, "EaseFactor", out.EaseFactor, MinEase)
}

// --- Post-processing ---

func TestIntervalCeiling(t *testing.T) {
	s := mustScheduler(t, noJitterCfg())
	out := s.NextReview(stats(60, 10, MaxEase), Easy, t0)
	if out.Interval != DefaultMaxInterval {
		t.Errorf("Interval = %d, want %d", out.Interval, DefaultMaxInterval)
	}
}

func TestCustomMaxInterval(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{MaxInterval: 30, DisableJitter: true})
	out := s.NextReview(stats(28, 5, 2.8), Easy, t0)
	if out.Interval != 30 {
		t.Errorf("Interval = %d, want 30", out.Interval)
	}
}

func TestMaturityFloor(t *testing.T) {
	// A mature card (resulting reps > 3) never drops below seven days:
	// round(1 * 2.35 * 0.85) = 2 would be forced up to 7.
	s := mustScheduler(t, noJitterCfg())
	out := s.NextReview(stats(1, 3, 2.5), Medium, t0)
	if out.Interval != 7 {
		t.Errorf("Interval = %d, want 7", out.Interval)
	}
}

// --- Input normalization ---

func TestDefaultsAppliedToZeroStats(t *testing.T) {
	s := mustScheduler(t, noJitterCfg())
	out := s.NextReview(CardStats{}, Medium, t0)
	if out.Interval != 1 || out.Repetitions != 1 {
		t.Errorf("got interval=%d reps=%d, want 1, 1", out.Interval, out.Repetitions)
	}
	// Unset ease defaults to 2.5 before the medium delta.
	assertFloat(t, "EaseFactor", out.EaseFactor, 2.35)
}

func TestNegativeInputsCorrected(t *testing.T) {
	s := mustScheduler(t, noJitterCfg())
	out := s.NextReview(CardStats{Interval: -5, Repetitions: -2, EaseFactor: 9}, Easy, t0)
	if out.Interval != 1 {
		t.Errorf("Interval = %d, want 1", out.Interval)
	}
	if out.Repetitions != 1 {
		t.Errorf("Repetitions = %d, want 1", out.Repetitions)
	}
	// Ease 9 clamps to MaxEase before the easy bonus, which clamps again.
	assertFloat(t, "EaseFactor", out.EaseFactor, MaxEase)
}

func TestInputNotMutated(t *testing.T) {
	s := mustScheduler(t, noJitterCfg())
	last := t0.Add(-48 * time.Hour)
	next := t0.Add(-time.Hour)
	in := stats(3, 1, 2.5)
	in.LastReviewed = &last
	in.NextReview = &next

	_ = s.NextReview(in, Easy, t0)

	if in.Interval != 3 || in.Repetitions != 1 || in.EaseFactor != 2.5 {
		t.Error("input stats were mutated")
	}
	if !in.LastReviewed.Equal(last) || !in.NextReview.Equal(next) {
		t.Error("input timestamps were mutated")
	}
}

// --- Jitter ---

func TestJitterShiftsDueDate(t *testing.T) {
	// fixedRand(0) → offset of -10% of the interval in minutes.
	s := mustScheduler(t, SchedulerConfig{Rand: fixedRand(0)})
	out := s.NextReview(stats(10, 3, 2.5), Medium, t0)
	// interval = round(10*2.35*0.85) = 20 → window 2880 min = 48h.
	want := t0.Add(20*24*time.Hour - 48*time.Hour)
	if out.NextReview == nil || !out.NextReview.Equal(want) {
		t.Errorf("NextReview = %v, want %v", out.NextReview, want)
	}
}

func TestJitterMidpointExact(t *testing.T) {
	// fixedRand(0.5) → zero offset.
	s := mustScheduler(t, SchedulerConfig{Rand: fixedRand(0.5)})
	out := s.NextReview(stats(0, 0, 2.5), Easy, t0)
	want := t0.Add(24 * time.Hour)
	if out.NextReview == nil || !out.NextReview.Equal(want) {
		t.Errorf("NextReview = %v, want %v", out.NextReview, want)
	}
}

func TestJitterWithinBounds(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{Rand: rand.New(rand.NewSource(42))})
	for i := 0; i < 200; i++ {
		out := s.NextReview(stats(10, 3, 2.5), Medium, t0)
		base := time.Duration(out.Interval) * 24 * time.Hour
		window := time.Duration(float64(base) * jitterFraction)
		got := out.NextReview.Sub(t0)
		if got < base-window || got > base+window {
			t.Fatalf("due offset %s outside [%s, %s]", got, base-window, base+window)
		}
	}
}

// --- Properties over response sequences ---

func TestEaseAlwaysInBounds(t *testing.T) {
	s := mustScheduler(t, noJitterCfg())
	rng := rand.New(rand.NewSource(7))
	responses := []Response{Hard, Medium, Easy}

	cur := CardStats{}
	for i := 0; i < 500; i++ {
		cur = s.NextReview(cur, responses[rng.Intn(3)], t0)
		if cur.EaseFactor < MinEase || cur.EaseFactor > MaxEase {
			t.Fatalf("step %d: EaseFactor %f out of [%f, %f]", i, cur.EaseFactor, MinEase, MaxEase)
		}
		if cur.Interval < 0 || cur.Interval > DefaultMaxInterval {
			t.Fatalf("step %d: Interval %d out of [0, %d]", i, cur.Interval, DefaultMaxInterval)
		}
	}
}

func TestRepetitionsMonotonic(t *testing.T) {
	s := mustScheduler(t, noJitterCfg())
	rng := rand.New(rand.NewSource(11))

	cur := CardStats{}
	for i := 0; i < 500; i++ {
		r := []Response{Hard, Medium, Easy}[rng.Intn(3)]
		next := s.NextReview(cur, r, t0)
		if r == Hard {
			if next.Repetitions != 0 {
				t.Fatalf("step %d: hard gave Repetitions %d, want 0", i, next.Repetitions)
			}
		} else if next.Repetitions != cur.Repetitions+1 {
			t.Fatalf("step %d: %s gave Repetitions %d, want %d", i, r, next.Repetitions, cur.Repetitions+1)
		}
		cur = next
	}
}

func TestMaturityFloorProperty(t *testing.T) {
	s := mustScheduler(t, noJitterCfg())
	rng := rand.New(rand.NewSource(13))

	cur := CardStats{}
	for i := 0; i < 500; i++ {
		r := []Response{Medium, Easy}[rng.Intn(2)]
		cur = s.NextReview(cur, r, t0)
		if cur.Repetitions > 3 && cur.Interval < 7 {
			t.Fatalf("step %d: mature card with Interval %d < 7", i, cur.Interval)
		}
	}
}

// --- Preview ---

func TestPreview(t *testing.T) {
	s := mustScheduler(t, noJitterCfg())
	p := s.Preview(stats(10, 3, 2.5), t0)
	if len(p) != 3 {
		t.Fatalf("Preview returned %d entries, want 3", len(p))
	}
	if p[Hard].Interval != 0 {
		t.Errorf("Preview[Hard].Interval = %d, want 0", p[Hard].Interval)
	}
	if p[Easy].Interval <= p[Hard].Interval {
		t.Error("Preview[Easy] should schedule further out than Preview[Hard]")
	}
}

// --- JSON ---

func TestSchedulerJSONRoundTrip(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{MaxInterval: 90, HardDelay: 10 * time.Minute, DisableJitter: true})
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var s2 Scheduler
	if err := json.Unmarshal(data, &s2); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s2.maxInterval != 90 || s2.hardDelay != 10*time.Minute || !s2.disableJitter {
		t.Errorf("round trip lost config: %+v", s2)
	}
	if s2.rng == nil {
		t.Error("round trip should install a random source")
	}
}
