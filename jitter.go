package rote

import (
	"math"
	"time"
)

// jitterOffset returns a uniform random offset within ±jitterFraction of the
// interval, quantized to whole minutes. Spreading due times out prevents
// cards reviewed together from clustering on the same future date.
//
// Only day-scale intervals are jittered; the minute-scale hard delay is
// always exact.
func jitterOffset(intervalDays int, rng RandomSource) time.Duration {
	window := float64(intervalDays) * 24 * 60 * jitterFraction // minutes
	minutes := math.Round((rng.Float64()*2 - 1) * window)
	return time.Duration(minutes) * time.Minute
}
