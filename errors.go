package rote

import "errors"

// Sentinel errors for the rote package.
// Use errors.Is to check: errors.Is(err, rote.ErrInvalidResponse)
var (
	ErrInvalidResponse = errors.New("rote: invalid response")
	ErrNoCards         = errors.New("rote: no cards to review")
)
