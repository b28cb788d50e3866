package domain

import "errors"

// Sentinel errors for the signal computation pipeline. Callers classify with
// errors.Is; computation errors are returned as values, never masked as a
// default HOLD.
var (
	// ErrDataUnavailable means an upstream price or bar fetch failed or
	// timed out. No partial signal is ever produced from it.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrInsufficientData means a series is shorter than an indicator's
	// minimum window.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidParameters covers bad indicator periods, unknown indicator
	// or strategy names, and degenerate level inputs.
	ErrInvalidParameters = errors.New("invalid parameters")
)
