package analyzer

import "errors"

var (
	// ErrInsufficientData means the series is too short for an analyzer.
	// Callers skip the analyzer for this cycle; it is not fatal.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidParameter means a window, horizon or threshold is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
)
