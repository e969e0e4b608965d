package models

import "time"

// Interval is a half-open time range [Start, End). It is the single
// representation for both remote busy periods and candidate booking slots.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsValid reports whether the interval satisfies Start < End.
func (iv Interval) IsValid() bool {
	return iv.Start.Before(iv.End)
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}
