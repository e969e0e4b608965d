// Package timegrid provides the pure slot-grid and interval arithmetic that
// the availability engine is built on. It performs no I/O.
package timegrid

import (
	"errors"
	"time"

	"hanabook/models"
)

// ErrInvalidRange is returned when a slot grid is requested over an empty
// range or with a non-positive duration.
var ErrInvalidRange = errors.New("timegrid: invalid range or duration")

// Slots returns the ordered start times of contiguous, fixed-duration slots
// inside [rangeStart, rangeEnd). The grid starts exactly at rangeStart and a
// trailing slot that would cross rangeEnd is dropped.
func Slots(rangeStart, rangeEnd time.Time, duration time.Duration) ([]time.Time, error) {
	if duration <= 0 || !rangeEnd.After(rangeStart) {
		return nil, ErrInvalidRange
	}
	var slots []time.Time
	for t := rangeStart; !t.Add(duration).After(rangeEnd); t = t.Add(duration) {
		slots = append(slots, t)
	}
	return slots, nil
}

// Overlaps reports whether two half-open intervals intersect. Intervals that
// merely touch at an endpoint do not overlap. Every availability and conflict
// decision routes through this predicate so tie-breaks stay consistent.
func Overlaps(a, b models.Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// ClockOn combines a day with a wall-clock time of day ("15:04") in the given
// location.
func ClockOn(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
