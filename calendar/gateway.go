// Package calendar abstracts the remote calendar backend. The backend is the
// system of record for bookings; nothing is persisted locally.
package calendar

import (
	"context"
	"fmt"
	"time"

	"hanabook/models"
)

// EventInput carries everything needed to create a booking event.
type EventInput struct {
	Interval    models.Interval
	Summary     string
	Description string
	Location    string
}

// Gateway is the calendar capability consumed by the availability engine.
type Gateway interface {
	// QueryBusy returns the busy intervals of a calendar within
	// [rangeStart, rangeEnd).
	QueryBusy(ctx context.Context, calendarID string, rangeStart, rangeEnd time.Time) ([]models.Interval, error)
	// CreateEvent inserts a private event and returns its identifier.
	CreateEvent(ctx context.Context, calendarID string, ev EventInput) (string, error)
}

// BackendError wraps a transport, auth or quota failure of the remote
// backend. Callers must never interpret it as "slot free" or "slot taken".
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("calendar backend: %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
