// Package availability computes bookable slots from remote busy intervals
// and authorizes individual bookings against them.
package availability

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"hanabook/calendar"
	"hanabook/models"
	"hanabook/services/timegrid"
)

// Query describes one availability computation over a business range.
// RecoveryTimes are "HH:MM" wall-clock times that are never bookable.
type Query struct {
	CalendarID    string
	BusinessStart time.Time
	BusinessEnd   time.Time
	SlotDuration  time.Duration
	RecoveryTimes []string
}

// Reservation describes one booking attempt for a specific slot.
type Reservation struct {
	CalendarID    string
	Start         time.Time
	Duration      time.Duration
	RecoveryTimes []string
	Event         calendar.EventInput
}

// Engine exposes the two availability operations.
type Engine interface {
	AvailableSlots(ctx context.Context, q Query) ([]time.Time, error)
	AuthorizeAndReserve(ctx context.Context, r Reservation) (string, error)
}

// DefaultEngine is a stateless composition of the time grid and the calendar
// gateway, plus a per-slot mutex table that serializes booking attempts for
// the same slot within this process.
type DefaultEngine struct {
	Gateway calendar.Gateway
	Logger  *zap.Logger

	mu        sync.Mutex
	slotLocks map[string]*sync.Mutex
}

func NewEngine(gw calendar.Gateway, logger *zap.Logger) *DefaultEngine {
	return &DefaultEngine{
		Gateway:   gw,
		Logger:    logger,
		slotLocks: make(map[string]*sync.Mutex),
	}
}

// AvailableSlots returns the chronologically ordered start times that are
// neither recovery slots nor in conflict with a busy interval. An empty
// result is valid. The busy query covers the whole business range in one
// call; a slot must never be judged from a partial query.
func (e *DefaultEngine) AvailableSlots(ctx context.Context, q Query) ([]time.Time, error) {
	slots, err := timegrid.Slots(q.BusinessStart, q.BusinessEnd, q.SlotDuration)
	if err != nil {
		return nil, err
	}

	busy, err := e.Gateway.QueryBusy(ctx, q.CalendarID, q.BusinessStart, q.BusinessEnd)
	if err != nil {
		return nil, err
	}

	recovery := recoverySet(q.RecoveryTimes)
	available := make([]time.Time, 0, len(slots))
	for _, slot := range slots {
		if _, blocked := recovery[wallClock(slot)]; blocked {
			continue
		}
		candidate := models.Interval{Start: slot, End: slot.Add(q.SlotDuration)}
		if overlapsAny(candidate, busy) {
			continue
		}
		available = append(available, slot)
	}

	e.Logger.Debug("computed available slots",
		zap.Int("total", len(slots)),
		zap.Int("busy", len(busy)),
		zap.Int("available", len(available)))
	return available, nil
}

// AuthorizeAndReserve re-validates a specific slot and commits the booking:
// recovery gate, then a narrow busy check, then event creation. The create
// step is never retried here; a duplicate insert would double-book. Attempts
// on the same (calendar, start) are serialized within this process, but the
// check-then-create gap stays open across processes because the backend
// enforces no conflicting-event constraint.
func (e *DefaultEngine) AuthorizeAndReserve(ctx context.Context, r Reservation) (string, error) {
	if r.Duration <= 0 || r.CalendarID == "" {
		return "", ErrInvalidInput
	}
	if _, blocked := recoverySet(r.RecoveryTimes)[wallClock(r.Start)]; blocked {
		e.Logger.Warn("booking rejected: recovery slot", zap.Time("start", r.Start))
		return "", ErrSlotBlocked
	}

	unlock := e.lockSlot(r.CalendarID, r.Start)
	defer unlock()

	requested := models.Interval{Start: r.Start, End: r.Start.Add(r.Duration)}
	busy, err := e.Gateway.QueryBusy(ctx, r.CalendarID, requested.Start, requested.End)
	if err != nil {
		return "", err
	}
	for _, b := range busy {
		if timegrid.Overlaps(requested, b) {
			e.Logger.Warn("booking rejected: slot overlaps busy interval",
				zap.Time("start", r.Start),
				zap.Time("busyStart", b.Start),
				zap.Time("busyEnd", b.End))
			return "", ErrSlotTaken
		}
	}

	ev := r.Event
	ev.Interval = requested
	eventID, err := e.Gateway.CreateEvent(ctx, r.CalendarID, ev)
	if err != nil {
		return "", err
	}
	return eventID, nil
}

func (e *DefaultEngine) lockSlot(calendarID string, start time.Time) func() {
	key := calendarID + "|" + start.UTC().Format(time.RFC3339)
	e.mu.Lock()
	l, ok := e.slotLocks[key]
	if !ok {
		l = &sync.Mutex{}
		e.slotLocks[key] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func wallClock(t time.Time) string {
	return t.Format("15:04")
}

func recoverySet(times []string) map[string]struct{} {
	set := make(map[string]struct{}, len(times))
	for _, t := range times {
		set[t] = struct{}{}
	}
	return set
}

func overlapsAny(iv models.Interval, busy []models.Interval) bool {
	for _, b := range busy {
		if timegrid.Overlaps(iv, b) {
			return true
		}
	}
	return false
}
