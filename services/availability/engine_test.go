package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"hanabook/calendar"
	"hanabook/models"
)

// fakeGateway records created events and reports them as busy on subsequent
// queries, mimicking the backend being the system of record.
type fakeGateway struct {
	mu        sync.Mutex
	busy      []models.Interval
	queryErr  error
	createErr error
	created   []calendar.EventInput
	queries   int
}

func (f *fakeGateway) QueryBusy(_ context.Context, _ string, _, _ time.Time) ([]models.Interval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	out := append([]models.Interval(nil), f.busy...)
	for _, ev := range f.created {
		out = append(out, ev.Interval)
	}
	return out, nil
}

func (f *fakeGateway) CreateEvent(_ context.Context, _ string, ev calendar.EventInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, ev)
	return fmt.Sprintf("evt-%d", len(f.created)), nil
}

func testEngine(gw calendar.Gateway) *DefaultEngine {
	return NewEngine(gw, zap.NewNop())
}

func at(h, m int) time.Time {
	return time.Date(2026, 2, 20, h, m, 0, 0, time.UTC)
}

func businessQuery() Query {
	return Query{
		CalendarID:    "cal-1",
		BusinessStart: at(10, 0),
		BusinessEnd:   at(18, 0),
		SlotDuration:  15 * time.Minute,
		RecoveryTimes: []string{"12:00", "15:00"},
	}
}

func TestAvailableSlots_ConcreteScenario(t *testing.T) {
	// 10:00-18:00, 15-minute slots, recovery at 12:00 and 15:00, one busy
	// interval 13:00-13:30: 32 - 2 - 2 = 28 available.
	gw := &fakeGateway{busy: []models.Interval{{Start: at(13, 0), End: at(13, 30)}}}
	engine := testEngine(gw)

	slots, err := engine.AvailableSlots(context.Background(), businessQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 28 {
		t.Fatalf("expected 28 available slots, got %d", len(slots))
	}
	if gw.queries != 1 {
		t.Fatalf("expected a single busy query over the business range, got %d", gw.queries)
	}

	excluded := map[string]bool{"12:00": true, "15:00": true, "13:00": true, "13:15": true}
	for _, s := range slots {
		if excluded[s.Format("15:04")] {
			t.Fatalf("slot %s should have been excluded", s.Format("15:04"))
		}
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i].After(slots[i-1]) {
			t.Fatalf("slots not in chronological order at %d", i)
		}
	}
}

func TestAvailableSlots_RecoveryExcludedWithoutBusy(t *testing.T) {
	gw := &fakeGateway{}
	engine := testEngine(gw)

	slots, err := engine.AvailableSlots(context.Background(), businessQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 30 {
		t.Fatalf("expected 30 slots with only recovery exclusions, got %d", len(slots))
	}
	for _, s := range slots {
		clock := s.Format("15:04")
		if clock == "12:00" || clock == "15:00" {
			t.Fatalf("recovery slot %s present in output", clock)
		}
	}
}

func TestAvailableSlots_BusyEdgeCases(t *testing.T) {
	cases := []struct {
		name string
		busy models.Interval
		// slot under inspection
		slot     string
		expected bool
	}{
		{"slot fully inside busy", models.Interval{Start: at(13, 0), End: at(14, 0)}, "13:15", false},
		{"busy overlaps slot start", models.Interval{Start: at(13, 10), End: at(13, 20)}, "13:15", false},
		{"busy overlaps slot end", models.Interval{Start: at(13, 25), End: at(13, 40)}, "13:15", false},
		{"busy touching slot end", models.Interval{Start: at(13, 30), End: at(14, 0)}, "13:15", true},
		{"busy touching slot start", models.Interval{Start: at(13, 0), End: at(13, 15)}, "13:15", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeGateway{busy: []models.Interval{tc.busy}}
			engine := testEngine(gw)

			slots, err := engine.AvailableSlots(context.Background(), businessQuery())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			found := false
			for _, s := range slots {
				if s.Format("15:04") == tc.slot {
					found = true
				}
			}
			if found != tc.expected {
				t.Fatalf("slot %s present=%v, want %v", tc.slot, found, tc.expected)
			}
		})
	}
}

func TestAvailableSlots_Idempotent(t *testing.T) {
	gw := &fakeGateway{busy: []models.Interval{{Start: at(13, 0), End: at(13, 30)}}}
	engine := testEngine(gw)
	q := businessQuery()

	first, err := engine.AvailableSlots(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.AvailableSlots(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Fatalf("slot %d differs: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestAvailableSlots_BackendError(t *testing.T) {
	backendErr := &calendar.BackendError{Op: "freebusy", Err: errors.New("boom")}
	gw := &fakeGateway{queryErr: backendErr}
	engine := testEngine(gw)

	_, err := engine.AvailableSlots(context.Background(), businessQuery())
	var be *calendar.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %v", err)
	}
}

func reservation(start time.Time) Reservation {
	return Reservation{
		CalendarID:    "cal-1",
		Start:         start,
		Duration:      30 * time.Minute,
		RecoveryTimes: []string{"12:00", "15:00"},
		Event:         calendar.EventInput{Summary: "[Booking] test"},
	}
}

func TestAuthorizeAndReserve_Success(t *testing.T) {
	gw := &fakeGateway{}
	engine := testEngine(gw)

	id, err := engine.AuthorizeAndReserve(context.Background(), reservation(at(11, 0)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected an event id")
	}
	if len(gw.created) != 1 {
		t.Fatalf("expected 1 created event, got %d", len(gw.created))
	}
	got := gw.created[0].Interval
	if !got.Start.Equal(at(11, 0)) || !got.End.Equal(at(11, 30)) {
		t.Fatalf("created interval %v-%v, want 11:00-11:30", got.Start, got.End)
	}
}

func TestAuthorizeAndReserve_RecoveryBlocked(t *testing.T) {
	gw := &fakeGateway{}
	engine := testEngine(gw)

	_, err := engine.AuthorizeAndReserve(context.Background(), reservation(at(12, 0)))
	if !errors.Is(err, ErrSlotBlocked) {
		t.Fatalf("expected ErrSlotBlocked, got %v", err)
	}
	if gw.queries != 0 {
		t.Fatalf("recovery rejection must not query the backend, got %d queries", gw.queries)
	}
	if len(gw.created) != 0 {
		t.Fatal("recovery rejection must not create an event")
	}
}

func TestAuthorizeAndReserve_SlotTaken(t *testing.T) {
	gw := &fakeGateway{busy: []models.Interval{{Start: at(11, 15), End: at(11, 45)}}}
	engine := testEngine(gw)

	_, err := engine.AuthorizeAndReserve(context.Background(), reservation(at(11, 0)))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if len(gw.created) != 0 {
		t.Fatal("conflicting reservation must not create an event")
	}
}

func TestAuthorizeAndReserve_AdjacentBusyAllowed(t *testing.T) {
	gw := &fakeGateway{busy: []models.Interval{{Start: at(11, 30), End: at(12, 0)}}}
	engine := testEngine(gw)

	if _, err := engine.AuthorizeAndReserve(context.Background(), reservation(at(11, 0))); err != nil {
		t.Fatalf("touching busy interval must not conflict: %v", err)
	}
}

func TestAuthorizeAndReserve_CreateFailureSurfaces(t *testing.T) {
	backendErr := &calendar.BackendError{Op: "insert", Err: errors.New("boom")}
	gw := &fakeGateway{createErr: backendErr}
	engine := testEngine(gw)

	_, err := engine.AuthorizeAndReserve(context.Background(), reservation(at(11, 0)))
	var be *calendar.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	// The insert is never retried internally; exactly one query, one attempt.
	if gw.queries != 1 {
		t.Fatalf("expected exactly one busy query, got %d", gw.queries)
	}
}

func TestAuthorizeAndReserve_InvalidInput(t *testing.T) {
	engine := testEngine(&fakeGateway{})

	r := reservation(at(11, 0))
	r.Duration = 0
	if _, err := engine.AuthorizeAndReserve(context.Background(), r); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAuthorizeAndReserve_ConcurrentSameSlot(t *testing.T) {
	// Two concurrent attempts for the identical slot: the per-slot mutex
	// serializes them in-process, so exactly one wins and the other sees the
	// winner's event as busy.
	gw := &fakeGateway{}
	engine := testEngine(gw)

	type result struct {
		id  string
		err error
	}
	results := make(chan result, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := engine.AuthorizeAndReserve(context.Background(), reservation(at(11, 0)))
			results <- result{id, err}
		}()
	}
	wg.Wait()
	close(results)

	var won, lost int
	for r := range results {
		switch {
		case r.err == nil && r.id != "":
			won++
		case errors.Is(r.err, ErrSlotTaken):
			lost++
		default:
			t.Fatalf("unexpected outcome: id=%q err=%v", r.id, r.err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected exactly one winner and one ErrSlotTaken, got won=%d lost=%d", won, lost)
	}
	if len(gw.created) != 1 {
		t.Fatalf("expected exactly one created event, got %d", len(gw.created))
	}
}
