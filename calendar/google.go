package calendar

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"hanabook/models"
)

const defaultCallTimeout = 10 * time.Second

// GoogleGateway implements Gateway on the Google Calendar v3 API using
// freebusy queries and event inserts.
type GoogleGateway struct {
	svc      *gcal.Service
	timezone string
	timeout  time.Duration
	quota    *rate.Limiter
	logger   *zap.Logger
}

// NewGoogleGateway builds a gateway authenticated by the given token source.
// Every remote call is bounded by timeout and smoothed by an outbound
// throttle so a burst of availability requests cannot exhaust API quota.
func NewGoogleGateway(ctx context.Context, ts oauth2.TokenSource, timezone string, timeout time.Duration, logger *zap.Logger) (*GoogleGateway, error) {
	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, &BackendError{Op: "init", Err: err}
	}
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &GoogleGateway{
		svc:      svc,
		timezone: timezone,
		timeout:  timeout,
		quota:    rate.NewLimiter(rate.Limit(5), 10),
		logger:   logger,
	}, nil
}

func (g *GoogleGateway) QueryBusy(ctx context.Context, calendarID string, rangeStart, rangeEnd time.Time) ([]models.Interval, error) {
	if err := g.quota.Wait(ctx); err != nil {
		return nil, &BackendError{Op: "freebusy", Err: err}
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := &gcal.FreeBusyRequest{
		TimeMin:  rangeStart.Format(time.RFC3339),
		TimeMax:  rangeEnd.Format(time.RFC3339),
		TimeZone: g.timezone,
		Items:    []*gcal.FreeBusyRequestItem{{Id: calendarID}},
	}
	resp, err := g.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, &BackendError{Op: "freebusy", Err: err}
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, nil
	}
	busy := make([]models.Interval, 0, len(cal.Busy))
	for _, p := range cal.Busy {
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return nil, &BackendError{Op: "freebusy decode", Err: err}
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			return nil, &BackendError{Op: "freebusy decode", Err: err}
		}
		busy = append(busy, models.Interval{Start: start, End: end})
	}

	g.logger.Debug("freebusy query",
		zap.String("calendar", shortCalendarID(calendarID)),
		zap.Int("busy", len(busy)))
	return busy, nil
}

func (g *GoogleGateway) CreateEvent(ctx context.Context, calendarID string, in EventInput) (string, error) {
	if err := g.quota.Wait(ctx); err != nil {
		return "", &BackendError{Op: "insert", Err: err}
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ev := &gcal.Event{
		Summary:     in.Summary,
		Location:    in.Location,
		Description: in.Description,
		Start: &gcal.EventDateTime{
			DateTime: in.Interval.Start.Format(time.RFC3339),
			TimeZone: g.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: in.Interval.End.Format(time.RFC3339),
			TimeZone: g.timezone,
		},
		Visibility: "private",
		Reminders: &gcal.EventReminders{
			UseDefault:      false,
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := g.svc.Events.Insert(calendarID, ev).Context(ctx).Do()
	if err != nil {
		return "", &BackendError{Op: "insert", Err: err}
	}

	g.logger.Info("calendar event created",
		zap.String("calendar", shortCalendarID(calendarID)),
		zap.String("event", created.Id))
	return created.Id, nil
}

func shortCalendarID(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}
