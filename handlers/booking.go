package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hanabook/calendar"
	"hanabook/config"
	"hanabook/models"
	"hanabook/services/availability"
	"hanabook/utils"
)

// BookingHandler commits bookings through the availability engine.
type BookingHandler struct {
	Engine   availability.Engine
	Cfg      *config.Config
	Location *time.Location
	Logger   *zap.Logger
}

func NewBookingHandler(engine availability.Engine, cfg *config.Config, loc *time.Location, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Engine: engine, Cfg: cfg, Location: loc, Logger: logger}
}

// CreateBooking handles POST /api/book.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request: "+err.Error())
		return
	}

	staff := h.Cfg.StaffByID(req.Staff)
	if staff == nil {
		utils.JSONError(c, http.StatusNotFound, "Staff not found: "+req.Staff)
		return
	}
	menu := staff.MenuByName(req.Menu)
	if menu == nil {
		utils.JSONError(c, http.StatusNotFound, "Menu not found: "+req.Menu)
		return
	}

	// Start is naive ISO-8601, interpreted in the event's timezone.
	start, err := time.ParseInLocation("2006-01-02T15:04:05", req.Start, h.Location)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid start time format")
		return
	}
	if start.Format("2006-01-02") != h.Cfg.Event.Date {
		utils.JSONError(c, http.StatusBadRequest, "Bookings only available for "+h.Cfg.Event.Date)
		return
	}

	duration := time.Duration(menu.DurationMinutes) * time.Minute
	eventID, err := h.Engine.AuthorizeAndReserve(c.Request.Context(), availability.Reservation{
		CalendarID:    staff.CalendarID,
		Start:         start,
		Duration:      duration,
		RecoveryTimes: h.Cfg.RecoveryTimes(),
		Event: calendar.EventInput{
			Summary:     fmt.Sprintf("[Booking] %s / %s / %s", staff.Name, menu.Name, req.Name),
			Description: buildEventDescription(req),
			Location:    h.Cfg.Event.Location,
		},
	})
	if err != nil {
		var backendErr *calendar.BackendError
		switch {
		case errors.Is(err, availability.ErrSlotBlocked), errors.Is(err, availability.ErrSlotTaken):
			h.Logger.Warn("booking conflict",
				zap.String("staff", staff.ID),
				zap.String("start", req.Start))
			utils.JSONError(c, http.StatusConflict, "This time slot is already booked. Please choose another time.")
		case errors.Is(err, availability.ErrInvalidInput):
			utils.JSONError(c, http.StatusBadRequest, "Invalid booking request")
		case errors.As(err, &backendErr):
			h.Logger.Error("calendar backend error", zap.Error(err))
			utils.JSONError(c, http.StatusServiceUnavailable, "Booking could not be processed")
		default:
			h.Logger.Error("booking failed", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "Booking could not be processed")
		}
		return
	}

	maskedEmail := ""
	if req.Email != "" {
		maskedEmail = utils.MaskEmail(req.Email)
	}
	h.Logger.Info("booking confirmed",
		zap.String("staff", staff.ID),
		zap.String("start", req.Start),
		zap.String("menu", menu.Name),
		zap.String("customer", utils.MaskName(req.Name)),
		zap.String("phone", utils.MaskPhone(req.Phone)),
		zap.String("email", maskedEmail),
		zap.String("event", eventID))

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"event_id": eventID,
		"message":  "Booking confirmed",
		"booking": models.BookingSummary{
			Staff:           staff.Name,
			Service:         staff.Service,
			Menu:            menu.Name,
			Date:            start.Format("2006-01-02"),
			Time:            start.Format("15:04"),
			DurationMinutes: menu.DurationMinutes,
			Location:        h.Cfg.Event.Location,
			CustomerName:    req.Name,
		},
	})
}

// buildEventDescription renders the calendar event body. The full customer
// identity goes to the calendar (the system of record), never to the logs.
func buildEventDescription(req models.BookingRequest) string {
	lines := []string{
		"Customer: " + req.Name,
		"Phone: " + req.Phone,
	}
	if req.Email != "" {
		lines = append(lines, "Email: "+req.Email)
	}
	if req.Note != "" {
		lines = append(lines, "Note: "+req.Note)
	}
	lines = append(lines,
		"",
		"Notes:",
		"- Extensions and extra menus depend on same-day availability",
		"- Late arrival may shorten the treatment time",
		"- Please contact us as early as possible for cancellations",
	)
	return strings.Join(lines, "\n")
}
