package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hanabook/calendar"
	"hanabook/config"
	"hanabook/services/availability"
	"hanabook/services/timegrid"
	"hanabook/utils"
)

// AvailabilityHandler serves the open-slot listing for one staff member on
// the event day.
type AvailabilityHandler struct {
	Engine   availability.Engine
	Cfg      *config.Config
	Location *time.Location
	Logger   *zap.Logger
}

func NewAvailabilityHandler(engine availability.Engine, cfg *config.Config, loc *time.Location, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{Engine: engine, Cfg: cfg, Location: loc, Logger: logger}
}

// GetAvailability handles GET /api/availability?staff=<id>&date=<YYYY-MM-DD>.
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	staffID := c.Query("staff")
	if staffID == "" {
		utils.JSONError(c, http.StatusBadRequest, "staff parameter is required")
		return
	}

	staff := h.Cfg.StaffByID(staffID)
	if staff == nil {
		utils.JSONError(c, http.StatusNotFound, "Staff not found: "+staffID)
		return
	}

	dateStr := c.DefaultQuery("date", h.Cfg.Event.Date)
	day, err := time.ParseInLocation("2006-01-02", dateStr, h.Location)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}
	if dateStr != h.Cfg.Event.Date {
		utils.JSONError(c, http.StatusBadRequest, "Bookings only available for "+h.Cfg.Event.Date)
		return
	}

	businessStart, err := timegrid.ClockOn(day, h.Cfg.Event.StartTime, h.Location)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Invalid business hours configuration")
		return
	}
	businessEnd, err := timegrid.ClockOn(day, h.Cfg.Event.EndTime, h.Location)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Invalid business hours configuration")
		return
	}

	slots, err := h.Engine.AvailableSlots(c.Request.Context(), availability.Query{
		CalendarID:    staff.CalendarID,
		BusinessStart: businessStart,
		BusinessEnd:   businessEnd,
		SlotDuration:  time.Duration(h.Cfg.Booking.SlotDurationMinutes) * time.Minute,
		RecoveryTimes: h.Cfg.RecoveryTimes(),
	})
	if err != nil {
		var backendErr *calendar.BackendError
		switch {
		case errors.As(err, &backendErr):
			h.Logger.Error("calendar backend error", zap.Error(err))
			utils.JSONError(c, http.StatusServiceUnavailable, "Calendar service error")
		case errors.Is(err, timegrid.ErrInvalidRange):
			utils.JSONError(c, http.StatusBadRequest, "Invalid booking range")
		default:
			h.Logger.Error("availability computation failed", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	formatted := make([]string, 0, len(slots))
	for _, s := range slots {
		formatted = append(formatted, s.Format("15:04"))
	}

	h.Logger.Info("availability requested",
		zap.String("staff", staff.ID),
		zap.String("date", dateStr),
		zap.Int("available", len(formatted)))

	c.JSON(http.StatusOK, gin.H{
		"staff": gin.H{
			"id":      staff.ID,
			"name":    staff.Name,
			"service": staff.Service,
			"menus":   staff.Menus,
		},
		"date":            dateStr,
		"available_slots": formatted,
		"timezone":        h.Cfg.Event.Timezone,
	})
}
