package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hanabook/middleware"
	"hanabook/utils"
)

// AdminHandler exposes the administrative rate-limiter operations.
type AdminHandler struct {
	Limiter middleware.Limiter
	Logger  *zap.Logger
}

func NewAdminHandler(limiter middleware.Limiter, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Limiter: limiter, Logger: logger}
}

// ResetRateLimit handles POST /api/admin/rate-limit/reset. With a client_key
// it clears one client's counters, without one it clears the whole table.
func (h *AdminHandler) ResetRateLimit(c *gin.Context) {
	var in struct {
		ClientKey string `json:"client_key"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	ctx := c.Request.Context()
	var err error
	if in.ClientKey == "" {
		err = h.Limiter.ResetAll(ctx)
	} else {
		err = h.Limiter.Reset(ctx, in.ClientKey)
	}
	if err != nil {
		h.Logger.Error("rate limiter reset failed", zap.Error(err))
		utils.JSONError(c, http.StatusServiceUnavailable, "Rate limiter unavailable")
		return
	}

	h.Logger.Info("rate limiter reset", zap.String("clientKey", in.ClientKey))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
