package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"hanabook/config"
	"hanabook/handlers"
	"hanabook/middleware"
)

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "booking-api"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	limiter middleware.Limiter,
	availabilityHandler *handlers.AvailabilityHandler,
	bookingHandler *handlers.BookingHandler,
	adminHandler *handlers.AdminHandler,
) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)

	// Admin endpoints stay outside the rate-limited group so the limiter can
	// be reset even while a client is throttled.
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuth(cfg.Admin.APIKey))
	admin.POST("/rate-limit/reset", adminHandler.ResetRateLimit)

	api := r.Group("/api")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(limiter, cfg.RateLimit.FailOpen))
	}
	api.GET("/availability", availabilityHandler.GetAvailability)
	api.POST("/book", bookingHandler.CreateBooking)
}
