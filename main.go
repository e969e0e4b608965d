package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"hanabook/calendar"
	"hanabook/config"
	cronjobs "hanabook/cron"
	"hanabook/handlers"
	"hanabook/middleware"
	"hanabook/routes"
	"hanabook/services/availability"
	"hanabook/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := &config.AppConfig

	loc, err := time.LoadLocation(cfg.Event.Timezone)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid event timezone %q: %v", cfg.Event.Timezone, err)
	}

	ctx := context.Background()
	tokenSource, err := calendar.TokenSourceFromFiles(ctx, cfg.Google.CredentialsFile, cfg.Google.TokenFile, cfg.Google.Scopes...)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to load Google credentials: %v", err)
	}
	gateway, err := calendar.NewGoogleGateway(ctx, tokenSource, cfg.Event.Timezone,
		time.Duration(cfg.Google.TimeoutSeconds)*time.Second, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize calendar gateway: %v", err)
	}

	engine := availability.NewEngine(gateway, logger)

	// Rate limiter: in-memory by default, Redis when instances share state.
	var limiter middleware.Limiter
	var memLimiter *middleware.SlidingWindowLimiter
	if cfg.RateLimit.Backend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Sugar().Fatalf("main: failed to connect to Redis: %v", err)
		}
		cancel()
		limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimit.MaxRequestsPerMinute, cfg.RateLimit.MaxRequestsPerHour)
	} else {
		memLimiter = middleware.NewSlidingWindowLimiter(cfg.RateLimit.MaxRequestsPerMinute, cfg.RateLimit.MaxRequestsPerHour)
		limiter = memLimiter
	}

	if memLimiter != nil && cfg.RateLimit.Enabled {
		if _, err := cronjobs.StartLimiterJanitor(memLimiter, cfg.RateLimit.IdleEvictionSchedule, logger); err != nil {
			logger.Sugar().Fatalf("main: failed to start limiter janitor: %v", err)
		}
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RequestID())

	availabilityHandler := handlers.NewAvailabilityHandler(engine, cfg, loc, logger)
	bookingHandler := handlers.NewBookingHandler(engine, cfg, loc, logger)
	adminHandler := handlers.NewAdminHandler(limiter, logger)

	routes.RegisterRoutes(router, cfg, limiter, availabilityHandler, bookingHandler, adminHandler)

	// Start the HTTP server.
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
