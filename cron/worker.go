package cron

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"hanabook/middleware"
)

// StartLimiterJanitor schedules periodic eviction of idle rate-limiter keys.
// Counter purging happens inline on every admission check; the sweep only
// keeps the key table from growing with every distinct client address.
func StartLimiterJanitor(limiter *middleware.SlidingWindowLimiter, schedule string, logger *zap.Logger) (*cron.Cron, error) {
	if schedule == "" {
		schedule = "@every 10m"
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if evicted := limiter.EvictIdle(); evicted > 0 {
			logger.Debug("evicted idle rate limiter keys", zap.Int("count", evicted))
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
