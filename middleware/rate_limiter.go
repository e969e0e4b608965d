package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
)

// Decision is the outcome of an admission check. Reason is set only when the
// request is denied and names the exhausted window.
type Decision struct {
	Allowed bool
	Reason  string
}

// Limiter guards request admission per client key. The in-memory
// implementation never errors; the Redis one can.
type Limiter interface {
	Admit(ctx context.Context, key string) (Decision, error)
	Reset(ctx context.Context, key string) error
	ResetAll(ctx context.Context) error
}

// SlidingWindowLimiter counts hits per client key over a trailing one-minute
// and one-hour window. Expired hits are purged before every count. The whole
// table lives for the process lifetime; idle keys are dropped by EvictIdle.
type SlidingWindowLimiter struct {
	maxPerMinute int
	maxPerHour   int

	mu   sync.Mutex
	hits map[string]*clientHits

	now func() time.Time // swapped out in tests
}

type clientHits struct {
	minute []time.Time
	hour   []time.Time
}

func NewSlidingWindowLimiter(maxPerMinute, maxPerHour int) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		maxPerMinute: maxPerMinute,
		maxPerHour:   maxPerHour,
		hits:         make(map[string]*clientHits),
		now:          time.Now,
	}
}

// Admit purges, checks both windows and records the hit under a single lock,
// so two concurrent requests for the same key cannot both pass the count
// check before either records.
func (l *SlidingWindowLimiter) Admit(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	h := l.hits[key]
	if h == nil {
		h = &clientHits{}
		l.hits[key] = h
	}
	h.minute = purge(h.minute, now.Add(-minuteWindow))
	h.hour = purge(h.hour, now.Add(-hourWindow))

	if len(h.minute) >= l.maxPerMinute {
		return Decision{Reason: fmt.Sprintf("Rate limit exceeded: %d requests per minute", l.maxPerMinute)}, nil
	}
	if len(h.hour) >= l.maxPerHour {
		return Decision{Reason: fmt.Sprintf("Rate limit exceeded: %d requests per hour", l.maxPerHour)}, nil
	}

	h.minute = append(h.minute, now)
	h.hour = append(h.hour, now)
	return Decision{Allowed: true}, nil
}

// Reset clears the counters of a single client key.
func (l *SlidingWindowLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
	return nil
}

// ResetAll clears the whole table.
func (l *SlidingWindowLimiter) ResetAll(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits = make(map[string]*clientHits)
	return nil
}

// EvictIdle drops keys whose hits have all expired and returns how many were
// removed. Without the sweep the table grows with every distinct client.
func (l *SlidingWindowLimiter) EvictIdle() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	evicted := 0
	for key, h := range l.hits {
		h.minute = purge(h.minute, now.Add(-minuteWindow))
		h.hour = purge(h.hour, now.Add(-hourWindow))
		if len(h.minute) == 0 && len(h.hour) == 0 {
			delete(l.hits, key)
			evicted++
		}
	}
	return evicted
}

func purge(hits []time.Time, threshold time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(threshold) {
			kept = append(kept, t)
		}
	}
	return kept
}

// RateLimit rejects requests over the per-client caps with 429. On a limiter
// backend error it fails open or closed depending on configuration.
func RateLimit(limiter Limiter, failOpen bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := zap.L()
		ip := ClientIP(c)

		d, err := limiter.Admit(c.Request.Context(), ip)
		if err != nil {
			logger.Warn("rate limiter backend error", zap.Error(err))
			if failOpen {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "rate limiter unavailable"})
			return
		}
		if !d.Allowed {
			logger.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("reason", d.Reason))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": d.Reason})
			return
		}
		c.Next()
	}
}
