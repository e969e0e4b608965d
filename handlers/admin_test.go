package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hanabook/middleware"
)

func adminRouter(limiter middleware.Limiter, apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	grp := r.Group("/api/admin")
	grp.Use(middleware.AdminAuth(apiKey))
	grp.POST("/rate-limit/reset", NewAdminHandler(limiter, zap.NewNop()).ResetRateLimit)
	return r
}

func TestResetRateLimit_RequiresAdminKey(t *testing.T) {
	r := adminRouter(middleware.NewSlidingWindowLimiter(1, 1), "sekrit")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/rate-limit/reset", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}
}

func TestResetRateLimit_DisabledWithoutConfiguredKey(t *testing.T) {
	r := adminRouter(middleware.NewSlidingWindowLimiter(1, 1), "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/rate-limit/reset", nil)
	req.Header.Set("X-Admin-Key", "")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when no key configured, got %d", w.Code)
	}
}

func TestResetRateLimit_SingleKey(t *testing.T) {
	limiter := middleware.NewSlidingWindowLimiter(1, 1)
	ctx := context.Background()
	limiter.Admit(ctx, "1.2.3.4")
	limiter.Admit(ctx, "5.6.7.8")

	r := adminRouter(limiter, "sekrit")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/rate-limit/reset",
		bytes.NewBufferString(`{"client_key":"1.2.3.4"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Key", "sekrit")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if d, _ := limiter.Admit(ctx, "1.2.3.4"); !d.Allowed {
		t.Fatal("reset client should be admitted again")
	}
	if d, _ := limiter.Admit(ctx, "5.6.7.8"); d.Allowed {
		t.Fatal("other client's counters must be untouched")
	}
}

func TestResetRateLimit_All(t *testing.T) {
	limiter := middleware.NewSlidingWindowLimiter(1, 1)
	ctx := context.Background()
	limiter.Admit(ctx, "1.2.3.4")
	limiter.Admit(ctx, "5.6.7.8")

	r := adminRouter(limiter, "sekrit")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/rate-limit/reset", nil)
	req.Header.Set("X-Admin-Key", "sekrit")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	for _, key := range []string{"1.2.3.4", "5.6.7.8"} {
		if d, _ := limiter.Admit(ctx, key); !d.Allowed {
			t.Fatalf("key %s should be admitted after full reset", key)
		}
	}
}
