package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/foodsave/internal/model"
)

func testRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1.0 / 60.0),
		GeneralBurst:    3,
		UploadRate:      rate.Limit(1.0 / 60.0),
		UploadBurst:     1,
		CleanupInterval: time.Minute,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestAs(stakeholderID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	ctx := ContextWithStakeholder(req.Context(), &model.Stakeholder{ID: stakeholderID})
	return req.WithContext(ctx)
}

func TestRateLimiter_GeneralBurstExhaustion(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestAs("h1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs("h1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}

func TestRateLimiter_PerStakeholderIsolation(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestAs("h1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("h1 request %d: status = %d", i, rec.Code)
		}
	}

	// 別のステークホルダーは影響を受けない
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs("h2"))
	if rec.Code != http.StatusOK {
		t.Errorf("h2 status = %d, want 200", rec.Code)
	}
}

func TestRateLimiter_UploadTierIndependent(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	general := rl.GeneralMiddleware()(okHandler())
	upload := rl.UploadMiddleware()(okHandler())

	// アップロード枠（バースト1）を使い切る
	rec := httptest.NewRecorder()
	upload.ServeHTTP(rec, requestAs("b1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	upload.ServeHTTP(rec, requestAs("b1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second upload status = %d, want 429", rec.Code)
	}

	// API全般の枠は別管理
	rec = httptest.NewRecorder()
	general.ServeHTTP(rec, requestAs("b1"))
	if rec.Code != http.StatusOK {
		t.Errorf("general status = %d, want 200", rec.Code)
	}
}

func TestRateLimiter_UnauthenticatedRejected(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRateLimiter_LimiterCounts(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), requestAs("h1"))
	handler.ServeHTTP(httptest.NewRecorder(), requestAs("h2"))

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount() = %d, want 2", got)
	}
	if got := rl.UploadLimiterCount(); got != 0 {
		t.Errorf("UploadLimiterCount() = %d, want 0", got)
	}
}
