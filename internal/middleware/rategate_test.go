package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Cloudyday56/stockmounts/internal/apperror"
)

func newTestGate(t *testing.T, limit int, window time.Duration) (*RateGate, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRateGate(rdb, limit, window, nil), mr
}

func TestRateGate_AdmitsWithinQuota(t *testing.T) {
	gate, _ := newTestGate(t, 30, 6*time.Second)

	for i := 0; i < 30; i++ {
		allowed, err := gate.Allow(context.Background(), "user:alice")
		if err != nil {
			t.Fatalf("Allow failed on request %d: %v", i+1, err)
		}
		if !allowed {
			t.Fatalf("request %d rejected within quota", i+1)
		}
	}
}

func TestRateGate_RejectsOverQuota(t *testing.T) {
	gate, _ := newTestGate(t, 30, 6*time.Second)

	for i := 0; i < 30; i++ {
		if _, err := gate.Allow(context.Background(), "user:bob"); err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
	}

	allowed, err := gate.Allow(context.Background(), "user:bob")
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if allowed {
		t.Error("expected request 31 to be rejected")
	}
}

func TestRateGate_KeysAreIndependent(t *testing.T) {
	gate, _ := newTestGate(t, 5, 6*time.Second)

	for i := 0; i < 6; i++ {
		gate.Allow(context.Background(), "user:hog")
	}
	if allowed, _ := gate.Allow(context.Background(), "user:hog"); allowed {
		t.Error("expected hog to be over quota")
	}

	allowed, err := gate.Allow(context.Background(), "ip:10.0.0.9")
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if !allowed {
		t.Error("expected an untouched key to be admitted")
	}
}

func TestRateGate_StoreFaultPropagates(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	gate := NewRateGate(rdb, 30, 6*time.Second, nil)

	mr.Close()

	if _, err := gate.Allow(context.Background(), "user:alice"); err == nil {
		t.Error("expected an error when the counter store is down")
	}
}

func TestRateGate_MiddlewareResponses(t *testing.T) {
	gate, _ := newTestGate(t, 2, 6*time.Second)

	handler := gate.Middleware(func(c echo.Context) string { return "user:carol" })(
		func(c echo.Context) error { return c.NoContent(http.StatusOK) },
	)

	newCtx := func() echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
		return echo.New().NewContext(req, httptest.NewRecorder())
	}

	for i := 0; i < 2; i++ {
		if err := handler(newCtx()); err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
	}

	err := handler(newCtx())
	if err == nil {
		t.Fatal("expected over-quota request to error")
	}
	if code := apperror.SafeCode(err); code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", code)
	}
}

func TestRateGate_MiddlewareStoreFaultIs500(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	gate := NewRateGate(rdb, 30, 6*time.Second, nil)
	mr.Close()

	handler := gate.Middleware(func(c echo.Context) string { return "user:dave" })(
		func(c echo.Context) error { return c.NoContent(http.StatusOK) },
	)

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	err := handler(echo.New().NewContext(req, httptest.NewRecorder()))
	if err == nil {
		t.Fatal("expected an error when the counter store is down")
	}
	if code := apperror.SafeCode(err); code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", code)
	}
}

// After the window has fully rotated past, the weighted count decays and
// traffic is admitted again.
func TestRateGate_WindowRotation(t *testing.T) {
	window := 6 * time.Second
	gate, mr := newTestGate(t, 5, window)

	for i := 0; i < 6; i++ {
		gate.Allow(context.Background(), "user:erin")
	}
	if allowed, _ := gate.Allow(context.Background(), "user:erin"); allowed {
		t.Fatal("expected over-quota rejection before rotation")
	}

	// miniredis TTLs only advance with FastForward. Jump two full windows
	// so both counters have expired and the previous window carries no
	// weight at all.
	mr.FastForward(2 * window)

	deadline := time.Now().Add(3 * window)
	for {
		allowed, err := gate.Allow(context.Background(), "user:erin")
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if allowed {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("expected admission after the window rotated")
		}
		time.Sleep(100 * time.Millisecond)
	}
}
