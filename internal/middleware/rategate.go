package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Cloudyday56/stockmounts/internal/apperror"
	"github.com/Cloudyday56/stockmounts/internal/metrics"
)

// rateKeyPrefix namespaces the per-window counters in Redis.
const rateKeyPrefix = "rategate:"

// KeyFunc selects the rate-limit bucket for a request: the authenticated
// user's id when the session middleware has already attached one, the
// client IP otherwise. Defined as a function parameter so the gate never
// has to import the auth plugin.
type KeyFunc func(c echo.Context) string

// RateGate is sliding-window admission control backed by Redis counters.
// Two adjacent window counters are combined with a weight proportional to
// how far the current window has progressed, so a burst at a window edge
// cannot double the effective quota.
//
// Counters live in Redis rather than process memory so every replica of
// the backend shares one view of each caller's budget.
type RateGate struct {
	rdb       *redis.Client
	limit     int
	window    time.Duration
	collector *metrics.Collector
}

// NewRateGate creates a rate gate admitting limit requests per window per key.
// collector may be nil (tests).
func NewRateGate(rdb *redis.Client, limit int, window time.Duration, collector *metrics.Collector) *RateGate {
	return &RateGate{
		rdb:       rdb,
		limit:     limit,
		window:    window,
		collector: collector,
	}
}

// Middleware returns the admission-control middleware. Over-quota requests
// are rejected with 429 before reaching business logic. A Redis failure is
// propagated as a 500 -- deliberately neither fail-open nor fail-closed, so
// a limiter outage is visible instead of silently unlimiting or blocking
// all traffic.
func (g *RateGate) Middleware(key KeyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, err := g.Allow(c.Request().Context(), key(c))
			if err != nil {
				return apperror.NewInternal(fmt.Errorf("rate gate: %w", err))
			}
			if !allowed {
				if g.collector != nil {
					g.collector.RecordRateRejection()
				}
				return apperror.NewTooManyRequests("Too many requests, please try again later.")
			}
			return next(c)
		}
	}
}

// Allow records one request for the key and reports whether it fits the
// sliding window. The request is counted even when rejected, matching the
// usual sliding-window semantics: hammering a closed gate does not reopen
// it sooner.
func (g *RateGate) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	currStart := now.Truncate(g.window)
	prevStart := currStart.Add(-g.window)

	currKey := fmt.Sprintf("%s%s:%d", rateKeyPrefix, key, currStart.UnixMilli())
	prevKey := fmt.Sprintf("%s%s:%d", rateKeyPrefix, key, prevStart.UnixMilli())

	pipe := g.rdb.Pipeline()
	prevGet := pipe.Get(ctx, prevKey)
	currIncr := pipe.Incr(ctx, currKey)
	pipe.Expire(ctx, currKey, g.window*2)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		// Counter store unreachable: surface the fault to the caller.
		return false, err
	}

	// redis.Nil on the GET just means no traffic in the previous window.
	prevCount, _ := strconv.ParseInt(prevGet.Val(), 10, 64)
	currCount := currIncr.Val()

	// Weight the previous window by its remaining overlap with the
	// sliding window ending now.
	elapsed := float64(now.Sub(currStart)) / float64(g.window)
	weighted := float64(prevCount)*(1-elapsed) + float64(currCount)

	return weighted <= float64(g.limit), nil
}
