package app

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Cloudyday56/stockmounts/internal/metrics"
	"github.com/Cloudyday56/stockmounts/internal/middleware"
	"github.com/Cloudyday56/stockmounts/internal/plugins/auth"
	"github.com/Cloudyday56/stockmounts/internal/plugins/notes"
	"github.com/Cloudyday56/stockmounts/internal/plugins/predict"
)

// RegisterRoutes builds every plugin's dependency graph and mounts all
// application routes. This is the single place where routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo
	cfg := a.Config

	// --- Auth plugin ---
	userRepo := auth.NewUserRepository(a.DB)
	authService := auth.NewAuthService(userRepo)
	tokens := auth.NewTokenService(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	resolver := auth.NewTokenResolver(cfg.Auth.CookieName)
	provider := auth.NewGitHubProvider(auth.GitHubConfig{
		ClientID:     cfg.GitHub.ClientID,
		ClientSecret: cfg.GitHub.ClientSecret,
		RedirectURL:  cfg.GitHub.CallbackURL,
	})
	authHandler := auth.NewHandler(authService, tokens, provider, cfg, a.Metrics)

	// --- Rate gate over everything under /api ---
	// Authenticated callers share a per-user budget across devices;
	// anonymous callers are keyed by client IP.
	gate := middleware.NewRateGate(a.Redis, cfg.RateGate.Limit, cfg.RateGate.Window, a.Metrics)
	rateKey := func(c echo.Context) string {
		raw, err := resolver.Resolve(c)
		if err == nil {
			if userID, err := tokens.Verify(raw); err == nil {
				return "user:" + userID
			}
		}
		return "ip:" + c.RealIP()
	}

	api := e.Group("/api", gate.Middleware(rateKey))

	requireAuth := auth.RegisterRoutes(api.Group("/auth"), authHandler, resolver, tokens, authService)

	// --- Notes plugin ---
	noteRepo := notes.NewNoteRepository(a.DB)
	noteService := notes.NewNoteService(noteRepo)
	notes.RegisterRoutes(api.Group("/notes"), notes.NewHandler(noteService), requireAuth)

	// --- Predict plugin ---
	predictClient := predict.NewClient(cfg.Predict.ServiceURL, cfg.Predict.Timeout)
	predict.RegisterRoutes(api.Group("/predict"), predict.NewHandler(predictClient))

	// --- Operational endpoints (outside the rate gate) ---

	// Health check endpoint for container health monitoring. Probes the
	// actual backing stores rather than just answering.
	e.GET("/healthz", a.healthz)

	// Prometheus scrape endpoint.
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(a.Registry)))
}

// healthz reports the health of the process and its backing stores.
func (a *App) healthz(c echo.Context) error {
	ctx := c.Request().Context()

	checks := map[string]string{"db": "ok", "redis": "ok"}
	healthy := true

	if err := a.DB.PingContext(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	return c.JSON(status, map[string]any{
		"status": overall,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
