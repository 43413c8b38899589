package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Cloudyday56/stockmounts/internal/apperror"
	"github.com/Cloudyday56/stockmounts/internal/config"
	"github.com/Cloudyday56/stockmounts/internal/metrics"
)

// sessionIssuer is the slice of TokenService the handler needs to mint
// session cookies.
type sessionIssuer interface {
	Issue(userID string) (string, error)
	TTL() time.Duration
}

// Handler handles HTTP requests for the identity gateway. Handlers are
// thin: they bind the request, call the service, and render the response.
// No business logic lives here.
type Handler struct {
	service      AuthService
	tokens       sessionIssuer
	provider     *GitHubProvider
	cookieName   string
	cookiePolicy config.CookiePolicy
	frontendURL  string
	collector    *metrics.Collector
}

// NewHandler creates a new auth handler.
func NewHandler(service AuthService, tokens sessionIssuer, provider *GitHubProvider, cfg *config.Config, collector *metrics.Collector) *Handler {
	return &Handler{
		service:      service,
		tokens:       tokens,
		provider:     provider,
		cookieName:   cfg.Auth.CookieName,
		cookiePolicy: cfg.CookiePolicy(),
		frontendURL:  cfg.FrontendURL,
		collector:    collector,
	}
}

// Signup creates a new password identity (POST /api/auth/signup).
func (h *Handler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body")
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" || strings.TrimSpace(req.FullName) == "" {
		return apperror.NewValidation("All fields are required")
	}
	if msg := ValidatePassword(req.Password); msg != "" {
		return apperror.NewValidation(msg)
	}

	user, err := h.service.Signup(c.Request().Context(), SignupInput{
		Email:       req.Email,
		DisplayName: req.FullName,
		Password:    req.Password,
	})
	if err != nil {
		return err
	}

	if err := h.issueSession(c, user.ID); err != nil {
		return err
	}
	h.collector.RecordAuthEvent("signup")

	return c.JSON(http.StatusCreated, map[string]any{"user": user})
}

// Login authenticates a password identity (POST /api/auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body")
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperror.NewValidation("All fields are required")
	}

	user, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.collector.RecordAuthEvent("login_failed")
		return err
	}

	if err := h.issueSession(c, user.ID); err != nil {
		return err
	}
	h.collector.RecordAuthEvent("login")

	return c.JSON(http.StatusOK, map[string]any{"user": user})
}

// Logout clears the session cookie (POST /api/auth/logout). Tokens are
// stateless, so logout is purely a client-side affair: the cookie is
// dropped and bearer clients simply discard their copy.
func (h *Handler) Logout(c echo.Context) error {
	h.clearSessionCookie(c)
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// CheckAuth returns the authenticated identity (GET /api/auth/check-auth).
// Requires the session middleware.
func (h *Handler) CheckAuth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"user": GetUser(c)})
}

// UpdateProfile updates the authenticated user's avatar
// (PUT /api/auth/update-profile).
func (h *Handler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body")
	}
	if strings.TrimSpace(req.ProfilePic) == "" {
		return apperror.NewValidation("Profile pic is required")
	}

	user, err := h.service.UpdateAvatar(c.Request().Context(), GetUserID(c), req.ProfilePic)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"user": user})
}

// DeleteAccount removes the authenticated identity and its notes
// (DELETE /api/auth/delete-account).
func (h *Handler) DeleteAccount(c echo.Context) error {
	if err := h.service.DeleteAccount(c.Request().Context(), GetUserID(c)); err != nil {
		return err
	}

	h.clearSessionCookie(c)
	h.collector.RecordAuthEvent("account_deleted")

	return c.JSON(http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}

// --- Federation flow ---

// GitHubStart redirects the browser to GitHub's authorization page
// (GET /api/auth/github).
func (h *Handler) GitHubStart(c echo.Context) error {
	return c.Redirect(http.StatusFound, h.provider.AuthorizeURL())
}

// GitHubCallback completes the federation flow (GET /api/auth/github/callback):
// exchange the code, resolve the identity, issue a session, and send the
// browser back to the frontend.
func (h *Handler) GitHubCallback(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return apperror.NewBadRequest("No code provided")
	}

	profile, err := h.provider.FetchProfile(c.Request().Context(), code)
	if err != nil {
		if errors.Is(err, ErrNoVerifiedEmail) {
			return apperror.NewBadRequest("No email found in GitHub profile")
		}
		return apperror.NewBadGateway("GitHub authentication failed", err)
	}

	user, err := h.service.ResolveFederated(c.Request().Context(), *profile)
	if err != nil {
		return err
	}

	if err := h.issueSession(c, user.ID); err != nil {
		return err
	}
	h.collector.RecordAuthEvent("github_login")

	return c.Redirect(http.StatusFound, h.frontendURL)
}

// --- Cookie helpers ---

// issueSession mints a token for the user and attaches it as the session
// cookie. A signing failure aborts the request: a success response
// without a session would strand the client.
func (h *Handler) issueSession(c echo.Context, userID string) error {
	token, err := h.tokens.Issue(userID)
	if err != nil {
		return apperror.NewInternal(err)
	}

	c.SetCookie(&http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookiePolicy.Secure,
		SameSite: h.cookiePolicy.SameSite,
		MaxAge:   int(h.tokens.TTL().Seconds()),
	})
	return nil
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func (h *Handler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookiePolicy.Secure,
		SameSite: h.cookiePolicy.SameSite,
		MaxAge:   -1,
	})
}
