package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all auth routes on the given group (mounted at
// /api/auth). The session middleware is built here from the gateway's own
// pieces and also returned so other plugins can guard their route groups
// with it.
func RegisterRoutes(g *echo.Group, h *Handler, resolver *TokenResolver, tokens *TokenService, service AuthService) echo.MiddlewareFunc {
	requireAuth := RequireAuth(resolver, tokens, service)

	// Public routes -- no session required.
	g.POST("/signup", h.Signup)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.GET("/github", h.GitHubStart)
	g.GET("/github/callback", h.GitHubCallback)

	// Routes that require an authenticated session.
	g.GET("/check-auth", h.CheckAuth, requireAuth)
	g.PUT("/update-profile", h.UpdateProfile, requireAuth)
	g.DELETE("/delete-account", h.DeleteAccount, requireAuth)

	return requireAuth
}
