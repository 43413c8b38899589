package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Cloudyday56/stockmounts/internal/apperror"
)

// Context keys for storing session data in Echo context. Other plugins
// use these keys (via the exported getter functions below) to access
// the authenticated user's information.
const (
	contextKeyUser   = "auth_user"
	contextKeyUserID = "auth_user_id"
)

// RequireAuth returns middleware that resolves the session token from the
// request, verifies it, and confirms the subject identity still exists
// before injecting it into the request context. Any failure along that
// chain yields 401 without distinguishing the cause.
func RequireAuth(resolver *TokenResolver, tokens *TokenService, service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := resolver.Resolve(c)
			if err != nil {
				return apperror.NewUnauthorized("Unauthorized - no token provided")
			}

			userID, err := tokens.Verify(raw)
			if err != nil {
				return apperror.NewUnauthorized("Unauthorized - invalid token")
			}

			// A token can outlive its identity: account deletion leaves
			// tokens that still verify but must no longer admit.
			user, err := service.GetByID(c.Request().Context(), userID)
			if err != nil {
				return apperror.NewUnauthorized("Unauthorized - user not found")
			}

			c.Set(contextKeyUser, user)
			c.Set(contextKeyUserID, user.ID)

			return next(c)
		}
	}
}

// --- Exported getters for other plugins ---

// GetUser retrieves the authenticated user from the Echo context.
// Returns nil if the request is not authenticated (middleware not applied).
func GetUser(c echo.Context) *User {
	user, ok := c.Get(contextKeyUser).(*User)
	if !ok {
		return nil
	}
	return user
}

// GetUserID retrieves the authenticated user's ID from the Echo context.
// Returns empty string if the request is not authenticated.
func GetUserID(c echo.Context) string {
	id, ok := c.Get(contextKeyUserID).(string)
	if !ok {
		return ""
	}
	return id
}
