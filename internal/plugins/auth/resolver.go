package auth

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
)

// ErrNoCredential is returned when neither carrier yields a session token.
var ErrNoCredential = errors.New("no credential presented")

// resolverFunc extracts a candidate token from one carrier, or returns ""
// if that carrier is absent on the request.
type resolverFunc func(c echo.Context) string

// TokenResolver tries each carrier in a fixed order and returns the first
// token found. Two carriers exist: the session cookie (same-site browser
// flows) and the Authorization header. The header path exists for the
// federation redirect flow, where the frontend ends up holding the token
// client-side and a cross-origin cookie can't be relied on.
type TokenResolver struct {
	strategies []resolverFunc
}

// NewTokenResolver creates a resolver with the standard carrier order:
// cookie first, bearer header second.
func NewTokenResolver(cookieName string) *TokenResolver {
	return &TokenResolver{
		strategies: []resolverFunc{
			fromCookie(cookieName),
			fromBearer,
		},
	}
}

// Resolve returns the first token any carrier yields, or ErrNoCredential.
func (r *TokenResolver) Resolve(c echo.Context) (string, error) {
	for _, strategy := range r.strategies {
		if token := strategy(c); token != "" {
			return token, nil
		}
	}
	return "", ErrNoCredential
}

// fromCookie reads the session token from the named cookie.
func fromCookie(name string) resolverFunc {
	return func(c echo.Context) string {
		cookie, err := c.Cookie(name)
		if err != nil || cookie.Value == "" {
			return ""
		}
		return cookie.Value
	}
}

// fromBearer reads the session token from "Authorization: Bearer <token>".
func fromBearer(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return ""
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		// No "Bearer " prefix found.
		return ""
	}
	return strings.TrimSpace(token)
}
