package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer is the iss claim stamped on every session token.
const tokenIssuer = "stockmounts"

// ErrInvalidToken is returned when a session token is malformed, carries a
// bad signature, or has expired. Verification failures are terminal for
// the request -- there is no soft-fail path.
var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and verifies the stateless session tokens. A token
// binds exactly one identity id (the sub claim) to a fixed validity window;
// nothing is persisted server-side, so a token stays valid until expiry
// regardless of logout.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a token service signing with the given HMAC
// secret. ttl is the validity window for issued tokens (7 days by default).
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL returns the configured validity window. The cookie MaxAge must match
// it so the browser drops the cookie when the token would stop verifying.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue produces a signed token embedding the identity id with an expiry
// one validity window out.
func (s *TokenService) Issue(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a token (signature, shape, expiry, issuer)
// and returns the embedded identity id. Any failure returns ErrInvalidToken;
// callers get no detail about which check failed.
func (s *TokenService) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Issuer != tokenIssuer || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
