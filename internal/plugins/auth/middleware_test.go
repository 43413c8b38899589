package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Cloudyday56/stockmounts/internal/apperror"
)

// runProtected sends a request through RequireAuth into a capture handler
// and reports the resulting error plus whatever identity landed in context.
func runProtected(t *testing.T, repo UserRepository, tokens *TokenService, mutate func(req *http.Request)) (*User, error) {
	t.Helper()

	resolver := NewTokenResolver("token")
	service := NewAuthService(repo)

	var seen *User
	handler := RequireAuth(resolver, tokens, service)(func(c echo.Context) error {
		seen = GetUser(c)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/check-auth", nil)
	mutate(req)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	return seen, handler(c)
}

func TestRequireAuth_ValidCookie(t *testing.T) {
	tokens := newTestTokenService(time.Hour)
	token, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return &User{ID: id, Email: "alice@example.com"}, nil
		},
	}

	seen, err := runProtected(t, repo, tokens, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == nil || seen.ID != "user-1" {
		t.Errorf("expected user-1 in context, got %+v", seen)
	}
}

func TestRequireAuth_ValidBearer(t *testing.T) {
	tokens := newTestTokenService(time.Hour)
	token, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return &User{ID: id}, nil
		},
	}

	seen, err := runProtected(t, repo, tokens, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == nil || seen.ID != "user-1" {
		t.Errorf("expected user-1 in context, got %+v", seen)
	}
}

func TestRequireAuth_NoToken(t *testing.T) {
	tokens := newTestTokenService(time.Hour)

	_, err := runProtected(t, &mockUserRepo{}, tokens, func(req *http.Request) {})
	assertAppError(t, err, 401)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	tokens := newTestTokenService(time.Hour)

	_, err := runProtected(t, &mockUserRepo{}, tokens, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "token", Value: "garbage"})
	})
	assertAppError(t, err, 401)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	expired := newTestTokenService(-time.Minute)
	token, err := expired.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tokens := newTestTokenService(time.Hour)
	_, err = runProtected(t, &mockUserRepo{}, tokens, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	})
	assertAppError(t, err, 401)
}

// A token that still verifies must stop admitting once its identity is gone.
func TestRequireAuth_DeletedIdentity(t *testing.T) {
	tokens := newTestTokenService(time.Hour)
	token, err := tokens.Issue("deleted-user")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return nil, apperror.NewNotFound("User not found")
		},
	}

	_, err = runProtected(t, repo, tokens, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	})
	assertAppError(t, err, 401)
}

func TestGetUser_Unauthenticated(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if GetUser(c) != nil {
		t.Error("expected nil user outside the middleware")
	}
	if GetUserID(c) != "" {
		t.Error("expected empty user id outside the middleware")
	}
}
