package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/Cloudyday56/stockmounts/internal/apperror"
)

// --- Mock Repository ---

// mockUserRepo implements UserRepository for testing.
type mockUserRepo struct {
	createFn       func(ctx context.Context, user *User) error
	findByIDFn     func(ctx context.Context, id string) (*User, error)
	findByEmailFn  func(ctx context.Context, email string) (*User, error)
	emailExistsFn  func(ctx context.Context, email string) (bool, error)
	updateAvatarFn func(ctx context.Context, id, avatarURL string) error
	deleteFn       func(ctx context.Context, id string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("User not found")
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, apperror.NewNotFound("User not found")
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn != nil {
		return m.emailExistsFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepo) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	if m.updateAvatarFn != nil {
		return m.updateAvatarFn(ctx, id, avatarURL)
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Test Helpers ---

// echoBack makes FindByID return whatever Create captured, so service
// methods that re-read after writing get the stored user back.
func echoBack(repo *mockUserRepo) *User {
	stored := &User{}
	repo.createFn = func(ctx context.Context, user *User) error {
		*stored = *user
		return nil
	}
	repo.findByIDFn = func(ctx context.Context, id string) (*User, error) {
		if stored.ID == "" || stored.ID != id {
			return nil, apperror.NewNotFound("User not found")
		}
		return stored, nil
	}
	return stored
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// --- Signup Tests ---

func TestSignup_Success(t *testing.T) {
	repo := &mockUserRepo{}
	stored := echoBack(repo)

	svc := NewAuthService(repo)
	user, err := svc.Signup(context.Background(), SignupInput{
		Email:       "Alice@Example.com",
		DisplayName: "Alice",
		Password:    "Str0ng-pass",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID == "" {
		t.Error("expected user ID to be generated")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected normalized email alice@example.com, got %s", user.Email)
	}
	if stored.PasswordHash == nil || *stored.PasswordHash == "" {
		t.Error("expected password hash to be set")
	}
	if stored.PasswordHash != nil && *stored.PasswordHash == "Str0ng-pass" {
		t.Error("password must not be stored in plaintext")
	}
	if stored.Credential() != CredentialPassword {
		t.Errorf("expected CredentialPassword, got %v", stored.Credential())
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}

	svc := NewAuthService(repo)
	_, err := svc.Signup(context.Background(), SignupInput{
		Email:       "taken@example.com",
		DisplayName: "Test",
		Password:    "Str0ng-pass",
	})
	assertAppError(t, err, 400)
}

func TestSignup_EmailCheckError(t *testing.T) {
	repo := &mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) {
			return false, errors.New("db connection lost")
		},
	}

	svc := NewAuthService(repo)
	_, err := svc.Signup(context.Background(), SignupInput{
		Email:       "test@example.com",
		DisplayName: "Test",
		Password:    "Str0ng-pass",
	})
	assertAppError(t, err, 500)
}

func TestSignup_LosesCreateRace(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			return apperror.NewDuplicate("User already exists")
		},
	}

	svc := NewAuthService(repo)
	_, err := svc.Signup(context.Background(), SignupInput{
		Email:       "racer@example.com",
		DisplayName: "Racer",
		Password:    "Str0ng-pass",
	})
	assertAppError(t, err, 400)
}

// --- Login Tests ---

func TestLogin_Success(t *testing.T) {
	hash, err := hashPassword("Str0ng-pass")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return &User{ID: "user-1", Email: email, PasswordHash: &hash}, nil
		},
	}

	svc := NewAuthService(repo)
	user, err := svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "Str0ng-pass",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("expected user-1, got %s", user.ID)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := &mockUserRepo{}

	svc := NewAuthService(repo)
	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assertAppError(t, err, 400)
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := hashPassword("Correct-h0rse")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return &User{ID: "user-1", Email: email, PasswordHash: &hash}, nil
		},
	}

	svc := NewAuthService(repo)
	_, err = svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "Wrong-h0rse",
	})
	assertAppError(t, err, 400)
}

// Unknown email and wrong password must be indistinguishable to the client.
func TestLogin_UniformFailureMessage(t *testing.T) {
	hash, err := hashPassword("Correct-h0rse")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	known := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return &User{ID: "user-1", Email: email, PasswordHash: &hash}, nil
		},
	}
	unknown := &mockUserRepo{}

	_, errKnown := NewAuthService(known).Login(context.Background(), LoginInput{
		Email: "alice@example.com", Password: "Wrong-h0rse",
	})
	_, errUnknown := NewAuthService(unknown).Login(context.Background(), LoginInput{
		Email: "nobody@example.com", Password: "Wrong-h0rse",
	})

	if apperror.SafeMessage(errKnown) != apperror.SafeMessage(errUnknown) {
		t.Errorf("login failure messages differ: %q vs %q",
			apperror.SafeMessage(errKnown), apperror.SafeMessage(errUnknown))
	}
}

// A federation-only identity has no password and must not pass login.
func TestLogin_FederatedOnlyIdentity(t *testing.T) {
	externalID := "12345"
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return &User{ID: "user-1", Email: email, ExternalID: &externalID}, nil
		},
	}

	svc := NewAuthService(repo)
	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "anything",
	})
	assertAppError(t, err, 400)
}

// --- ResolveFederated Tests ---

func TestResolveFederated_ExistingUser(t *testing.T) {
	hash := "some-hash"
	var created bool
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return &User{ID: "user-1", Email: email, PasswordHash: &hash}, nil
		},
		createFn: func(ctx context.Context, user *User) error {
			created = true
			return nil
		},
	}

	svc := NewAuthService(repo)
	user, err := svc.ResolveFederated(context.Background(), FederatedProfile{
		ExternalID:  "12345",
		Email:       "Alice@Example.com",
		DisplayName: "Alice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("expected existing user-1, got %s", user.ID)
	}
	if created {
		t.Error("expected no new identity for an existing email")
	}
	// The existing password identity must not be mutated by the lookup.
	if user.ExternalID != nil {
		t.Error("expected existing identity to stay unlinked")
	}
}

func TestResolveFederated_CreatesNewUser(t *testing.T) {
	repo := &mockUserRepo{}
	stored := echoBack(repo)

	svc := NewAuthService(repo)
	user, err := svc.ResolveFederated(context.Background(), FederatedProfile{
		ExternalID:  "12345",
		Email:       "New@Example.com",
		DisplayName: "New Person",
		AvatarURL:   "https://avatars.example.com/u/12345",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "new@example.com" {
		t.Errorf("expected normalized email, got %s", user.Email)
	}
	if stored.ExternalID == nil || *stored.ExternalID != "12345" {
		t.Error("expected external id to be stored")
	}
	if stored.PasswordHash != nil {
		t.Error("federated identity must not carry a password hash")
	}
	if stored.Credential() != CredentialFederated {
		t.Errorf("expected CredentialFederated, got %v", stored.Credential())
	}
}

func TestResolveFederated_PlaceholderDisplayName(t *testing.T) {
	repo := &mockUserRepo{}
	stored := echoBack(repo)

	svc := NewAuthService(repo)
	_, err := svc.ResolveFederated(context.Background(), FederatedProfile{
		ExternalID: "67890",
		Email:      "quiet@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.DisplayName != placeholderDisplayName {
		t.Errorf("expected placeholder display name, got %q", stored.DisplayName)
	}
}

func TestResolveFederated_CreateRace(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			return apperror.NewDuplicate("User already exists")
		},
	}

	svc := NewAuthService(repo)
	_, err := svc.ResolveFederated(context.Background(), FederatedProfile{
		ExternalID: "12345",
		Email:      "racer@example.com",
	})
	assertAppError(t, err, 500)
}

// --- DeleteAccount Tests ---

func TestDeleteAccount_Missing(t *testing.T) {
	repo := &mockUserRepo{
		deleteFn: func(ctx context.Context, id string) error {
			return apperror.NewNotFound("User not found")
		},
	}

	svc := NewAuthService(repo)
	err := svc.DeleteAccount(context.Background(), "ghost")
	assertAppError(t, err, 404)
}

// --- Password Policy Tests ---

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantOK   bool
	}{
		{"all classes present", "Str0ng-pass", true},
		{"exactly six chars", "Aa1!xx", true},
		{"too short", "Aa1!x", false},
		{"no uppercase", "weak-pass1", false},
		{"no lowercase", "WEAK-PASS1", false},
		{"no digit", "Weak-pass", false},
		{"no symbol", "Weakpass1", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ValidatePassword(tt.password)
			if tt.wantOK && msg != "" {
				t.Errorf("expected %q to pass, got %q", tt.password, msg)
			}
			if !tt.wantOK && msg == "" {
				t.Errorf("expected %q to fail", tt.password)
			}
		})
	}
}

// --- Password Hashing Tests ---

func TestHashAndVerifyPassword(t *testing.T) {
	password := "my-secret-password-123"

	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}

	// Correct password should verify.
	if !verifyPassword(password, hash) {
		t.Error("expected correct password to verify")
	}

	// Wrong password should not verify.
	if verifyPassword("wrong-password", hash) {
		t.Error("expected wrong password to fail verification")
	}
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty string", ""},
		{"random text", "not-a-hash"},
		{"too few parts", "$argon2id$v=19$m=65536"},
		{"corrupted salt", "$argon2id$v=19$m=65536,t=3,p=4$!!!invalid$aGFzaA"},
		{"corrupted hash", "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$!!!invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if verifyPassword("password", tt.hash) {
				t.Error("expected invalid hash to fail verification")
			}
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	hash1, err := hashPassword("same-password")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	hash2, err := hashPassword("same-password")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash1 == hash2 {
		t.Error("expected different salts to produce different hashes")
	}
}
