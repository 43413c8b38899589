package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/Cloudyday56/stockmounts/internal/apperror"
	"github.com/Cloudyday56/stockmounts/internal/sanitize"
)

// argon2id parameters following OWASP recommendations for argon2id:
// memory=64MB, iterations=3, parallelism=4.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64 MB in KiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// placeholderDisplayName is used when a GitHub account exposes neither a
// name nor a login.
const placeholderDisplayName = "GitHub User"

// AuthService defines the business logic contract for the identity gateway.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*User, error)
	Login(ctx context.Context, input LoginInput) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (*User, error)
	DeleteAccount(ctx context.Context, userID string) error

	// ResolveFederated finds the identity matching a federated profile's
	// email, creating a fresh federation-only identity when none exists.
	ResolveFederated(ctx context.Context, profile FederatedProfile) (*User, error)
}

// authService implements AuthService with argon2id hashing.
type authService struct {
	repo UserRepository
}

// NewAuthService creates a new auth service backed by the given repository.
func NewAuthService(repo UserRepository) AuthService {
	return &authService{repo: repo}
}

// Signup creates a new password identity. It validates uniqueness, hashes
// the password with argon2id, generates a UUID, and persists the user.
func (s *authService) Signup(ctx context.Context, input SignupInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// Check if email is already taken before doing expensive hashing.
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewDuplicate("User already exists")
	}

	// Hash the password with argon2id (memory-hard, GPU-resistant).
	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  sanitize.Text(input.DisplayName),
		PasswordHash: &hash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// Lost a concurrent signup race: the unique index fired even though
		// the existence check passed. Report it as the duplicate it is.
		if apperror.SafeCode(err) == 400 {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	slog.Info("user signed up",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return s.repo.FindByID(ctx, user.ID)
}

// Login authenticates a user by email and password. Unknown email, wrong
// password, and federation-only identities all yield the same
// InvalidCredential error so responses can't be used to enumerate accounts.
func (s *authService) Login(ctx context.Context, input LoginInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.SafeCode(err) == 404 {
			return nil, apperror.NewInvalidCredential()
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	// Federation-only identities have no password to check.
	if user.PasswordHash == nil {
		return nil, apperror.NewInvalidCredential()
	}

	if !verifyPassword(input.Password, *user.PasswordHash) {
		return nil, apperror.NewInvalidCredential()
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// GetByID retrieves an identity by id. Used by the session middleware to
// confirm the token's subject still exists.
func (s *authService) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateAvatar stores a new avatar reference and returns the updated user.
func (s *authService) UpdateAvatar(ctx context.Context, userID, avatarURL string) (*User, error) {
	if err := s.repo.UpdateAvatar(ctx, userID, strings.TrimSpace(avatarURL)); err != nil {
		if apperror.SafeCode(err) == 404 {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("updating avatar: %w", err))
	}
	return s.repo.FindByID(ctx, userID)
}

// DeleteAccount removes the identity. Outstanding session tokens for it
// keep verifying cryptographically but fail the middleware's identity
// lookup, which is exactly the intended invalidation.
func (s *authService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		if apperror.SafeCode(err) == 404 {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("deleting user: %w", err))
	}

	slog.Info("account deleted", slog.String("user_id", userID))
	return nil
}

// ResolveFederated looks up an identity by the federated profile's email,
// creating one when no match exists. A pre-existing password identity with
// the same email is simply signed in; its record is not mutated (linking
// a federated id onto an existing account is out of scope).
func (s *authService) ResolveFederated(ctx context.Context, profile FederatedProfile) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(profile.Email))

	user, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if apperror.SafeCode(err) != 404 {
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	displayName := sanitize.Text(profile.DisplayName)
	if displayName == "" {
		displayName = placeholderDisplayName
	}

	externalID := profile.ExternalID
	user = &User{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: displayName,
		ExternalID:  &externalID,
		AvatarURL:   profile.AvatarURL,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// Two concurrent callbacks can race past the lookup; the store's
		// unique index picks the winner and the loser surfaces as a
		// generic creation failure.
		return nil, apperror.NewInternal(fmt.Errorf("creating federated user: %w", err))
	}

	slog.Info("federated user created",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return s.repo.FindByID(ctx, user.ID)
}

// --- Password policy ---

// ValidatePassword checks the signup password policy: at least 6
// characters with an uppercase letter, a lowercase letter, a digit, and a
// non-alphanumeric character. Returns a client-safe message or "".
func ValidatePassword(password string) string {
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	if len(password) < 6 || !upper || !lower || !digit || !symbol {
		return "Password too weak"
	}
	return ""
}

// --- Password Hashing (argon2id) ---

// hashPassword creates an argon2id hash of the given password. The output
// format is: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
// This format is compatible with most argon2 libraries and allows self-
// contained verification without separate salt storage.
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	// Encode to the standard PHC string format.
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads, b64Salt, b64Hash)

	return encoded, nil
}

// verifyPassword checks a plaintext password against an argon2id hash string.
// Returns true if the password matches.
func verifyPassword(password, encodedHash string) bool {
	// Parse the encoded hash to extract parameters, salt, and hash.
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	// Compute the hash of the provided password with the same parameters.
	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Constant-time comparison to prevent timing attacks.
	return subtle.ConstantTimeCompare(expectedHash, computedHash) == 1
}
