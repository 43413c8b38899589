// Package auth is the session and identity gateway for StockMounts. It
// owns credential issuance (signup/login), stateless session tokens,
// GitHub federated sign-in, and the session middleware every protected
// route sits behind.
//
// This is a CORE plugin -- always enabled, cannot be disabled.
package auth

import (
	"time"
)

// Credential describes which authentication paths an identity carries.
// Every stored user must have at least one; CredentialNone exists only to
// make the zero value invalid.
type Credential int

const (
	CredentialNone Credential = iota

	// CredentialPassword: local identity, signs in with email + password.
	CredentialPassword

	// CredentialFederated: created by GitHub sign-in, has no password.
	CredentialFederated

	// CredentialBoth: password identity that also carries a federated link.
	CredentialBoth
)

// User represents a registered StockMounts user. This is the domain model
// used throughout the application. Database scanning and JSON marshaling
// use this struct directly. JSON field names match what the React frontend
// expects.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"fullName"`
	PasswordHash *string   `json:"-"` // Never expose in JSON responses.
	ExternalID   *string   `json:"-"` // GitHub account id; never exposed.
	AvatarURL    string    `json:"profilePic"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Credential derives the identity's authentication capability from which
// optional fields are set.
func (u *User) Credential() Credential {
	switch {
	case u.PasswordHash != nil && u.ExternalID != nil:
		return CredentialBoth
	case u.PasswordHash != nil:
		return CredentialPassword
	case u.ExternalID != nil:
		return CredentialFederated
	default:
		return CredentialNone
	}
}

// FederatedProfile is what the federation flow learns about a GitHub
// account: enough to resolve or create a local identity.
type FederatedProfile struct {
	ExternalID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

// --- Request DTOs (bound from HTTP requests) ---

// SignupRequest holds the data submitted to POST /api/auth/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// LoginRequest holds the data submitted to POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest holds the data submitted to PUT /api/auth/update-profile.
type UpdateProfileRequest struct {
	ProfilePic string `json:"profilePic"`
}

// --- Service Input DTOs (passed from handler to service) ---

// SignupInput is the validated input for creating a new password identity.
type SignupInput struct {
	Email       string
	DisplayName string
	Password    string
}

// LoginInput is the validated input for authenticating a user.
type LoginInput struct {
	Email    string
	Password string
}
