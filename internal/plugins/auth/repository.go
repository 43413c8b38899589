package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/Cloudyday56/stockmounts/internal/apperror"
)

// mysqlDuplicateEntry is the MySQL/MariaDB error number for a unique key
// violation. Two concurrent signups for the same email can both pass the
// existence check; the unique index is the safety net and this mapping
// turns the loser's insert into a domain error.
const mysqlDuplicateEntry = 1062

// UserRepository defines the data access contract for identity records.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	Delete(ctx context.Context, id string) error
}

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new identity row. The caller must ensure the identity
// carries at least one credential; this is double-checked here because a
// row with neither password hash nor external id could never log in again.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	if user.Credential() == CredentialNone {
		return fmt.Errorf("refusing to store identity %s with no credential", user.ID)
	}

	query := `INSERT INTO users (id, email, display_name, password_hash, external_id, avatar_url)
	          VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.ExternalID,
		user.AvatarURL,
	)
	if isDuplicateEntry(err) {
		return apperror.NewDuplicate("User already exists")
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// FindByID retrieves an identity by its UUID.
// Returns apperror.NotFound if no user exists with this ID.
func (r *userRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, `WHERE id = ?`, id)
}

// FindByEmail retrieves an identity by email address.
// Returns apperror.NotFound if no user exists with this email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `WHERE email = ?`, email)
}

// findOne runs the shared SELECT with the given predicate.
func (r *userRepository) findOne(ctx context.Context, where string, arg any) (*User, error) {
	query := `SELECT id, email, display_name, password_hash, external_id,
	                 avatar_url, created_at, updated_at
	          FROM users ` + where

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.ExternalID,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return user, nil
}

// EmailExists returns true if an identity with the given email already exists.
// Used during signup to check for duplicates before hashing the password.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}

	return exists, nil
}

// UpdateAvatar sets a new avatar reference for the identity.
func (r *userRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	query := `UPDATE users SET avatar_url = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, avatarURL, id)
	if err != nil {
		return fmt.Errorf("updating avatar: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}

	return nil
}

// Delete removes the identity row. Owned notes go with it via the
// ON DELETE CASCADE constraint. Previously issued tokens stay
// cryptographically valid but fail the session middleware's identity
// lookup from this point on.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}

	return nil
}

// isDuplicateEntry reports whether err is a MySQL unique key violation.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
