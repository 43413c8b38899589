package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Cloudyday56/stockmounts/internal/apperror"
)

// NoteRepository defines the data access contract for note operations.
// All SQL lives in the concrete implementation -- no SQL leaks out. Every
// single-note query takes the owner's id; a note belonging to someone else
// is indistinguishable from a note that does not exist.
type NoteRepository interface {
	Create(ctx context.Context, note *Note) error
	FindByID(ctx context.Context, ownerID, id string) (*Note, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Note, error)
	Update(ctx context.Context, note *Note) error
	Delete(ctx context.Context, ownerID, id string) error
}

// noteRepository implements NoteRepository with MariaDB queries.
type noteRepository struct {
	db *sql.DB
}

// NewNoteRepository creates a new repository backed by the given DB pool.
func NewNoteRepository(db *sql.DB) NoteRepository {
	return &noteRepository{db: db}
}

// Create inserts a new note row.
func (r *noteRepository) Create(ctx context.Context, note *Note) error {
	query := `INSERT INTO notes (id, owner_id, title, content)
	          VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, note.ID, note.OwnerID, note.Title, note.Content)
	if err != nil {
		return fmt.Errorf("inserting note: %w", err)
	}
	return nil
}

// FindByID retrieves a note by id, scoped to its owner.
func (r *noteRepository) FindByID(ctx context.Context, ownerID, id string) (*Note, error) {
	query := `SELECT id, owner_id, title, content, created_at, updated_at
	          FROM notes WHERE id = ? AND owner_id = ?`

	n := &Note{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Note not found or access denied")
	}
	if err != nil {
		return nil, fmt.Errorf("querying note by id: %w", err)
	}
	return n, nil
}

// ListByOwner returns all of a user's notes, newest first.
func (r *noteRepository) ListByOwner(ctx context.Context, ownerID string) ([]Note, error) {
	query := `SELECT id, owner_id, title, content, created_at, updated_at
	          FROM notes WHERE owner_id = ?
	          ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning note row: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Update modifies an existing note's title and content, scoped to its owner.
func (r *noteRepository) Update(ctx context.Context, note *Note) error {
	query := `UPDATE notes SET title = ?, content = ? WHERE id = ? AND owner_id = ?`

	result, err := r.db.ExecContext(ctx, query, note.Title, note.Content, note.ID, note.OwnerID)
	if err != nil {
		return fmt.Errorf("updating note: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("Note not found or access denied")
	}
	return nil
}

// Delete removes a note, scoped to its owner.
func (r *noteRepository) Delete(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("Note not found or access denied")
	}
	return nil
}
