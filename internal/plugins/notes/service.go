package notes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Cloudyday56/stockmounts/internal/apperror"
	"github.com/Cloudyday56/stockmounts/internal/sanitize"
)

// maxTitleLength keeps titles within the notes.title column.
const maxTitleLength = 200

// NoteService defines the business logic contract for note operations.
type NoteService interface {
	Create(ctx context.Context, ownerID, title, content string) (*Note, error)
	Get(ctx context.Context, ownerID, id string) (*Note, error)
	List(ctx context.Context, ownerID string) ([]Note, error)
	Update(ctx context.Context, ownerID, id, title, content string) (*Note, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// noteService implements NoteService.
type noteService struct {
	repo NoteRepository
}

// NewNoteService creates a new note service backed by the given repository.
func NewNoteService(repo NoteRepository) NoteService {
	return &noteService{repo: repo}
}

// Create validates and persists a new note for the owner.
func (s *noteService) Create(ctx context.Context, ownerID, title, content string) (*Note, error) {
	title, content, err := cleanNoteFields(title, content)
	if err != nil {
		return nil, err
	}

	note := &Note{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Title:   title,
		Content: content,
	}

	if err := s.repo.Create(ctx, note); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating note: %w", err))
	}

	slog.Info("note created",
		slog.String("note_id", note.ID),
		slog.String("owner_id", ownerID),
	)

	return s.repo.FindByID(ctx, ownerID, note.ID)
}

// Get retrieves one of the owner's notes.
func (s *noteService) Get(ctx context.Context, ownerID, id string) (*Note, error) {
	return s.repo.FindByID(ctx, ownerID, id)
}

// List returns all of the owner's notes, newest first.
func (s *noteService) List(ctx context.Context, ownerID string) ([]Note, error) {
	notes, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing notes: %w", err))
	}
	return notes, nil
}

// Update validates and saves new title and content on the owner's note.
func (s *noteService) Update(ctx context.Context, ownerID, id, title, content string) (*Note, error) {
	title, content, err := cleanNoteFields(title, content)
	if err != nil {
		return nil, err
	}

	note := &Note{ID: id, OwnerID: ownerID, Title: title, Content: content}
	if err := s.repo.Update(ctx, note); err != nil {
		if apperror.SafeCode(err) == 404 {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("updating note: %w", err))
	}

	return s.repo.FindByID(ctx, ownerID, id)
}

// Delete removes the owner's note.
func (s *noteService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		if apperror.SafeCode(err) == 404 {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("deleting note: %w", err))
	}

	slog.Info("note deleted",
		slog.String("note_id", id),
		slog.String("owner_id", ownerID),
	)
	return nil
}

// cleanNoteFields sanitizes and validates the user-supplied note fields.
func cleanNoteFields(title, content string) (string, string, error) {
	title = sanitize.Text(title)
	content = strings.TrimSpace(content)

	if title == "" || content == "" {
		return "", "", apperror.NewValidation("Title and content are required")
	}
	if len(title) > maxTitleLength {
		return "", "", apperror.NewValidation("Title is too long")
	}
	return title, content, nil
}
