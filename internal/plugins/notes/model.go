package notes

import "time"

// Note is a single note owned by one user. Ownership is enforced at the
// repository layer: every query is scoped by owner_id.
type Note struct {
	ID        string    `json:"_id"`
	OwnerID   string    `json:"-"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateNoteRequest is the JSON payload for creating a note.
type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdateNoteRequest is the JSON payload for updating a note.
type UpdateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
