package notes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Cloudyday56/stockmounts/internal/apperror"
	"github.com/Cloudyday56/stockmounts/internal/plugins/auth"
)

// Handler handles HTTP requests for notes. All routes sit behind the
// session middleware, so the owner id is always present in context.
type Handler struct {
	service NoteService
}

// NewHandler creates a new notes handler with the given service.
func NewHandler(service NoteService) *Handler {
	return &Handler{service: service}
}

// List returns all of the caller's notes (GET /api/notes).
func (h *Handler) List(c echo.Context) error {
	notes, err := h.service.List(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notes)
}

// Get returns one of the caller's notes (GET /api/notes/:id).
func (h *Handler) Get(c echo.Context) error {
	note, err := h.service.Get(c.Request().Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// Create adds a new note for the caller (POST /api/notes).
func (h *Handler) Create(c echo.Context) error {
	var req CreateNoteRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body")
	}

	note, err := h.service.Create(c.Request().Context(), auth.GetUserID(c), req.Title, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, note)
}

// Update modifies one of the caller's notes (PUT /api/notes/:id).
func (h *Handler) Update(c echo.Context) error {
	var req UpdateNoteRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body")
	}

	note, err := h.service.Update(c.Request().Context(), auth.GetUserID(c), c.Param("id"), req.Title, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// Delete removes one of the caller's notes (DELETE /api/notes/:id).
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), auth.GetUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}
