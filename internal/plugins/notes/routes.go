package notes

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all note routes on the given group (mounted at
// /api/notes). Every route requires an authenticated session.
func RegisterRoutes(g *echo.Group, h *Handler, requireAuth echo.MiddlewareFunc) {
	g.Use(requireAuth)

	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
