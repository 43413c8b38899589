package predict

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the prediction routes on the given group (mounted
// at /api/predict). Predictions are public: no session required, the rate
// gate on the /api group is the only throttle.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/:ticker", h.Predict)
}
