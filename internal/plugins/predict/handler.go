package predict

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Cloudyday56/stockmounts/internal/apperror"
)

// tickerPattern bounds what is forwarded upstream: short uppercase symbols
// with optional dot or dash segments (BRK.B, BF-B).
var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,9}$`)

// Handler handles HTTP requests for stock predictions.
type Handler struct {
	client *Client
}

// NewHandler creates a new predict handler with the given client.
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// Predict proxies a prediction request upstream (GET /api/predict/:ticker).
func (h *Handler) Predict(c echo.Context) error {
	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	if !tickerPattern.MatchString(ticker) {
		return apperror.NewValidation("Invalid ticker symbol")
	}

	result, err := h.client.Predict(c.Request().Context(), ticker)
	if err != nil {
		return err
	}

	return c.JSONBlob(http.StatusOK, result)
}
