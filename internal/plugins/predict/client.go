package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Cloudyday56/stockmounts/internal/apperror"
)

// Client talks to the upstream prediction service. It is a thin proxy:
// upstream JSON bodies and error details pass through to the caller.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a prediction client for the given base URL with a
// bounded request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// upstreamError is the error body shape of the prediction service.
type upstreamError struct {
	Detail string `json:"detail"`
}

// Predict fetches a prediction for the ticker. A healthy upstream answer
// is returned as raw JSON; upstream error statuses are mapped to the same
// status with the upstream's detail message, and transport failures
// (connection refused, timeout) become 502.
func (c *Client) Predict(ctx context.Context, ticker string) (json.RawMessage, error) {
	endpoint := c.baseURL + "/predict/" + url.PathEscape(ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating predict request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperror.NewBadGateway("Prediction service unavailable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.NewBadGateway("Prediction service unavailable", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Forward the upstream's own status and detail where possible.
		var ue upstreamError
		msg := "Prediction failed"
		if json.Unmarshal(body, &ue) == nil && ue.Detail != "" {
			msg = ue.Detail
		}
		return nil, apperror.NewUpstream(resp.StatusCode, msg)
	}

	return json.RawMessage(body), nil
}
