package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/planform/internal/controller"
	"github.com/claude/planform/internal/models"
	"github.com/claude/planform/internal/storage"
)

// HTTPClient implements DataSource by calling the planform JSON API.
// Used for remote MCP mode where the binary runs locally (stdio) but the
// planform server runs elsewhere (reached over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusServiceUnavailable:
		if path == "/api/v1/history" {
			return nil, ErrHistoryDisabled
		}
	}
	return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, apiError(body))
}

// apiError extracts the {"error": "..."} message the server writes, falling back
// to the raw body.
func apiError(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func (c *HTTPClient) Options(ctx context.Context) (*controller.CatalogView, error) {
	body, err := c.get(ctx, "/api/v1/options", nil)
	if err != nil {
		return nil, err
	}

	var view controller.CatalogView
	if err := json.Unmarshal(body, &view); err != nil {
		return nil, fmt.Errorf("httpclient: decode options: %w", err)
	}
	return &view, nil
}

func (c *HTTPClient) GeneratePlan(ctx context.Context, sel models.FormSelection) (*controller.Submission, error) {
	params := url.Values{}
	for k, v := range sel.Query() {
		if v[0] != "" {
			params[k] = v
		}
	}

	body, err := c.get(ctx, "/api/v1/plan", params)
	if err != nil {
		return nil, err
	}

	var sub controller.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, fmt.Errorf("httpclient: decode plan: %w", err)
	}
	if sub.Plan == nil {
		return nil, errors.New("httpclient: plan response without plan")
	}
	return &sub, nil
}

func (c *HTTPClient) RecentPlans(ctx context.Context, limit int) ([]storage.PlanRecord, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.get(ctx, "/api/v1/history", params)
	if err != nil {
		return nil, err
	}

	var rows []storage.PlanRecord
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("httpclient: decode history: %w", err)
	}
	return rows, nil
}
