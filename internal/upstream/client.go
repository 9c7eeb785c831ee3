// Package upstream talks to the workout-plan backend that owns the exercise data.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/planform/internal/models"
)

// Upstream endpoint paths.
const (
	OptionsPath  = "/get_options"
	WorkoutsPath = "/get_workouts"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 4 << 20

var (
	// ErrTransport covers network failures and non-200 responses.
	ErrTransport = errors.New("upstream unavailable")
	// ErrMalformedBody covers bodies that are not JSON or have the wrong shape.
	ErrMalformedBody = errors.New("upstream returned a malformed response")
)

// Config tunes the HTTP transport used for upstream calls.
type Config struct {
	// Timeout bounds a whole request including reading the body.
	Timeout time.Duration

	DialTimeout     time.Duration
	ResponseHeader  time.Duration
	IdleConnTimeout time.Duration

	MaxIdleConnsPerHost int
}

// DefaultConfig returns the transport settings used when config leaves them unset.
func DefaultConfig() Config {
	return Config{
		Timeout:             15 * time.Second,
		DialTimeout:         5 * time.Second,
		ResponseHeader:      10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 16,
	}
}

// Client fetches option catalogs and workout plans from the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client targeting baseURL.
func NewClient(baseURL string, cfg Config) *Client {
	dialer := &net.Dialer{Timeout: cfg.DialTimeout, KeepAlive: 30 * time.Second}
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeader,
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: tr, Timeout: cfg.Timeout},
	}
}

// BaseURL returns the backend root this client targets.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %w", ErrTransport, path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d: %s", ErrTransport, path, resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

// FetchOptions reads the option catalog.
func (c *Client) FetchOptions(ctx context.Context) (*models.OptionCatalog, error) {
	body, err := c.get(ctx, OptionsPath, nil)
	if err != nil {
		return nil, err
	}

	var catalog models.OptionCatalog
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("%w: decode options: %w", ErrMalformedBody, err)
	}
	return &catalog, nil
}

// FetchPlan requests a plan for the selection. Field values are sent verbatim.
func (c *Client) FetchPlan(ctx context.Context, sel models.FormSelection) (*models.WorkoutPlan, error) {
	body, err := c.get(ctx, WorkoutsPath, sel.Query())
	if err != nil {
		return nil, err
	}

	var plan models.WorkoutPlan
	if err := json.Unmarshal(body, &plan); err != nil {
		return nil, fmt.Errorf("%w: decode plan: %w", ErrMalformedBody, err)
	}
	return &plan, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
