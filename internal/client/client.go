// Package client is a small HTTP client for the answerhunter API. It unwraps
// the {"data": ...} envelope and turns {"error": ...} bodies into *APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/answerhunter/pkg/models"
)

const maxResponseBytes = 4 << 20

// ErrPollTimeout is returned by Wait when the job is still running at the deadline.
var ErrPollTimeout = errors.New("timed out waiting for query to finish")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Client talks to one answerhunter server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for baseURL. A zero timeout means no per-request limit.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Submit posts a query. A numResults of 0 lets the server pick its default.
func (c *Client) Submit(ctx context.Context, query string, numResults int) (*models.Job, error) {
	body := map[string]any{"query": query}
	if numResults != 0 {
		body["num_results"] = numResults
	}
	var job models.Job
	if err := c.do(ctx, http.MethodPost, "/query", body, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Get fetches the current snapshot of a job.
func (c *Client) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	if err := c.do(ctx, http.MethodGet, "/query/"+id.String(), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Wait polls a job every interval until it is completed or failed. It returns
// ErrPollTimeout when ctx expires first.
func (c *Client) Wait(ctx context.Context, id uuid.UUID, interval time.Duration) (*models.Job, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := c.Get(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrPollTimeout, ctx.Err())
			}
			return nil, err
		}
		if job.Status.IsTerminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return job, fmt.Errorf("%w: last status %s", ErrPollTimeout, job.Status)
		case <-ticker.C:
		}
	}
}

// Status fetches the server's job counters.
func (c *Client) Status(ctx context.Context) (*models.StatusSummary, error) {
	var s models.StatusSummary
	if err := c.do(ctx, http.MethodGet, "/status", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Health fetches the server's health report.
func (c *Client) Health(ctx context.Context) (*models.HealthReport, error) {
	var h models.HealthReport
	if err := c.do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	env := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
