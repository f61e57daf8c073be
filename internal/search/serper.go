package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kiranshivaraju/answerhunter/pkg/models"
)

// maxSerperResults is the largest page Serper serves for one request.
const maxSerperResults = 100

// SerperClient implements Provider using the Serper Google search API.
type SerperClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSerperClient creates a new Serper client. baseURL is normally https://google.serper.dev.
func NewSerperClient(baseURL, apiKey string, timeout time.Duration) *SerperClient {
	return &SerperClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *SerperClient) Search(ctx context.Context, query string, count int) ([]models.SearchHit, error) {
	if count <= 0 {
		return []models.SearchHit{}, nil
	}
	if count > maxSerperResults {
		count = maxSerperResults
	}

	body, err := json.Marshal(serperRequest{Q: query, Num: count})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("X-API-KEY", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: status %d", ErrSearchRejected, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrSearchUnavailable, resp.StatusCode)
	}

	var serperResp serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&serperResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrSearchUnavailable, err)
	}

	return parseOrganic(serperResp.Organic, count), nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrSearchTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrSearchTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
}

// parseOrganic keeps at most limit results, in the order Serper returned them.
func parseOrganic(results []serperOrganic, limit int) []models.SearchHit {
	hits := make([]models.SearchHit, 0, min(len(results), limit))
	for _, r := range results {
		if len(hits) == limit {
			break
		}
		hits = append(hits, models.SearchHit{
			Link:     r.Link,
			Title:    r.Title,
			Snippet:  r.Snippet,
			Position: r.Position,
		})
	}
	return hits
}

// --- Serper wire types ---

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []serperOrganic `json:"organic"`
}

type serperOrganic struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// Compile-time check that SerperClient implements Provider.
var _ Provider = (*SerperClient)(nil)
