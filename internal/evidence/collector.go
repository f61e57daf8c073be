// Package evidence gathers verified page content for a query.
package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kiranshivaraju/answerhunter/internal/fetch"
	"github.com/kiranshivaraju/answerhunter/internal/search"
	"github.com/kiranshivaraju/answerhunter/internal/verify"
	"github.com/kiranshivaraju/answerhunter/pkg/models"
)

// overFetchFactor is how many raw hits are requested per wanted source, to make up
// for hits the filters reject.
const overFetchFactor = 2

// Result is the outcome of one collection run. Sources and Evidence are parallel:
// Sources[i] describes the page whose text is Evidence[i].
type Result struct {
	RawHits  int
	Sources  []models.Source
	Evidence []models.EvidenceItem
}

// Empty reports whether no hit survived filtering.
func (r Result) Empty() bool {
	return len(r.Evidence) == 0
}

// Collector runs search, fetch and verification for one query at a time.
// It holds no per-call state and is safe for concurrent use.
type Collector struct {
	search       search.Provider
	fetcher      fetch.Fetcher
	verifier     *verify.Verifier
	fetchTimeout time.Duration
}

// NewCollector creates a Collector. A non-positive fetchTimeout leaves fetches
// bounded only by the fetcher itself.
func NewCollector(sp search.Provider, f fetch.Fetcher, v *verify.Verifier, fetchTimeout time.Duration) *Collector {
	return &Collector{
		search:       sp,
		fetcher:      f,
		verifier:     v,
		fetchTimeout: fetchTimeout,
	}
}

// Collect returns at most targetCount verified sources for query, in search order.
// A search failure is returned wrapped; page fetch failures only disqualify that page.
func (c *Collector) Collect(ctx context.Context, query string, targetCount int) (Result, error) {
	result := Result{
		Sources:  []models.Source{},
		Evidence: []models.EvidenceItem{},
	}
	if targetCount <= 0 {
		return result, nil
	}

	hits, err := c.search.Search(ctx, query, overFetchFactor*targetCount)
	if err != nil {
		return Result{}, fmt.Errorf("searching: %w", err)
	}
	result.RawHits = len(hits)

	for _, hit := range hits {
		if len(result.Evidence) >= targetCount {
			break
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		link := strings.TrimSpace(hit.Link)
		if link == "" {
			slog.Debug("skipping hit without link", "title", hit.Title)
			continue
		}
		if !c.verifier.IsCredibleDomain(link) {
			slog.Debug("skipping non-credible domain", "url", link)
			continue
		}

		content, err := c.fetchPage(ctx, link)
		if err != nil {
			slog.Debug("skipping unfetchable page", "url", link, "content", content)
			continue
		}
		if !c.verifier.IsQualityContent(content) {
			slog.Debug("skipping low-quality content", "url", link, "length", len(content))
			continue
		}

		result.Sources = append(result.Sources, models.Source{
			URL:     link,
			Title:   hit.Title,
			Snippet: hit.Snippet,
		})
		result.Evidence = append(result.Evidence, models.EvidenceItem{
			URL:     link,
			Title:   hit.Title,
			Content: content,
		})
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	slog.Debug("evidence collected",
		"query", query, "raw_hits", result.RawHits, "accepted", len(result.Evidence), "target", targetCount)

	return result, nil
}

// fetchPage bounds one fetch by the per-page timeout. On failure the returned
// content describes the error so it can be logged in place of the page.
func (c *Collector) fetchPage(ctx context.Context, url string) (string, error) {
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	content, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return fmt.Sprintf("Error fetching content: %v", err), err
	}
	return content, nil
}
