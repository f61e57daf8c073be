// Package search queries a web search API for candidate evidence pages.
package search

import (
	"context"
	"errors"

	"github.com/kiranshivaraju/answerhunter/pkg/models"
)

// Sentinel errors for search provider failures.
var (
	ErrSearchUnavailable = errors.New("search provider unavailable")
	ErrSearchTimeout     = errors.New("search provider timeout")
	ErrSearchRejected    = errors.New("search request rejected")
)

// Provider returns up to count hits for query in the provider's relevance order.
// A query with no matches yields an empty slice and a nil error.
type Provider interface {
	Search(ctx context.Context, query string, count int) ([]models.SearchHit, error)
}
