// Package crawler implements the crawl orchestration pipeline: pagination,
// retry, dedup filtering, batched persistence, and session archiving.
package crawler

import (
	"context"

	"github.com/jonesrussell/socialcrawl/internal/domain"
)

// RawItem is one platform item as returned by a search endpoint, before
// normalization. Raw items are archived verbatim.
type RawItem map[string]any

// Adapter is the capability set a platform must provide. Adapters are free
// to try multiple underlying endpoints internally but present this single
// two-method fetch/normalize surface.
type Adapter interface {
	// Platform returns the platform tag this adapter collects for.
	Platform() domain.Platform

	// FetchPage requests one page of search results for the keyword.
	// The caller supplies the client identity (user agent) so identity
	// rotation stays an explicit per-attempt parameter rather than
	// mutated shared state.
	FetchPage(ctx context.Context, keyword string, page int, userAgent string) ([]RawItem, error)

	// Normalize converts one raw item into the canonical record shape.
	// It returns false when the item is missing required fields; such
	// items are dropped and counted, never fatal.
	Normalize(item RawItem, keyword string) (*domain.Record, bool)
}
