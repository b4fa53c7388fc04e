// Package evidence implements the retrieval fallback chain every analysis
// stage shares: query the local similarity index first, fall through to live
// web search only when the index cannot satisfy the requested minimum, and
// deduplicate across both by normalized provenance identifier.
package evidence

import (
	"context"

	"prospect/internal/store"
)

// Item is one piece of retrieved evidence. ID is the provenance identifier
// (URL or document key) used for deduplication and audit.
type Item struct {
	ID      string
	Title   string
	Snippet string
	URL     string
	Score   float64
}

// Source is a single evidence provider. Implementations return up to k
// items ranked most-relevant first.
type Source interface {
	Search(ctx context.Context, query string, k int) ([]Item, error)
}

// Result is the outcome of a chain fetch. Reason is non-nil when the chain
// degraded (web failure, everything unavailable); callers treat an empty
// Items slice as "insufficient evidence", never as a fault.
type Result struct {
	Items      []Item
	Provenance []string
	Reason     error
}

// Insufficient reports whether fewer than min items were retrieved.
func (r Result) Insufficient(min int) bool { return len(r.Items) < min }

// StoreSource adapts the persistence facade's similarity search to the
// Source contract.
type StoreSource struct {
	Store store.Store
}

// Search implements Source. store.ErrUnavailable passes through untouched so
// the chain can recognize the recoverable case.
func (s StoreSource) Search(ctx context.Context, query string, k int) ([]Item, error) {
	hits, err := s.Store.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(hits))
	for _, h := range hits {
		items = append(items, Item{
			ID:      h.Doc.Key,
			Title:   h.Doc.Title,
			Snippet: h.Doc.Content,
			URL:     h.Doc.Metadata["url"],
			Score:   h.Score,
		})
	}
	return items, nil
}
