package evidence

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	pkgerrors "github.com/pkg/errors"

	"prospect/internal/logging"
	"prospect/internal/store"
)

// Chain is the two-step fallback retriever. Store is consulted first; Web
// fires only when the store leaves the minimum unsatisfied. Either source may
// be nil.
type Chain struct {
	Store Source
	Web   Source

	log *slog.Logger
}

// NewChain wires a chain over the given sources.
func NewChain(storeSrc, web Source) *Chain {
	return &Chain{Store: storeSrc, Web: web, log: logging.New("evidence")}
}

// Fetch retrieves at least min items for query when the sources can provide
// them. The store step is skipped entirely when the index is unavailable;
// a web failure after an empty store yields an empty Result carrying the
// reason. Fetch itself never fails.
func (c *Chain) Fetch(ctx context.Context, query string, min int) Result {
	if min <= 0 {
		min = 1
	}

	var collected []Item
	var degraded error

	if c.Store != nil {
		items, err := c.Store.Search(ctx, query, min)
		switch {
		case err == nil:
			// Store hits are ranked by similarity descending with stable
			// insertion-order tie-break; keep that order.
			sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
			if len(items) > min {
				items = items[:min]
			}
			collected = items
		case errors.Is(err, store.ErrUnavailable):
			c.log.Debug("similarity index unavailable, falling through to web", "query", query)
		default:
			// Any other store fault is equally recoverable here.
			c.log.Warn("similarity search failed, falling through to web", "query", query, "error", err)
			degraded = pkgerrors.Wrap(err, "similarity search")
		}
	}

	if len(collected) < min && c.Web != nil {
		seen := make(map[string]bool, len(collected))
		for _, it := range collected {
			seen[normalizeName(it.Title)] = true
		}
		items, err := c.Web.Search(ctx, query, min)
		if err != nil {
			degraded = pkgerrors.Wrap(err, "web search")
			c.log.Warn("web search failed", "query", query, "error", err)
		} else {
			for _, it := range items {
				if seen[normalizeName(it.Title)] {
					continue
				}
				collected = append(collected, it)
			}
		}
	}

	deduped, provenance := dedupe(collected)
	res := Result{Items: deduped, Provenance: provenance}
	if len(deduped) == 0 {
		res.Reason = degraded
		if res.Reason == nil {
			res.Reason = pkgerrors.New("no evidence found")
		}
	}
	return res
}

// dedupe removes items sharing a normalized provenance identifier, keeping
// first occurrence order, and returns the identifiers for the audit trail.
func dedupe(items []Item) ([]Item, []string) {
	seen := make(map[string]bool, len(items))
	out := make([]Item, 0, len(items))
	prov := make([]string, 0, len(items))
	for _, it := range items {
		key := NormalizeID(it.ID)
		if key == "" {
			key = NormalizeID(it.URL)
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
		prov = append(prov, key)
	}
	return out, prov
}
