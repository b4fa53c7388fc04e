package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"prospect/internal/llm"
	"prospect/internal/logging"
)

// Discoverer produces the candidate company list from a free-text query.
type Discoverer struct {
	LLM llm.Client
	Max int

	log *slog.Logger
}

// NewDiscoverer builds a discoverer. max bounds the number of candidates;
// zero means no bound.
func NewDiscoverer(client llm.Client, max int) *Discoverer {
	return &Discoverer{LLM: client, Max: max, log: logging.New("discovery")}
}

type discoveryResponse struct {
	Companies []Company `json:"companies"`
}

// Discover returns candidates in relevance order, deduplicated by normalized
// name. An empty result is valid and terminates the run cleanly; a service
// failure degrades to the same empty result.
func (d *Discoverer) Discover(ctx context.Context, query string) DiscoveryRecord {
	rec := DiscoveryRecord{Query: query, Companies: []Company{}}
	if d.LLM == nil || strings.TrimSpace(query) == "" {
		return rec
	}

	var resp discoveryResponse
	req := llm.Request{
		Schema: "company_discovery",
		System: "You are a venture scout. Output only valid JSON.",
		Prompt: discoveryPrompt(query, d.Max),
	}
	if err := d.LLM.Complete(ctx, req, &resp); err != nil {
		d.log.Warn("discovery failed, returning no candidates", "query", query, "error", err)
		return rec
	}

	seen := make(map[string]bool, len(resp.Companies))
	for _, c := range resp.Companies {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		rec.Companies = append(rec.Companies, Company{
			Name:        name,
			Industry:    fillUnknown(c.Industry),
			Description: fillUnknown(c.Description),
		})
		if d.Max > 0 && len(rec.Companies) >= d.Max {
			break
		}
	}
	d.log.Info("discovery complete", "query", query, "companies", len(rec.Companies))
	return rec
}

func discoveryPrompt(query string, max int) string {
	limit := max
	if limit <= 0 {
		limit = 5
	}
	return fmt.Sprintf(`Find up to %d startup companies matching this investment thesis, ordered by relevance:

%s

Return JSON: {"companies": [{"name": "...", "industry": "...", "description": "..."}]}`, limit, query)
}
