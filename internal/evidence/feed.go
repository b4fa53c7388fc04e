package evidence

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedSource pulls configured RSS/news feeds and filters items locally by
// query keywords. Feeds are not queryable like a search API, so relevance is
// a keyword-overlap score over title and description.
type FeedSource struct {
	Client *http.Client
	Feeds  []string
}

// NewFeedSource returns a feed source over the given feed URLs.
func NewFeedSource(feeds []string) *FeedSource {
	return &FeedSource{
		Client: &http.Client{Timeout: 15 * time.Second},
		Feeds:  feeds,
	}
}

// Search implements Source.
func (f *FeedSource) Search(ctx context.Context, query string, k int) ([]Item, error) {
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 || len(f.Feeds) == 0 {
		return nil, nil
	}

	parser := gofeed.NewParser()
	var out []Item

	for _, feedURL := range f.Feeds {
		if k > 0 && len(out) >= k {
			break
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
		if err != nil {
			continue
		}
		resp, err := f.Client.Do(req)
		if err != nil {
			continue // unreachable feeds are skipped, not fatal
		}
		feed, err := parser.Parse(resp.Body)
		resp.Body.Close()
		if err != nil {
			continue
		}

		for _, it := range feed.Items {
			if k > 0 && len(out) >= k {
				break
			}
			score := keywordOverlap(it.Title+" "+it.Description, keywords)
			if score == 0 {
				continue
			}
			out = append(out, Item{
				ID:      it.Link,
				Title:   strings.TrimSpace(it.Title),
				Snippet: strings.TrimSpace(it.Description),
				URL:     it.Link,
				Score:   score,
			})
		}
	}
	return out, nil
}

// keywordOverlap returns the fraction of keywords present in text.
func keywordOverlap(text string, keywords []string) float64 {
	lower := strings.ToLower(text)
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

// Multi concatenates sources in order until k items are collected. Used to
// merge the search API with configured news feeds behind one Source.
type Multi []Source

// Search implements Source. A source error is only surfaced when no source
// produced anything.
func (m Multi) Search(ctx context.Context, query string, k int) ([]Item, error) {
	var out []Item
	var lastErr error
	for _, src := range m {
		if k > 0 && len(out) >= k {
			break
		}
		items, err := src.Search(ctx, query, k-len(out))
		if err != nil {
			lastErr = err
			continue
		}
		out = append(out, items...)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}
