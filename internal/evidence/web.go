package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"prospect/internal/config"
)

// WebClient queries a Tavily-style JSON search API.
type WebClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewWebClient builds a web search source from config.
func NewWebClient(cfg config.Search) *WebClient {
	return &WebClient{
		BaseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		APIKey:  cfg.APIKey(),
		HTTP:    &http.Client{Timeout: cfg.Timeout},
	}
}

type searchRequest struct {
	APIKey     string `json:"api_key,omitempty"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search implements Source.
func (c *WebClient) Search(ctx context.Context, query string, k int) ([]Item, error) {
	payload, err := json.Marshal(searchRequest{APIKey: c.APIKey, Query: query, MaxResults: k})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "marshal search request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "new search request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "do search request")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, pkgerrors.Errorf("search %s: %s", resp.Status, string(body))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, pkgerrors.Wrap(err, "decode search response")
	}

	items := make([]Item, 0, len(sr.Results))
	for _, r := range sr.Results {
		if r.URL == "" {
			continue
		}
		items = append(items, Item{
			ID:      r.URL,
			Title:   r.Title,
			Snippet: r.Content,
			URL:     r.URL,
			Score:   r.Score,
		})
		if k > 0 && len(items) >= k {
			break
		}
	}
	return items, nil
}
