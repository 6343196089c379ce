// Package news fetches recent market headlines used as retrieval context for
// recommendation generation.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://finnhub.io"
	defaultLimit   = 10

	// fallbackArticle stands in whenever the feed is unreachable so the
	// model always receives some context.
	fallbackArticle = "Index funds are great for passive income and long-term growth."
)

type article struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
}

// Fetcher pulls general-category news from Finnhub.
type Fetcher struct {
	http   *resty.Client
	apiKey string
	limit  int
}

// NewFetcher builds a fetcher. limit caps the number of articles; zero or
// negative selects the default.
func NewFetcher(apiKey string, limit int) *Fetcher {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Fetcher{
		http:   resty.New().SetBaseURL(defaultBaseURL),
		apiKey: apiKey,
		limit:  limit,
	}
}

// SetBaseURL overrides the feed endpoint, used by tests.
func (f *Fetcher) SetBaseURL(url string) {
	f.http.SetBaseURL(strings.TrimRight(url, "/"))
}

// Articles returns up to limit "headline. summary" strings. Any failure
// degrades to the fixed fallback document; it never returns an error or an
// empty slice.
func (f *Fetcher) Articles(ctx context.Context) []string {
	resp, err := f.http.R().
		SetContext(ctx).
		SetQueryParam("category", "general").
		SetQueryParam("token", f.apiKey).
		Get("/api/v1/news")
	if err != nil {
		log.Printf("[news] fetch failed: %v", err)
		return []string{fallbackArticle}
	}
	if resp.IsError() {
		log.Printf("[news] fetch failed: unexpected status %s", resp.Status())
		return []string{fallbackArticle}
	}

	var items []article
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		log.Printf("[news] unexpected response shape: %v", err)
		return []string{fallbackArticle}
	}
	if len(items) == 0 {
		return []string{fallbackArticle}
	}

	if len(items) > f.limit {
		items = items[:f.limit]
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		text := item.Headline
		if item.Summary != "" {
			text = fmt.Sprintf("%s. %s", item.Headline, item.Summary)
		}
		out = append(out, text)
	}
	return out
}
