// Package client holds the outbound collaborator clients: the HTTP
// recommendation endpoint and the websocket live-update channel.
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/advisorly/finassist/internal/model/advice"
)

const defaultRecommendTimeout = 30 * time.Second

// RecommendClient calls the recommendation endpoint. It implements
// session.Recommender; every failure mode (transport, timeout, status,
// decode) comes back as a plain error for the store to absorb.
type RecommendClient struct {
	http *resty.Client
}

// NewRecommendClient builds a client for the service at baseURL. A
// non-positive timeout selects the default; there is no automatic retry.
func NewRecommendClient(baseURL string, timeout time.Duration) *RecommendClient {
	if timeout <= 0 {
		timeout = defaultRecommendTimeout
	}

	httpc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout)

	return &RecommendClient{http: httpc}
}

// Recommend posts the query with the caller's bearer token. A blank token
// omits the Authorization header entirely.
func (c *RecommendClient) Recommend(ctx context.Context, query, token string) (*advice.Recommendation, error) {
	var out advice.Response

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"query": query}).
		SetResult(&out).
		ForceContentType("application/json")
	if token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}

	resp, err := req.Post("/recommend")
	if err != nil {
		return nil, fmt.Errorf("recommend request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("recommend request: unexpected status %s", resp.Status())
	}

	return out.Recommendation, nil
}
