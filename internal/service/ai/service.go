// Package ai generates structured investment recommendations with an
// Ark-backed chat model.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/advisorly/finassist/internal/config"
	"github.com/advisorly/finassist/internal/model/advice"
)

// NewsSource provides retrieval context for the model. Implementations must
// degrade internally; Articles never fails.
type NewsSource interface {
	Articles(ctx context.Context) []string
}

const systemPrompt = `You are a financial advice assistant. Given the user's question and
recent market headlines, respond with a single JSON object and nothing else, using
this shape (omit fields you have nothing for):

{"stability": ["..."], "high_growth": ["..."], "passive_income": ["..."], "risk_level": "...", "summary": "..."}

stability lists conservative instruments, high_growth lists aggressive assets,
passive_income lists income-producing ideas, risk_level is one of low/moderate/high,
and summary is one or two sentences of plain-language guidance.`

// Service runs the recommendation chain.
type Service struct {
	chain compose.Runnable[map[string]any, *schema.Message]
	news  NewsSource
}

// NewService compiles the prompt+model chain. news may be nil when no feed
// key is configured.
func NewService(ctx context.Context, cfg config.AIConfig, news NewsSource) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}\n\nRecent market context:\n{context}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile recommendation chain: %w", err)
	}

	return &Service{chain: runnable, news: news}, nil
}

// Recommend turns a free-text query into a structured recommendation.
func (s *Service) Recommend(ctx context.Context, query string) (*advice.Recommendation, error) {
	var articles []string
	if s.news != nil {
		articles = s.news.Articles(ctx)
	}

	input := map[string]any{
		"system":  systemPrompt,
		"query":   query,
		"context": strings.Join(articles, "\n"),
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to run recommendation chain: %w", err)
	}

	rec := ParseRecommendation(response.Content)
	log.Printf("[ai] generated recommendation, query_len=%d response_len=%d", len(query), len(response.Content))
	return rec, nil
}

// ParseRecommendation extracts the JSON object from model output. Models
// occasionally wrap the object in prose or code fences, so everything
// outside the outermost braces is ignored. Output that carries no decodable
// object degrades to a summary-only recommendation with the raw text.
func ParseRecommendation(content string) *advice.Recommendation {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		var rec advice.Recommendation
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &rec); err == nil {
			return &rec
		}
		log.Printf("[ai] model output not decodable as recommendation, degrading to summary")
	}

	return &advice.Recommendation{Summary: trimmed}
}
