// Package recommend serves the recommendation endpoint.
package recommend

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/advisorly/finassist/internal/model/advice"
	"github.com/advisorly/finassist/pkg/utils"
)

// Generator turns a query into a recommendation payload.
type Generator interface {
	Recommend(ctx context.Context, query string) (*advice.Recommendation, error)
}

// TokenResolver maps a bearer token to a user id. Implementations sit in
// front of the external identity provider.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// Publisher receives a short notification after a successful exchange.
type Publisher interface {
	Publish(userID, update string)
}

// Handler is the HTTP surface over the generator.
type Handler struct {
	generator Generator
	resolver  TokenResolver
	publisher Publisher
}

// New builds the handler. resolver and publisher are optional; both must be
// present for push notifications to fire.
func New(generator Generator, resolver TokenResolver, publisher Publisher) *Handler {
	return &Handler{generator: generator, resolver: resolver, publisher: publisher}
}

// RegisterRoutes mounts the endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/recommend", h.handleRecommend)
}

func (h *Handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Query string `json:"query"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	query := strings.TrimSpace(payload.Query)
	if query == "" {
		utils.RespondError(w, http.StatusBadRequest, "query is required")
		return
	}

	rec, err := h.generator.Recommend(r.Context(), query)
	if err != nil {
		log.Printf("[recommend] generation failed: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "recommendation unavailable")
		return
	}

	utils.RespondJSON(w, http.StatusOK, advice.Response{Recommendation: rec})

	h.notify(r)
}

// notify publishes a live update for the requesting user when the bearer
// token resolves to one. Failures only affect the push channel, never the
// response.
func (h *Handler) notify(r *http.Request) {
	if h.resolver == nil || h.publisher == nil {
		return
	}

	token := bearerToken(r)
	if token == "" {
		return
	}

	userID, err := h.resolver.Resolve(r.Context(), token)
	if err != nil || userID == "" {
		if err != nil {
			log.Printf("[recommend] token resolve failed: %v", err)
		}
		return
	}

	h.publisher.Publish(userID, "Your latest recommendation is ready.")
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
