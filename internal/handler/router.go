package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/advisorly/finassist/internal/handler/recommend"
	"github.com/advisorly/finassist/internal/handler/updates"
	middlewarePkg "github.com/advisorly/finassist/internal/middleware"
	"github.com/advisorly/finassist/pkg/utils"
)

// NewRouter wires HTTP routes to core services. generator may be nil when no
// model credentials are configured; the endpoint then reports unavailable.
func NewRouter(generator recommend.Generator, resolver recommend.TokenResolver, hub *updates.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthcheck", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	})

	if generator != nil {
		recommendHandler := recommend.New(generator, resolver, hub)
		recommendHandler.RegisterRoutes(r)
	} else {
		r.Post("/recommend", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondError(w, http.StatusServiceUnavailable, "recommendation service unavailable")
		})
	}

	updatesHandler := updates.NewHandler(hub)
	updatesHandler.RegisterRoutes(r)

	return r
}
