package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Lookup Lookup
	Stats  Stats
	// MCP is mounted at /sse when set.
	MCP    http.Handler
	Logger *slog.Logger
}

// NewRouter creates the HTTP router of the lookup service.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	h := &handlers{lookup: deps.Lookup, stats: deps.Stats}

	r.Get("/health", health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/lookup/hash", h.lookupHash)
		r.Post("/lookup/name", h.lookupName)
		r.Post("/lookup/fullname", h.lookupFullName)
		r.Post("/known/name", h.knownName)
		r.Post("/known/fullname", h.knownFullName)
		if deps.Stats != nil {
			r.Get("/stats", h.getStats)
		}
	})

	if deps.MCP != nil {
		r.Handle("/sse", deps.MCP)
		r.Handle("/sse/*", deps.MCP)
	}

	return r
}
