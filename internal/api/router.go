package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/instructionservice"
	"github.com/starford/ansuz/internal/preview"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *instructionservice.Service, previews *preview.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, previews)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Catalog browsing.
	r.Get("/instructions", h.ListInstructions)
	r.Get("/instructions/{filename}", h.GetInstruction)
	r.Post("/instructions/{filename}/select", h.SelectInstruction)
	r.Get("/tags", h.ListTags)
	r.Get("/categories", h.ListCategories)
	r.Get("/share", h.Share)

	// Favorites.
	r.Get("/favorites", h.ListFavorites)
	r.Post("/favorites/{filename}", h.ToggleFavorite)

	// Usage statistics.
	r.Get("/stats/top", h.TopUsed)

	// Quick-action tools.
	r.Get("/tools", h.ListTools)
	r.Get("/tools/pick", h.PickTool)
	r.Post("/tools/{name}/use", h.UseTool)

	// Preferences.
	r.Get("/prefs/{key}", h.GetPreference)
	r.Put("/prefs/{key}", h.SetPreference)

	// Reference-link previews.
	r.Get("/preview", h.Preview)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
