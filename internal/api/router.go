package api

import (
	"net/http"

	"github.com/atlas-kb/atlas/internal/noteservice"
	"github.com/atlas-kb/atlas/internal/viewservice"
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, views *viewservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	vh := NewViewHandler(views)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.UpdateNote)
	r.Delete("/notes/*", h.DeleteNote)

	// Search and tags.
	r.Get("/search", h.Search)
	r.Get("/tags", h.Tags)

	// Canvas views. The wildcard is the selector key (folder:…, search:…,
	// tag:…, canvas:…), optionally URL-escaped.
	r.Get("/views", vh.ListViews)
	r.Get("/views/*", vh.GetView)
	r.Put("/views/*", vh.SaveView)
	r.Delete("/views/*", vh.DeleteView)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
