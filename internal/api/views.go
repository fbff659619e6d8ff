package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/atlas-kb/atlas/internal/apperr"
	"github.com/atlas-kb/atlas/internal/canvas"
	"github.com/atlas-kb/atlas/internal/viewservice"
)

// ViewHandler holds canvas view route handlers.
type ViewHandler struct {
	views *viewservice.Service
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(views *viewservice.Service) *ViewHandler {
	return &ViewHandler{views: views}
}

// viewSelector parses the selector key from the URL wildcard,
// e.g. /views/folder:projects or /views/search%3Agophers.
func viewSelector(r *http.Request) (canvas.Selector, error) {
	key := wildcardPath(r)
	if key == "" {
		return canvas.Selector{}, errors.New("selector is required")
	}
	return canvas.ParseKey(key)
}

// GetView handles GET /api/views/*. It returns the reconciled document for
// the selector, building and persisting it as needed.
//
//	@Summary		Get the canvas view for a selector
//	@Tags			views
//	@Produce		json
//	@Param			selector	path		string	true	"Selector key, e.g. folder:projects"
//	@Success		200			{object}	ViewDocument
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{selector} [get]
func (h *ViewHandler) GetView(w http.ResponseWriter, r *http.Request) {
	sel, err := viewSelector(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	doc, err := h.views.BuildView(r.Context(), sel)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, doc)
	case errors.Is(err, apperr.ErrStaleBuild):
		// A newer build or user edit won; doc already holds the latest state.
		writeJSON(w, http.StatusOK, doc)
	case doc != nil:
		// Entity resolution failed; serve the last good document rather than
		// an empty canvas.
		slog.Warn("view served from last good document",
			slog.String("selector", sel.Key()), slog.String("error", err.Error()))
		writeJSON(w, http.StatusOK, doc)
	default:
		slog.Error("get view failed", slog.String("selector", sel.Key()), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// SaveView handles PUT /api/views/*. The body is the full document as edited
// by the client (moves, annotations, removals); it replaces the persisted one.
//
//	@Summary		Save a user-edited canvas view
//	@Tags			views
//	@Accept			json
//	@Produce		json
//	@Param			selector	path		string			true	"Selector key"
//	@Param			body		body		ViewDocument	true	"Full document"
//	@Success		200			{object}	ViewDocument
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{selector} [put]
func (h *ViewHandler) SaveView(w http.ResponseWriter, r *http.Request) {
	sel, err := viewSelector(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var doc canvas.ViewDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.views.SaveDocument(r.Context(), sel, &doc); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, &doc)
}

// DeleteView handles DELETE /api/views/*.
//
//	@Summary		Delete the persisted view for a selector
//	@Tags			views
//	@Param			selector	path	string	true	"Selector key"
//	@Success		204			"View deleted"
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{selector} [delete]
func (h *ViewHandler) DeleteView(w http.ResponseWriter, r *http.Request) {
	sel, err := viewSelector(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := h.views.DeleteView(r.Context(), sel); err != nil {
		slog.Error("delete view failed", slog.String("selector", sel.Key()), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListViews handles GET /api/views.
//
//	@Summary		List selector keys with a persisted view
//	@Tags			views
//	@Produce		json
//	@Success		200	{object}	ViewListResponse
//	@Security		BearerAuth
//	@Router			/views [get]
func (h *ViewHandler) ListViews(w http.ResponseWriter, r *http.Request) {
	keys, err := h.views.ListViews(r.Context())
	if err != nil {
		slog.Error("list views failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"views": keys,
	})
}
