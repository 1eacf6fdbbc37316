package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-meta/pkg/simplemeta"
	"github.com/tendant/simple-meta/pkg/simplemeta/metatags"
)

// MetaResponse is the response body for a resolved meta bag
type MetaResponse struct {
	URI       string          `json:"uri,omitempty"`
	ElementID string          `json:"element_id,omitempty"`
	Meta      *simplemeta.Bag `json:"meta"`
}

// MetaHandler handles HTTP requests for meta resolution
type MetaHandler struct {
	resolver simplemeta.Resolver
	store    simplemeta.ElementStore
	tags     *metatags.Renderer
	auth     *jwtauth.JWTAuth
}

// NewMetaHandler creates a new meta handler. A nil auth leaves cache
// purging unauthenticated.
func NewMetaHandler(resolver simplemeta.Resolver, store simplemeta.ElementStore, tags *metatags.Renderer, auth *jwtauth.JWTAuth) *MetaHandler {
	return &MetaHandler{
		resolver: resolver,
		store:    store,
		tags:     tags,
		auth:     auth,
	}
}

// Routes returns the routes for meta resolution
func (h *MetaHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/meta", h.GetMeta)
	r.Get("/meta/html", h.GetMetaHTML)
	r.Get("/elements/{id}/meta", h.GetElementMeta)

	r.Group(func(r chi.Router) {
		if h.auth != nil {
			r.Use(jwtauth.Verifier(h.auth))
			r.Use(jwtauth.Authenticator)
		}
		r.Delete("/cache/{id}", h.PurgeCache)
	})

	return r
}

// resolveURI resolves the bag of the page at the uri query parameter
func (h *MetaHandler) resolveURI(r *http.Request) (string, *simplemeta.Bag, error) {
	uri := r.URL.Query().Get("uri")
	ctx := simplemeta.WithRequestURI(r.Context(), uri)

	var override *simplemeta.Override
	if profile := r.URL.Query().Get("profile"); profile != "" {
		override = profileOverride(profile)
	}

	bag, err := h.resolver.Resolve(ctx, simplemeta.Context{"uri": uri}, override)
	return uri, bag, err
}

// profileOverride forces a field profile. The cache is keyed by element
// only, so forced resolutions neither read nor store cached bags.
func profileOverride(profile string) *simplemeta.Override {
	return &simplemeta.Override{
		Profile: profile,
		Config:  map[string]any{"cacheEnabled": false},
	}
}

// GetMeta resolves the meta bag of the page at ?uri=
func (h *MetaHandler) GetMeta(w http.ResponseWriter, r *http.Request) {
	uri, bag, err := h.resolveURI(r)
	if err != nil {
		slog.Error("Failed to resolve meta", "uri", uri, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	render.JSON(w, r, MetaResponse{URI: uri, Meta: bag})
}

// GetMetaHTML renders the meta tags of the page at ?uri=
func (h *MetaHandler) GetMetaHTML(w http.ResponseWriter, r *http.Request) {
	uri, bag, err := h.resolveURI(r)
	if err != nil {
		slog.Error("Failed to resolve meta", "uri", uri, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	html, err := h.tags.Render(r.Context(), bag)
	if err != nil {
		slog.Error("Failed to render meta tags", "uri", uri, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	render.HTML(w, r, html)
}

// element loads the element named by the id route parameter, writing the
// error response itself when it cannot
func (h *MetaHandler) element(w http.ResponseWriter, r *http.Request) (simplemeta.Element, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		slog.Error("Invalid element ID", "element_id", idStr, "error", err)
		http.Error(w, "Invalid element ID", http.StatusBadRequest)
		return nil, false
	}

	el, err := h.store.Element(r.Context(), id)
	if err != nil {
		if errors.Is(err, simplemeta.ErrElementNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return nil, false
		}
		slog.Error("Failed to get element", "element_id", idStr, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return el, true
}

// GetElementMeta resolves the meta bag of an element by id
func (h *MetaHandler) GetElementMeta(w http.ResponseWriter, r *http.Request) {
	el, ok := h.element(w, r)
	if !ok {
		return
	}

	override := &simplemeta.Override{Element: el}
	if profile := r.URL.Query().Get("profile"); profile != "" {
		override = profileOverride(profile)
		override.Element = el
	}
	bag, err := h.resolver.Resolve(r.Context(), simplemeta.Context{}, override)
	if err != nil {
		slog.Error("Failed to resolve meta", "element_id", el.ID().String(), "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	render.JSON(w, r, MetaResponse{ElementID: el.ID().String(), Meta: bag})
}

// PurgeCache drops the cached bag of an element
func (h *MetaHandler) PurgeCache(w http.ResponseWriter, r *http.Request) {
	el, ok := h.element(w, r)
	if !ok {
		return
	}

	if err := h.resolver.Invalidate(r.Context(), el); err != nil {
		slog.Error("Failed to purge cached meta", "element_id", el.ID().String(), "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Cached meta purged", "element_id", el.ID().String())
	w.WriteHeader(http.StatusNoContent)
}
