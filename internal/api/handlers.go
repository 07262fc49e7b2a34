package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inpe-cdsr/stac-api/internal/config"
	"github.com/inpe-cdsr/stac-api/internal/stac"
	"github.com/inpe-cdsr/stac-api/internal/store"
	"github.com/inpe-cdsr/stac-api/internal/translate"
)

// CatalogStore is the scene catalog capability the handlers depend on.
type CatalogStore interface {
	Collections(ctx context.Context) ([]store.CollectionRecord, error)
	Collection(ctx context.Context, id string) (*store.CollectionRecord, error)
	SearchScenes(ctx context.Context, f *store.Filter) (*store.SearchResult, error)
}

// Handlers contains all HTTP handlers for the STAC API.
type Handlers struct {
	cfg         *config.Config
	catalog     CatalogStore
	projector   *translate.Projector
	deletedMode store.DeletedMode
	logger      *slog.Logger
}

// NewHandlers creates a Handlers instance with the given dependencies.
func NewHandlers(
	cfg *config.Config,
	catalog CatalogStore,
	projector *translate.Projector,
	deletedMode store.DeletedMode,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		cfg:         cfg,
		catalog:     catalog,
		projector:   projector,
		deletedMode: deletedMode,
		logger:      logger,
	}
}

// LandingPage returns the API root links.
// GET /
func (h *Handlers) LandingPage(w http.ResponseWriter, r *http.Request) {
	base := h.cfg.STAC.BaseURI

	links := []*stac.Link{
		{Rel: "self", Href: base + "/", Type: "application/json"},
		{Rel: "conformance", Href: base + "/conformance", Type: "application/json"},
		{Rel: "data", Href: base + "/collections", Type: "application/json"},
		{Rel: "data", Href: base + "/stac", Type: "application/json"},
		{Rel: "search", Href: base + "/stac/search", Type: "application/geo+json"},
	}

	WriteJSON(w, http.StatusOK, links)
}

// Conformance returns the conformance classes supported by this API.
// GET /conformance
func (h *Handlers) Conformance(w http.ResponseWriter, r *http.Request) {
	conformance := &stac.Conformance{
		ConformsTo: stac.DefaultConformance(),
	}

	WriteJSON(w, http.StatusOK, conformance)
}

// Catalog returns the root STAC catalog with a child link per collection.
// GET /stac
func (h *Handlers) Catalog(w http.ResponseWriter, r *http.Request) {
	base := h.cfg.STAC.BaseURI

	records, err := h.catalog.Collections(r.Context())
	if err != nil {
		h.logger.Error("failed to list collections",
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "internal server error")
		return
	}

	catalog := stac.NewCatalog("inpe-cdsr-stac", h.cfg.STAC.Title, h.cfg.STAC.Description, h.cfg.STAC.Version)
	catalog.Links = append(catalog.Links,
		&stac.Link{Rel: "self", Href: base + "/stac", Type: "application/json"},
		&stac.Link{Rel: "collections", Href: base + "/collections", Type: "application/json"},
	)

	for _, rec := range records {
		catalog.Links = append(catalog.Links, &stac.Link{
			Rel:   "child",
			Href:  fmt.Sprintf("%s/collections/%s", base, rec.ID),
			Title: rec.ID,
			Type:  "application/json",
		})
	}

	WriteJSON(w, http.StatusOK, catalog)
}

// Collections returns the list of all available collections.
// GET /collections
func (h *Handlers) Collections(w http.ResponseWriter, r *http.Request) {
	records, err := h.catalog.Collections(r.Context())
	if err != nil {
		h.logger.Error("failed to list collections",
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "internal server error")
		return
	}

	docs := make([]*stac.CollectionDoc, 0, len(records))
	for i := range records {
		docs = append(docs, h.projector.ProjectCollection(&records[i]))
	}

	WriteJSON(w, http.StatusOK, &stac.CollectionsList{Collections: docs})
}

// Collection returns a single collection by ID, or {} when unknown.
// GET /collections/{collectionId}
func (h *Handlers) Collection(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	if collectionID == "" {
		WriteBadRequest(w, "collection ID is required")
		return
	}

	rec, err := h.catalog.Collection(r.Context(), collectionID)
	if err != nil {
		h.logger.Error("failed to fetch collection",
			slog.String("collection_id", collectionID),
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "internal server error")
		return
	}

	if rec == nil {
		WriteEmptyObject(w)
		return
	}

	WriteJSON(w, http.StatusOK, h.projector.ProjectCollection(rec))
}

// Items returns items from a specific collection.
// GET /collections/{collectionId}/items
func (h *Handlers) Items(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	if collectionID == "" {
		WriteBadRequest(w, "collection ID is required")
		return
	}

	searchReq, err := stac.ParseSearchRequest(r)
	if err != nil {
		WriteInvalidParameter(w, fmt.Sprintf("invalid search parameters: %v", err))
		return
	}

	// The path scopes the search to this collection regardless of any
	// collections query parameter.
	searchReq.Collections = []string{collectionID}
	h.applyPaging(searchReq)

	fc, ok := h.runSearch(w, r, searchReq)
	if !ok {
		return
	}

	base := h.cfg.STAC.BaseURI
	fc.AddLink("self", fmt.Sprintf("%s/collections/%s/items", base, collectionID), "application/geo+json")
	fc.AddLink("parent", fmt.Sprintf("%s/collections/%s", base, collectionID), "application/json")
	fc.AddLink("collection", base+"/collections", "application/json")
	fc.AddLink("root", base+"/stac", "application/json")

	WriteGeoJSON(w, http.StatusOK, fc)
}

// Item returns a single item by ID, or {} when unknown.
// GET /collections/{collectionId}/items/{itemId}
func (h *Handlers) Item(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	if itemID == "" {
		WriteBadRequest(w, "item ID is required")
		return
	}

	// Identifier search takes precedence over the collection scope, so the
	// lookup is by id alone.
	searchReq := &stac.SearchRequest{
		IDs:   []string{itemID},
		Page:  1,
		Limit: 1,
	}

	filter, err := store.BuildFilter(searchReq, h.deletedMode)
	if err != nil {
		WriteInvalidParameter(w, fmt.Sprintf("invalid search parameters: %v", err))
		return
	}

	result, err := h.catalog.SearchScenes(r.Context(), filter)
	if err != nil {
		h.logger.Error("scene search failed",
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "internal server error")
		return
	}

	if len(result.Scenes) == 0 {
		WriteEmptyObject(w)
		return
	}

	feature, err := h.projector.ProjectScene(&result.Scenes[0])
	if err != nil {
		h.logger.Error("scene projection failed",
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "internal server error")
		return
	}

	WriteGeoJSON(w, http.StatusOK, feature)
}

// Search performs a cross-collection search.
// GET/POST /stac/search
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var searchReq *stac.SearchRequest
	var err error

	if r.Method == http.MethodPost {
		searchReq, err = stac.ParseSearchRequestBody(r.Body)
		defer r.Body.Close()
	} else {
		searchReq, err = stac.ParseSearchRequest(r)
	}

	if err != nil {
		WriteInvalidParameter(w, fmt.Sprintf("invalid search request: %v", err))
		return
	}

	h.applyPaging(searchReq)

	fc, ok := h.runSearch(w, r, searchReq)
	if !ok {
		return
	}

	base := h.cfg.STAC.BaseURI
	fc.AddLink("self", base+"/stac/search", "application/geo+json")
	fc.AddLink("root", base+"/stac", "application/json")

	WriteGeoJSON(w, http.StatusOK, fc)
}

// Health returns the health status of the service.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "ok",
	}

	WriteJSON(w, http.StatusOK, response)
}

// runSearch builds the filter, executes it and projects the result page.
// On failure it writes the error response and returns ok=false.
func (h *Handlers) runSearch(w http.ResponseWriter, r *http.Request, searchReq *stac.SearchRequest) (*stac.FeatureCollection, bool) {
	filter, err := store.BuildFilter(searchReq, h.deletedMode)
	if err != nil {
		WriteInvalidParameter(w, fmt.Sprintf("invalid search parameters: %v", err))
		return nil, false
	}

	result, err := h.catalog.SearchScenes(r.Context(), filter)
	if err != nil {
		h.logger.Error("scene search failed",
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "internal server error")
		return nil, false
	}

	features := make([]*stac.Feature, 0, len(result.Scenes))
	for i := range result.Scenes {
		feature, err := h.projector.ProjectScene(&result.Scenes[i])
		if err != nil {
			h.logger.Error("scene projection failed",
				slog.String("scene_id", result.Scenes[i].ID),
				slog.String("error", err.Error()),
			)
			WriteInternalError(w, "internal server error")
			return nil, false
		}
		features = append(features, feature)
	}

	return h.projector.AssembleFeatureCollection(features, searchReq, result), true
}

// applyPaging fills the limit default and enforces the configured maximum.
func (h *Handlers) applyPaging(req *stac.SearchRequest) {
	if req.Limit == 0 {
		req.Limit = h.cfg.Features.DefaultLimit
	}
	if req.Limit > h.cfg.Features.MaxLimit {
		req.Limit = h.cfg.Features.MaxLimit
	}
	if req.Page < 1 {
		req.Page = 1
	}
}
