package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/heartmarshall/laborhub-backend/internal/config"
	"github.com/heartmarshall/laborhub-backend/internal/domain"
	"github.com/heartmarshall/laborhub-backend/internal/service/livelist"
	"github.com/heartmarshall/laborhub-backend/internal/service/records"
)

// recordService defines the minimal interface needed by CollectionHandler.
type recordService interface {
	Create(ctx context.Context, collection string, fields map[string]any) (records.Item, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) (records.Item, error)
	Get(ctx context.Context, collection, id string) (records.Item, error)
	Delete(ctx context.Context, collection, id string) error
	Page(ctx context.Context, collection, cursor string, size int) (*records.PageResult[records.Item], error)
	LaborRows(ctx context.Context, cursor string, size int) (*records.PageResult[domain.LaborRow], error)
	Pager(collection string) (*livelist.StorePager[records.Item, *records.Item], error)
}

// CollectionHandler serves record CRUD, paging and live views.
type CollectionHandler struct {
	svc      recordService
	list     config.ListConfig
	upgrader *websocket.Upgrader
	log      *slog.Logger
}

// NewCollectionHandler creates a CollectionHandler.
func NewCollectionHandler(svc recordService, list config.ListConfig, allowedOrigins string, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{
		svc:      svc,
		list:     list,
		upgrader: newUpgrader(allowedOrigins),
		log:      logger.With("handler", "collections"),
	}
}

// List handles GET /v1/collections/{collection}?cursor=&limit=.
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := pageLimit(r, h.list.PageSize, h.list.MaxPageSize)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	page, err := h.svc.Page(r.Context(), r.PathValue("collection"), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Create handles POST /v1/collections/{collection}.
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := decodeBody(w, r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.svc.Create(r.Context(), r.PathValue("collection"), fields)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// Get handles GET /v1/collections/{collection}/{id}.
func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(r.Context(), r.PathValue("collection"), r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Update handles PATCH /v1/collections/{collection}/{id}.
func (h *CollectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := decodeBody(w, r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.svc.Update(r.Context(), r.PathValue("collection"), r.PathValue("id"), fields)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /v1/collections/{collection}/{id}.
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("collection"), r.PathValue("id")); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LaborRows handles GET /v1/labor-rows?cursor=&limit=.
func (h *CollectionHandler) LaborRows(w http.ResponseWriter, r *http.Request) {
	limit, err := pageLimit(r, h.list.PageSize, h.list.MaxPageSize)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	page, err := h.svc.LaborRows(r.Context(), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
