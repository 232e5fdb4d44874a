package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
	"github.com/heartmarshall/laborhub-backend/internal/service/banned"
)

// bannedService defines the minimal interface needed by BannedHandler.
type bannedService interface {
	Create(ctx context.Context, input banned.CreateInput) (*banned.CreateResult, error)
	Get(ctx context.Context, id string) (*domain.BannedWorker, error)
	FindByCCCD(ctx context.Context, cccd string) (*domain.BannedWorker, error)
}

// BannedHandler serves banned-worker endpoints.
type BannedHandler struct {
	svc bannedService
	log *slog.Logger
}

// NewBannedHandler creates a BannedHandler.
func NewBannedHandler(svc bannedService, logger *slog.Logger) *BannedHandler {
	return &BannedHandler{svc: svc, log: logger.With("handler", "banned")}
}

// Create handles POST /v1/banned-workers. A report for a CCCD that is
// already banned is merged into the existing record and answered with 200;
// a new record is answered with 201.
func (h *BannedHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input banned.CreateInput
	if err := decodeBody(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Create(r.Context(), input)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Merged {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// Get handles GET /v1/banned-workers/{id}.
func (h *BannedHandler) Get(w http.ResponseWriter, r *http.Request) {
	worker, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, worker)
}

// Lookup handles GET /v1/banned-workers?cccd=.
func (h *BannedHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	cccd := r.URL.Query().Get("cccd")
	if cccd == "" {
		handleError(h.log, w, r, domain.NewValidationError("cccd", "required"))
		return
	}

	worker, err := h.svc.FindByCCCD(r.Context(), cccd)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, worker)
}
