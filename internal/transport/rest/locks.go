package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
	"github.com/heartmarshall/laborhub-backend/internal/service/lock"
)

// lockService defines the minimal interface needed by LockHandler.
type lockService interface {
	Acquire(ctx context.Context, recordType, recordID string, holder domain.Holder) bool
	Check(ctx context.Context, recordType, recordID string) *domain.Lock
	Extend(ctx context.Context, recordType, recordID, holderID string) bool
	Release(ctx context.Context, recordType, recordID string)
	OpenSession(ctx context.Context, recordType, recordID string, holder domain.Holder, opts lock.SessionOptions) *lock.Session
}

// LockHandler serves edit-lock endpoints.
type LockHandler struct {
	svc      lockService
	upgrader *websocket.Upgrader
	log      *slog.Logger
}

// NewLockHandler creates a LockHandler. allowedOrigins restricts WebSocket
// sessions the same way CORS restricts requests.
func NewLockHandler(svc lockService, allowedOrigins string, logger *slog.Logger) *LockHandler {
	return &LockHandler{
		svc:      svc,
		upgrader: newUpgrader(allowedOrigins),
		log:      logger.With("handler", "lock"),
	}
}

type lockResponse struct {
	Acquired bool         `json:"acquired"`
	Lock     *domain.Lock `json:"lock,omitempty"`
}

func lockTarget(r *http.Request) (recordType, recordID string) {
	return r.PathValue("recordType"), r.PathValue("recordID")
}

// Acquire handles POST /v1/locks/{recordType}/{recordID}.
// 409 carries the foreign lock so the caller can show who holds it.
func (h *LockHandler) Acquire(w http.ResponseWriter, r *http.Request) {
	holder, ok := callerHolder(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	recordType, recordID := lockTarget(r)

	acquired := h.svc.Acquire(r.Context(), recordType, recordID, holder)
	current := h.svc.Check(r.Context(), recordType, recordID)
	if !acquired {
		writeJSON(w, http.StatusConflict, lockResponse{Lock: current})
		return
	}
	writeJSON(w, http.StatusOK, lockResponse{Acquired: true, Lock: current})
}

// Check handles GET /v1/locks/{recordType}/{recordID}.
func (h *LockHandler) Check(w http.ResponseWriter, r *http.Request) {
	recordType, recordID := lockTarget(r)

	l := h.svc.Check(r.Context(), recordType, recordID)
	if l == nil {
		writeCode(w, http.StatusNotFound, "not_locked", "record is not locked")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// Extend handles PUT /v1/locks/{recordType}/{recordID}/extend.
func (h *LockHandler) Extend(w http.ResponseWriter, r *http.Request) {
	holder, ok := callerHolder(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	recordType, recordID := lockTarget(r)

	extended := h.svc.Extend(r.Context(), recordType, recordID, holder.ID)
	current := h.svc.Check(r.Context(), recordType, recordID)
	if !extended {
		writeJSON(w, http.StatusConflict, lockResponse{Lock: current})
		return
	}
	writeJSON(w, http.StatusOK, lockResponse{Acquired: true, Lock: current})
}

// Release handles DELETE /v1/locks/{recordType}/{recordID}. Release does not
// check ownership; any authenticated caller can force-unlock a record.
func (h *LockHandler) Release(w http.ResponseWriter, r *http.Request) {
	recordType, recordID := lockTarget(r)
	h.svc.Release(r.Context(), recordType, recordID)
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /v1/locks/{recordType}/{recordID}/session. The
// connection carries lock.SessionEvent messages for the lifetime of one
// editing screen; closing it releases the lock if the session owns it.
func (h *LockHandler) Session(w http.ResponseWriter, r *http.Request) {
	holder, ok := callerHolder(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	recordType, recordID := lockTarget(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WarnContext(r.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := h.svc.OpenSession(ctx, recordType, recordID, holder, lock.SessionOptions{})
	defer sess.Close()

	h.log.InfoContext(ctx, "edit session opened",
		slog.String("key", domain.LockKey(recordType, recordID)),
		slog.String("holder_id", holder.ID),
		slog.Bool("owned", sess.Owned()),
	)

	serveSocket(ctx, h.log, conn, sess.Events(), nil)
}
