package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
	"github.com/heartmarshall/laborhub-backend/internal/service/livelist"
	"github.com/heartmarshall/laborhub-backend/internal/service/records"
)

// Client message types on a live view.
const (
	msgLoadMore = "load_more"
	msgFilter   = "filter"
	msgReload   = "reload"
)

type viewRequest struct {
	Type  string `json:"type"`
	Field string `json:"field,omitempty"`
	Query string `json:"query,omitempty"`
}

type viewState struct {
	Type           string         `json:"type"`
	Items          []records.Item `json:"items"`
	Held           int            `json:"held"`
	HasMore        bool           `json:"hasMore"`
	LoadingInitial bool           `json:"loadingInitial"`
	LoadingMore    bool           `json:"loadingMore"`
	Error          string         `json:"error,omitempty"`
}

func toViewState(st livelist.State[records.Item]) viewState {
	out := viewState{
		Type:           "state",
		Items:          st.Visible,
		Held:           len(st.Items),
		HasMore:        st.HasMore,
		LoadingInitial: st.LoadingInitial,
		LoadingMore:    st.LoadingMore,
	}
	if out.Items == nil {
		out.Items = []records.Item{}
	}
	if st.Err != nil {
		out.Error = "failed to load records"
	}
	return out
}

// latest is a one-slot mailbox that keeps only the newest value.
type latest[M any] struct {
	mu sync.Mutex
	ch chan M
}

func newLatest[M any]() *latest[M] {
	return &latest[M]{ch: make(chan M, 1)}
}

func (l *latest[M]) put(v M) {
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-l.ch:
	default:
	}
	l.ch <- v
}

// View handles GET /v1/collections/{collection}/view. The server keeps a
// paginated list for the connection, merges live changes into it and pushes
// the visible state after every change. Clients send load_more, filter and
// reload messages.
func (h *CollectionHandler) View(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	pager, err := h.svc.Pager(collection)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WarnContext(r.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	list := livelist.New[records.Item](h.log, pager, livelist.Options{
		PageSize:          h.list.PageSize,
		BackfillThreshold: h.list.BackfillThreshold,
		MaxBackfillPages:  h.list.MaxBackfillPages,
	})
	out := newLatest[viewState]()
	list.OnChange(func(st livelist.State[records.Item]) { out.put(toViewState(st)) })

	// Snapshots that arrive before the first page loads are parked by the
	// synchronizer and merged once a load succeeds.
	go func() {
		_ = list.LoadInitial(ctx)
		live, err := pager.Live(ctx)
		if err != nil {
			h.log.WarnContext(ctx, "live subscription failed",
				slog.String("collection", collection),
				slog.String("error", err.Error()),
			)
			return
		}
		list.Follow(ctx, live)
	}()

	serveSocket(ctx, h.log, conn, out.ch, func(ctx context.Context, msg []byte) {
		h.handleViewMessage(ctx, list, msg)
	})
}

func (h *CollectionHandler) handleViewMessage(ctx context.Context, s *livelist.Synchronizer[records.Item], msg []byte) {
	var req viewRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		h.log.DebugContext(ctx, "ignoring malformed view message", slog.String("error", err.Error()))
		return
	}

	switch req.Type {
	case msgLoadMore:
		if err := s.LoadMore(ctx); err == nil {
			_ = s.Backfill(ctx)
		}
	case msgReload:
		_ = s.LoadInitial(ctx)
	case msgFilter:
		s.SetFilter(matchField(req.Field, req.Query))
		_ = s.Backfill(ctx)
	default:
		h.log.DebugContext(ctx, "ignoring unknown view message", slog.String("type", req.Type))
	}
}

// matchField returns a case-insensitive substring filter on field, or on
// every top-level value when field is empty. An empty query matches all.
func matchField(field, query string) func(records.Item) bool {
	query = domain.NormalizeSearchText(query)
	if query == "" {
		return nil
	}
	return func(item records.Item) bool {
		if field != "" {
			return domain.ContainsText(item[field], query)
		}
		for _, v := range item {
			if domain.ContainsText(v, query) {
				return true
			}
		}
		return false
	}
}
