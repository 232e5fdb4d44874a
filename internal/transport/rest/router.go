package rest

import (
	"net/http"

	"github.com/heartmarshall/laborhub-backend/internal/transport/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Health      *HealthHandler
	Auth        *AuthHandler
	Locks       *LockHandler
	Collections *CollectionHandler
	Banned      *BannedHandler
	// Metrics serves the Prometheus exposition format. Optional.
	Metrics http.Handler
}

type router struct {
	mux     *http.ServeMux
	protect middleware.Middleware
	metrics *middleware.HTTPMetrics
}

// NewRouter mounts all routes. protect wraps every /v1 route except token
// verification, which must see expired tokens itself.
func NewRouter(h Handlers, protect middleware.Middleware, metrics *middleware.HTTPMetrics) *http.ServeMux {
	rt := &router{mux: http.NewServeMux(), protect: protect, metrics: metrics}

	rt.public("GET /live", h.Health.Live)
	rt.public("GET /ready", h.Health.Ready)
	rt.public("GET /health", h.Health.Health)
	if h.Metrics != nil {
		rt.mux.Handle("GET /metrics", h.Metrics)
	}

	rt.public("POST /v1/auth/verify", h.Auth.Verify)

	rt.protected("POST /v1/locks/{recordType}/{recordID}", h.Locks.Acquire)
	rt.protected("GET /v1/locks/{recordType}/{recordID}", h.Locks.Check)
	rt.protected("PUT /v1/locks/{recordType}/{recordID}/extend", h.Locks.Extend)
	rt.protected("DELETE /v1/locks/{recordType}/{recordID}", h.Locks.Release)
	rt.protected("GET /v1/locks/{recordType}/{recordID}/session", h.Locks.Session)

	rt.protected("GET /v1/collections/{collection}", h.Collections.List)
	rt.protected("POST /v1/collections/{collection}", h.Collections.Create)
	rt.protected("GET /v1/collections/{collection}/view", h.Collections.View)
	rt.protected("GET /v1/collections/{collection}/{id}", h.Collections.Get)
	rt.protected("PATCH /v1/collections/{collection}/{id}", h.Collections.Update)
	rt.protected("DELETE /v1/collections/{collection}/{id}", h.Collections.Delete)
	rt.protected("GET /v1/labor-rows", h.Collections.LaborRows)

	rt.protected("POST /v1/banned-workers", h.Banned.Create)
	rt.protected("GET /v1/banned-workers", h.Banned.Lookup)
	rt.protected("GET /v1/banned-workers/{id}", h.Banned.Get)

	return rt.mux
}

func (rt *router) public(pattern string, fn http.HandlerFunc) {
	rt.mux.Handle(pattern, rt.metrics.Route(pattern, fn))
}

func (rt *router) protected(pattern string, fn http.HandlerFunc) {
	var h http.Handler = fn
	if rt.protect != nil {
		h = rt.protect(h)
	}
	rt.mux.Handle(pattern, rt.metrics.Route(pattern, h))
}
