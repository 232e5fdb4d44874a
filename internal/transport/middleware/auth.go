package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
	"github.com/heartmarshall/laborhub-backend/pkg/ctxutil"
)

type tokenVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

// Auth verifies the bearer token when one is present and stores the caller's
// id and profile in the request context. Requests without a token pass
// through anonymously; handlers that need a caller check ctxutil themselves.
// Expired and otherwise invalid tokens are both rejected with 401.
func Auth(verifier tokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r) // Anonymous
				return
			}
			ident, err := verifier.Verify(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			noteUserID(r.Context(), ident.ID)
			ctx := ctxutil.WithCaller(r.Context(), ctxutil.Caller{ID: ident.ID, Name: ident.Name, Email: ident.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that Auth left anonymous.
func RequireAuth() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ctxutil.UserIDFromCtx(r.Context()); !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractBearerToken reads the Authorization header. Browsers cannot set
// headers on WebSocket handshakes, so upgrade requests may pass the token
// in the access_token query parameter instead.
func extractBearerToken(r *http.Request) string {
	if r.Header.Get("Authorization") == "" && isWebSocketUpgrade(r) {
		return strings.TrimSpace(r.URL.Query().Get("access_token"))
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
