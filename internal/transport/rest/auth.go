package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// Verification failure codes returned by POST /v1/auth/verify.
const (
	codeTokenExpired       = "token_expired"
	codeVerificationFailed = "verification_failed"
)

// tokenVerifier defines the minimal interface needed by AuthHandler.
type tokenVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

// AuthHandler serves the token verification endpoint.
type AuthHandler struct {
	svc tokenVerifier
	log *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc tokenVerifier, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: logger.With("handler", "auth")}
}

type verifyRequest struct {
	Token string `json:"token"`
}

// Verify handles POST /v1/auth/verify. The token is read from the
// Authorization header or, when absent, from the JSON body.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := extractBearer(r)
	if token == "" && r.ContentLength != 0 {
		var req verifyRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		token = strings.TrimSpace(req.Token)
	}
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}

	ident, err := h.svc.Verify(r.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			writeCode(w, http.StatusUnauthorized, codeTokenExpired, "token expired")
			return
		}
		if !errors.Is(err, domain.ErrUnauthorized) {
			h.log.ErrorContext(r.Context(), "token verification failed", slog.String("error", err.Error()))
		}
		writeCode(w, http.StatusUnauthorized, codeVerificationFailed, "verification failed")
		return
	}

	writeJSON(w, http.StatusOK, ident)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
