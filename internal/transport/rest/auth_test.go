package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

//go:generate moq -out token_verifier_mock_test.go -pkg rest . tokenVerifier

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthHandler_Verify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		header     string
		body       string
		verifyErr  error
		wantStatus int
		wantCode   string
		wantCalls  int
	}{
		{name: "header token", header: "Bearer good", wantStatus: http.StatusOK, wantCalls: 1},
		{name: "body token", body: `{"token":"good"}`, wantStatus: http.StatusOK, wantCalls: 1},
		{name: "expired", header: "Bearer old", verifyErr: fmt.Errorf("verify: %w", domain.ErrTokenExpired),
			wantStatus: http.StatusUnauthorized, wantCode: codeTokenExpired, wantCalls: 1},
		{name: "invalid", header: "Bearer bad", verifyErr: domain.ErrUnauthorized,
			wantStatus: http.StatusUnauthorized, wantCode: codeVerificationFailed, wantCalls: 1},
		{name: "directory down", header: "Bearer good", verifyErr: errors.New("connection refused"),
			wantStatus: http.StatusUnauthorized, wantCode: codeVerificationFailed, wantCalls: 1},
		{name: "missing token", wantStatus: http.StatusBadRequest},
		{name: "malformed body", body: `{`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verifier := &tokenVerifierMock{
				VerifyFunc: func(_ context.Context, token string) (*domain.Identity, error) {
					if tt.verifyErr != nil {
						return nil, tt.verifyErr
					}
					return &domain.Identity{ID: "u1", Email: "lan@example.com", Name: "Lan"}, nil
				},
			}
			h := NewAuthHandler(verifier, discardLogger())

			req := httptest.NewRequest(http.MethodPost, "/v1/auth/verify", strings.NewReader(tt.body))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.Verify(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := len(verifier.VerifyCalls()); got != tt.wantCalls {
				t.Errorf("Verify calls = %d, want %d", got, tt.wantCalls)
			}

			if tt.wantStatus == http.StatusOK {
				var got map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if got["uid"] != "u1" || got["email"] != "lan@example.com" || got["name"] != "Lan" {
					t.Errorf("profile = %v", got)
				}
				return
			}
			if tt.wantCode != "" {
				var got errorResponse
				if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if got.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestHandleError_Mapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{domain.NewValidationError("cccd", "must be 12 digits"), http.StatusBadRequest},
		{fmt.Errorf("get: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handleError(discardLogger(), rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
		if rec.Code != tt.want {
			t.Errorf("handleError(%v) status = %d, want %d", tt.err, rec.Code, tt.want)
		}
	}

	rec := httptest.NewRecorder()
	handleError(discardLogger(), rec, httptest.NewRequest(http.MethodGet, "/", nil),
		domain.NewValidationError("cccd", "must be 12 digits"))
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Fields) != 1 || body.Fields[0].Field != "cccd" {
		t.Errorf("fields = %+v", body.Fields)
	}
}
