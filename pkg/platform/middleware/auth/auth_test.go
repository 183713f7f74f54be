package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"casedesk/pkg/domain"
	"casedesk/pkg/requestcontext"
)

type stubValidator struct {
	actor domain.Actor
	err   error
}

func (s stubValidator) ValidateActor(string) (domain.Actor, error) {
	return s.actor, s.err
}

func TestRequireActor(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var seen domain.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Actor(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name      string
		header    string
		validator stubValidator
		status    int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer bad", validator: stubValidator{err: errors.New("bad")}, status: http.StatusUnauthorized},
		{name: "unknown role", header: "Bearer ok", validator: stubValidator{actor: domain.Actor{ID: "u-1", Role: "AUDITOR"}}, status: http.StatusForbidden},
		{name: "valid", header: "Bearer ok", validator: stubValidator{actor: domain.Actor{ID: "u-1", Role: domain.RoleRM}}, status: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = domain.Actor{}
			req := httptest.NewRequest(http.MethodGet, "/v1/cases", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			RequireActor(tt.validator, logger)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, "u-1", seen.ID)
			} else {
				assert.True(t, seen.IsZero())
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}
