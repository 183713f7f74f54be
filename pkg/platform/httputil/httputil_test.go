package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "casedesk/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "bad_request" {
			t.Fatalf("expected error code bad_request, got %q", body["error"])
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})

	t.Run("workflow failures map to client statuses", func(t *testing.T) {
		cases := map[dErrors.Code]int{
			dErrors.CodeInvalidTransition:      http.StatusConflict,
			dErrors.CodeUnauthorizedActor:      http.StatusForbidden,
			dErrors.CodeIncompleteRequirements: http.StatusUnprocessableEntity,
			dErrors.CodeExpiredDocument:        http.StatusUnprocessableEntity,
			dErrors.CodeCaseNotApproved:        http.StatusConflict,
			dErrors.CodeNotFound:               http.StatusNotFound,
			dErrors.CodeConcurrentModification: http.StatusConflict,
		}
		for code, status := range cases {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(code, "x"))
			if w.Code != status {
				t.Fatalf("%s: expected status %d, got %d", code, status, w.Code)
			}
		}
	})
}

type sampleRequest struct {
	Name string `json:"name" validate:"required,max=8"`
	Risk string `json:"risk_level" validate:"omitempty,risklevel"`
}

func TestDecodeAndPrepare(t *testing.T) {
	decode := func(body string) (*sampleRequest, *httptest.ResponseRecorder) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		w := httptest.NewRecorder()
		req, _ := DecodeAndPrepare[sampleRequest](w, r, nil, r.Context(), "req-1")
		return req, w
	}

	t.Run("accepts valid body", func(t *testing.T) {
		req, _ := decode(`{"name":"acme","risk_level":"high"}`)
		if req == nil || req.Name != "acme" {
			t.Fatalf("expected decoded request, got %+v", req)
		}
	})

	t.Run("rejects unknown risk level with field name", func(t *testing.T) {
		req, w := decode(`{"name":"acme","risk_level":"extreme"}`)
		if req != nil || w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "risk_level") {
			t.Fatalf("expected field name in description, got %s", w.Body.String())
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		_, w := decode(`{"name":`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, w := decode(`{"name":"acme","extra":true}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}
