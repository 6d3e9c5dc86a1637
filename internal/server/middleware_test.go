package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voicematch/internal/logging"
	"voicematch/internal/services"
)

func TestRecoverReturns500(t *testing.T) {
	handler := withRequestContext(logging.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal server error") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRequestIDPropagatesToContext(t *testing.T) {
	var seen string
	handler := withRequestContext(logging.NewNop(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = services.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("generated id %q not echoed (%q)", seen, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "has spaces")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen == "has spaces" {
		t.Fatal("expected invalid client id to be replaced")
	}
}

func TestValidRequestID(t *testing.T) {
	cases := map[string]bool{
		"":                      false,
		"abc-123":               true,
		"with space":            false,
		strings.Repeat("a", 65): false,
		"tab\tchar":             false,
	}
	for id, want := range cases {
		if got := validRequestID(id); got != want {
			t.Fatalf("validRequestID(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	next := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

	open := authMiddleware("", next)
	rec := httptest.NewRecorder()
	open(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("open status = %d", rec.Code)
	}

	guarded := authMiddleware("tok", next)
	for header, want := range map[string]int{
		"":            http.StatusUnauthorized,
		"Basic tok":   http.StatusUnauthorized,
		"Bearer nope": http.StatusUnauthorized,
		"Bearer tok":  http.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		guarded(rec, req)
		if rec.Code != want {
			t.Fatalf("header %q: status = %d, want %d", header, rec.Code, want)
		}
	}
}
