package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestShortenerLifecycle(t *testing.T) {
	s := newShortener(10)

	steps := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/0", http.StatusNotFound},
		{http.MethodGet, "/0/stats", http.StatusNotFound},
		{http.MethodPost, "/", http.StatusBadRequest},
		{http.MethodPost, "/?url=17", http.StatusOK},
		{http.MethodGet, "/0", http.StatusTemporaryRedirect},
		{http.MethodGet, "/0/stats", http.StatusOK},
		{http.MethodPut, "/0?url=99", http.StatusOK},
		{http.MethodPut, "/0", http.StatusBadRequest},
		{http.MethodPut, "/5?url=1", http.StatusBadRequest},
		{http.MethodDelete, "/0", http.StatusOK},
		{http.MethodDelete, "/0", http.StatusBadRequest},
		{http.MethodGet, "/abc", http.StatusNotFound},
		{http.MethodGet, "/1/other", http.StatusNotFound},
	}
	for _, step := range steps {
		if got := do(t, s, step.method, step.target).Code; got != step.want {
			t.Fatalf("%s %s = %d, want %d", step.method, step.target, got, step.want)
		}
	}
}

func TestShortenerRedirectTarget(t *testing.T) {
	s := newShortener(10)
	do(t, s, http.MethodPost, "/?url=https://example.com/a")
	rec := do(t, s, http.MethodGet, "/0")
	if loc := rec.Header().Get("Location"); loc != "https://example.com/a" {
		t.Fatalf("Location = %q", loc)
	}
}

func TestShortenerIDsWrap(t *testing.T) {
	s := newShortener(1)
	for i := 0; i < 3; i++ {
		do(t, s, http.MethodPost, "/?url=x")
	}
	if s.next != 1 {
		t.Fatalf("next = %d, want 1 after wrapping", s.next)
	}
}

func TestShortenerInjectedFailures(t *testing.T) {
	s := newShortener(10)
	s.failRate = 1
	if got := do(t, s, http.MethodPost, "/?url=x").Code; got != http.StatusInternalServerError {
		t.Fatalf("expected injected 500, got %d", got)
	}
}
