package preview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestHTTPFetcherSetsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := &HTTPFetcher{Client: srv.Client(), UserAgent: "searchdeck/1.0"}
	body, ct, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotUA != "searchdeck/1.0" {
		t.Fatalf("user agent = %q", gotUA)
	}
	if !strings.Contains(string(body), "ok") || !strings.Contains(ct, "text/html") {
		t.Fatalf("body=%q ct=%q", body, ct)
	}
}

func TestHTTPFetcherRetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	f := &HTTPFetcher{Client: srv.Client(), MaxAttempts: 3}
	body, _, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "recovered" {
		t.Fatalf("body = %q", body)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestHTTPFetcherNoRetryOn404(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := &HTTPFetcher{Client: srv.Client(), MaxAttempts: 3}
	if _, _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("404 should not be retried, calls = %d", calls.Load())
	}
}

func TestHTTPFetcherDecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "café" in latin-1
		w.Write([]byte{'c', 'a', 'f', 0xe9})
	}))
	defer srv.Close()

	f := &HTTPFetcher{Client: srv.Client()}
	body, ct, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "café" {
		t.Fatalf("body = %q, want utf-8 café", body)
	}
	// The content type must follow the decoded bytes, or clients re-decode
	// the UTF-8 body as latin-1.
	if ct != "text/html; charset=utf-8" {
		t.Fatalf("content type = %q, want charset=utf-8", ct)
	}
}

func TestUTF8ContentType(t *testing.T) {
	cases := []struct{ in, want string }{
		{"text/html; charset=iso-8859-1", "text/html; charset=utf-8"},
		{"text/plain", "text/plain; charset=utf-8"},
		{"application/xhtml+xml; charset=Shift_JIS", "application/xhtml+xml; charset=utf-8"},
		{"text/html; charset", "text/html; charset=utf-8"},
	}
	for _, c := range cases {
		if got := utf8ContentType(c.in); got != c.want {
			t.Errorf("utf8ContentType(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHTTPFetcherRejectsNonHTTP(t *testing.T) {
	f := &HTTPFetcher{}
	if _, _, err := f.Fetch(context.Background(), "ftp://example.com/file"); err == nil {
		t.Fatal("expected scheme error")
	}
}
