package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(context.Background(), "test-key", "test-cx",
		option.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestClientParsesPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "golang" {
			t.Errorf("query param q=%q", got)
		}
		if got := r.URL.Query().Get("sort"); got != "date" {
			t.Errorf("query param sort=%q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"items": [
				{"htmlTitle": "<b>Go</b>", "link": "https://go.dev/doc/tutorial", "displayLink": "go.dev", "htmlSnippet": "snippet"},
				{"htmlTitle": "no link"}
			],
			"queries": {"nextPage": [{"startIndex": 11}]},
			"searchInformation": {"totalResults": "42", "searchTime": 0.31}
		}`)
	})

	page, err := c.Search(context.Background(), "golang", 1, "date")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(page.Results) != 1 {
		t.Fatalf("expected the linkless item to be dropped, got %d results", len(page.Results))
	}
	r := page.Results[0]
	if r.Link != "https://go.dev/doc/tutorial" || r.DisplayLink != "go.dev" {
		t.Fatalf("unexpected result: %+v", r)
	}
	if r.Breadcrumb != "go.dev > doc > tutorial" {
		t.Fatalf("unexpected breadcrumb: %q", r.Breadcrumb)
	}
	if page.NextStart != 11 || page.TotalResults != 42 || page.SearchTime != 0.31 {
		t.Fatalf("unexpected page metadata: %+v", page)
	}
}

func TestClientQuotaError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"code": 403, "message": "Quota exceeded",
			"errors": [{"reason": "dailyLimitExceeded", "message": "Quota exceeded"}]}}`)
	})

	_, err := c.Search(context.Background(), "golang", 1, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsQuota(err) {
		t.Fatalf("expected quota classification for %v", err)
	}
	if IsAuth(err) {
		t.Fatalf("quota error misclassified as auth: %v", err)
	}
}

func TestClientAuthError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"code": 403, "message": "API not enabled",
			"errors": [{"reason": "accessNotConfigured", "message": "API not enabled"}]}}`)
	})

	_, err := c.Search(context.Background(), "golang", 1, "")
	if !IsAuth(err) {
		t.Fatalf("expected auth classification for %v", err)
	}
	if IsQuota(err) {
		t.Fatalf("auth error misclassified as quota: %v", err)
	}
}

func TestNewClientRejectsEmptyCredentials(t *testing.T) {
	if _, err := NewClient(context.Background(), "", "cx"); err == nil {
		t.Fatal("expected error for empty api key")
	}
	if _, err := NewClient(context.Background(), "key", " "); err == nil {
		t.Fatal("expected error for empty engine id")
	}
}
