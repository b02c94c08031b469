package search

import (
	"strings"
	"testing"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
)

func TestTrailFromURL(t *testing.T) {
	cases := []struct {
		link string
		want string
	}{
		{"https://example.com/docs/guide/install.html?ref=nav", "example.com > docs > guide > install"},
		{"http://example.com/shop/item.php", "example.com > shop > item"},
		{"https://example.com", "example.com"},
		{"https://example.com/", "example.com"},
		{
			"https://example.com/" + strings.Repeat("x", 40) + "/page",
			"example.com > ... > page",
		},
	}
	for _, tc := range cases {
		if got := trailFromURL(tc.link); got != tc.want {
			t.Fatalf("trailFromURL(%q) = %q, want %q", tc.link, got, tc.want)
		}
	}
}

func TestTrailFromURLCapsLength(t *testing.T) {
	segs := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		segs = append(segs, "segmentname")
	}
	got := trailFromURL("https://example.com/" + strings.Join(segs, "/"))
	if len(got) != maxTrailLen+3 {
		t.Fatalf("trail length %d, want %d", len(got), maxTrailLen+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("long trail should be elided: %q", got)
	}
}

func TestBreadcrumbPrefersPagemap(t *testing.T) {
	item := &customsearch.Result{
		Link:        "https://docs.example.com/a/b/c",
		DisplayLink: "docs.example.com",
		Pagemap: googleapi.RawMessage(`{"listitem": [
			{"name": "Guides"}, {"name": "Setup"}, {"name": "Current Page"}
		]}`),
	}
	got := breadcrumb(item)
	if got != "docs.example.com > Guides > Setup" {
		t.Fatalf("breadcrumb = %q", got)
	}
}

func TestBreadcrumbFallsBackWithoutListitem(t *testing.T) {
	item := &customsearch.Result{
		Link:    "https://example.com/a/b",
		Pagemap: googleapi.RawMessage(`{"metatags": [{}]}`),
	}
	if got := breadcrumb(item); got != "example.com > a > b" {
		t.Fatalf("breadcrumb = %q", got)
	}
}
