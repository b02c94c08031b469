package proxycache

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	c := &Cache{Dir: t.TempDir()}
	ctx := context.Background()
	body := []byte("<html><body>hello</body></html>")

	if err := c.Save(ctx, "https://example.com/page", "text/html; charset=utf-8", body); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, meta, err := c.Load(ctx, "https://example.com/page")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("body mismatch: %q", got)
	}
	if meta.ContentType != "text/html; charset=utf-8" {
		t.Fatalf("meta = %+v", meta)
	}

	// Unchanged URL keeps returning the same bytes.
	again, _, err := c.Load(ctx, "https://example.com/page")
	if err != nil || !bytes.Equal(again, body) {
		t.Fatalf("repeat load changed: %q, %v", again, err)
	}
}

func TestLoadMiss(t *testing.T) {
	c := &Cache{Dir: t.TempDir()}
	if _, _, err := c.Load(context.Background(), "https://example.com/absent"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestEquivalentURLsShareAnEntry(t *testing.T) {
	c := &Cache{Dir: t.TempDir()}
	ctx := context.Background()
	if err := c.Save(ctx, "https://Example.com/page?utm_source=mail#top", "text/html", []byte("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, _, err := c.Load(ctx, "https://example.com/page"); err != nil {
		t.Fatalf("normalized variant missed the cache: %v", err)
	}
}

func TestClearEmptiesCache(t *testing.T) {
	c := &Cache{Dir: t.TempDir()}
	ctx := context.Background()
	if err := c.Save(ctx, "https://example.com/a", "text/html", []byte("a")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, _, err := c.Load(ctx, "https://example.com/a"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss after clear, got %v", err)
	}
	// Directory must remain usable.
	if err := c.Save(ctx, "https://example.com/b", "text/html", []byte("b")); err != nil {
		t.Fatalf("save after clear: %v", err)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"HTTPS://Example.COM:443/Path?b=2&a=1", "https://example.com/Path?a=1&b=2"},
		{"http://example.com:80/p?gclid=x&q=1#frag", "http://example.com/p?q=1"},
		{"https://example.com/p", "https://example.com/p"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
