package preview

import (
	"net/url"
	"strings"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestRewriteStripsScripts(t *testing.T) {
	body := []byte(`<html><head><script src="/app.js"></script></head>
		<body><p>text</p><script>alert(1)</script></body></html>`)
	out, err := Rewrite(body, mustParse(t, "https://example.com/"), "/proxy", nil)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if strings.Contains(string(out), "script") {
		t.Fatalf("scripts not removed:\n%s", out)
	}
	if !strings.Contains(string(out), "<p>text</p>") {
		t.Fatalf("content lost:\n%s", out)
	}
}

func TestRewriteAbsolutizesRelativeURLs(t *testing.T) {
	body := []byte(`<html><body>
		<img src="/logo.png">
		<a href="docs/page">doc</a>
		<form action="../submit"></form>
	</body></html>`)
	out, err := Rewrite(body, mustParse(t, "https://example.com/a/b/"), "/proxy", nil)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	s := string(out)
	for _, want := range []string{
		`src="https://example.com/logo.png"`,
		`href="https://example.com/a/b/docs/page"`,
		`action="https://example.com/a/submit"`,
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %s in:\n%s", want, s)
		}
	}
}

func TestRewriteReroutesProxiedLinks(t *testing.T) {
	body := []byte(`<html><body>
		<a href="https://internal.example.com/wiki">wiki</a>
		<a href="https://public.example.org/">out</a>
	</body></html>`)
	match := func(host string) bool { return strings.HasSuffix(host, "internal.example.com") }
	out, err := Rewrite(body, mustParse(t, "https://internal.example.com/"), "/proxy", match)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `href="/proxy?u=`+url.QueryEscape("https://internal.example.com/wiki")+`"`) {
		t.Fatalf("proxied link not rerouted:\n%s", s)
	}
	if !strings.Contains(s, `href="https://public.example.org/"`) {
		t.Fatalf("external link should be untouched:\n%s", s)
	}
}

func TestRewriteSrcset(t *testing.T) {
	body := []byte(`<html><body><img srcset="/small.png 1x, /big.png 2x"></body></html>`)
	out, err := Rewrite(body, mustParse(t, "https://example.com/"), "/proxy", nil)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if !strings.Contains(string(out), "https://example.com/small.png 1x, https://example.com/big.png 2x") {
		t.Fatalf("srcset not rewritten:\n%s", out)
	}
}

func TestTitle(t *testing.T) {
	body := []byte(`<html><head><title> Página </title></head><body></body></html>`)
	if got := Title(body); got != "Página" {
		t.Fatalf("title = %q", got)
	}
}
