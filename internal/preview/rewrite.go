package preview

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// urlAttrs are the attributes rewritten against the page's base URL.
var urlAttrs = []string{"href", "src", "action"}

// Rewrite prepares a fetched page for serving from the portal: script
// elements are removed, relative URLs are resolved against the page's own
// base so assets still load, and links into proxied domains are rerouted
// through proxyPath so navigation stays inside the cache.
func Rewrite(body []byte, base *url.URL, proxyPath string, match func(host string) bool) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	doc.Find("script").Remove()

	for _, attr := range urlAttrs {
		doc.Find("[" + attr + "]").Each(func(_ int, sel *goquery.Selection) {
			raw, _ := sel.Attr(attr)
			abs := resolve(base, raw)
			if abs == nil {
				return
			}
			if attr == "href" && match != nil && match(abs.Hostname()) && goquery.NodeName(sel) == "a" {
				sel.SetAttr(attr, proxyPath+"?u="+url.QueryEscape(abs.String()))
				return
			}
			sel.SetAttr(attr, abs.String())
		})
	}

	doc.Find("[srcset]").Each(func(_ int, sel *goquery.Selection) {
		raw, _ := sel.Attr("srcset")
		sel.SetAttr("srcset", rewriteSrcset(base, raw))
	})

	out, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return []byte(out), nil
}

func resolve(base *url.URL, raw string) *url.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") ||
		strings.HasPrefix(raw, "javascript:") || strings.HasPrefix(raw, "data:") ||
		strings.HasPrefix(raw, "mailto:") {
		return nil
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return base.ResolveReference(ref)
}

// rewriteSrcset resolves each candidate URL in a srcset value, keeping the
// width/density descriptors.
func rewriteSrcset(base *url.URL, raw string) string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) == 0 {
			continue
		}
		if abs := resolve(base, fields[0]); abs != nil {
			fields[0] = abs.String()
		}
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, ", ")
}

// Title extracts the document title, for fetch logging.
func Title(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
