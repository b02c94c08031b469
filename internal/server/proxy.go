package server

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"github.com/krezak/searchdeck/internal/metrics"
	"github.com/krezak/searchdeck/internal/preview"
	"github.com/krezak/searchdeck/internal/proxycache"
)

// handleProxy serves a page of an opted-in domain from the cache, fetching,
// rewriting, and caching it on a miss.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("u")
	if raw == "" {
		http.Error(w, "missing u parameter", http.StatusBadRequest)
		return
	}
	target, err := url.Parse(raw)
	if err != nil || !strings.HasPrefix(target.Scheme, "http") || target.Hostname() == "" {
		http.Error(w, "invalid target url", http.StatusBadRequest)
		return
	}
	domains := s.backend.Domains()
	if !domains.Match(target.Hostname()) {
		http.Error(w, "domain not enabled for proxying", http.StatusForbidden)
		return
	}

	if body, meta, err := s.cache.Load(r.Context(), target.String()); err == nil {
		metrics.CacheHitsTotal.Inc()
		serveBody(w, meta.ContentType, body)
		return
	} else if !errors.Is(err, proxycache.ErrMiss) {
		s.log.Warn().Err(err).Str("url", target.String()).Msg("cache read failed")
	}
	metrics.CacheMissesTotal.Inc()

	body, contentType, mode, err := s.fetch(r.Context(), target.String())
	if err != nil {
		metrics.ProxyFetchesTotal.WithLabelValues(mode, "error").Inc()
		s.log.Warn().Err(err).Str("url", target.String()).Msg("proxy fetch failed")
		servePlaceholder(w, target.String())
		return
	}
	metrics.ProxyFetchesTotal.WithLabelValues(mode, "ok").Inc()

	if strings.Contains(strings.ToLower(contentType), "html") {
		s.log.Debug().Str("url", target.String()).Str("mode", mode).
			Str("title", preview.Title(body)).Msg("page fetched")
		rewritten, err := preview.Rewrite(body, target, "/proxy", domains.Match)
		if err != nil {
			s.log.Warn().Err(err).Str("url", target.String()).Msg("rewrite failed, serving raw page")
		} else {
			body = rewritten
		}
	}
	if err := s.cache.Save(r.Context(), target.String(), contentType, body); err != nil {
		s.log.Warn().Err(err).Str("url", target.String()).Msg("cache write failed")
	}
	serveBody(w, contentType, body)
}

// fetch prefers the rendered browser fetch when it is configured, falling
// back to the plain HTTP client.
func (s *Server) fetch(ctx context.Context, url string) (body []byte, contentType, mode string, err error) {
	if s.browser != nil {
		body, contentType, err = s.browser.Fetch(ctx, url)
		if err == nil {
			return body, contentType, "browser", nil
		}
		s.log.Warn().Err(err).Str("url", url).Msg("browser fetch failed, trying plain http")
	}
	body, contentType, err = s.fetcher.Fetch(ctx, url)
	return body, contentType, "http", err
}

func serveBody(w http.ResponseWriter, contentType string, body []byte) {
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(body)
}

func servePlaceholder(w http.ResponseWriter, url string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadGateway)
	fmt.Fprintf(w, `<!doctype html><html><body>
<p>The page could not be fetched and no cached copy exists.</p>
<p><code>%s</code></p>
</body></html>`, html.EscapeString(url))
}
