// Package server exposes the portal over HTTP: the search API, the website
// previewer, the proxy, and the admin endpoints that edit the data files.
package server

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/krezak/searchdeck/internal/auth"
	"github.com/krezak/searchdeck/internal/catalog"
	"github.com/krezak/searchdeck/internal/credentials"
	"github.com/krezak/searchdeck/internal/metrics"
	"github.com/krezak/searchdeck/internal/preview"
	"github.com/krezak/searchdeck/internal/proxycache"
	"github.com/krezak/searchdeck/internal/search"
)

//go:embed templates/*.html
var templateFS embed.FS

// Backend is the reloadable state the handlers read. The app swaps the
// underlying values wholesale when the watcher fires, so handlers must not
// hold onto what these accessors return across requests.
type Backend interface {
	Rotator() *search.Rotator
	Catalog() *catalog.Catalog
	Domains() *preview.Domains
	ApplyCredentialChanges(keys, engines credentials.ChangeSet) error
	ApplyDomainChanges(add []string, rename map[string]string, del []string) error
}

// Server wires the handlers together.
type Server struct {
	log     zerolog.Logger
	backend Backend
	auth    *auth.Manager
	cache   *proxycache.Cache
	fetcher preview.Fetcher
	browser preview.Fetcher // nil unless chromedp is enabled

	maxQueries int
	tmpl       *template.Template
}

// Options collects the server's collaborators.
type Options struct {
	Backend    Backend
	Auth       *auth.Manager
	Cache      *proxycache.Cache
	Fetcher    preview.Fetcher
	Browser    preview.Fetcher
	MaxQueries int
	Log        zerolog.Logger
}

func New(opts Options) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if opts.MaxQueries <= 0 {
		opts.MaxQueries = search.MaxQueries
	}
	return &Server{
		log:        opts.Log,
		backend:    opts.Backend,
		auth:       opts.Auth,
		cache:      opts.Cache,
		fetcher:    opts.Fetcher,
		browser:    opts.Browser,
		maxQueries: opts.MaxQueries,
		tmpl:       tmpl,
	}, nil
}

// Handler builds the route table. Search, previewer, and proxy need a login;
// the admin endpoints need the admin login; searches are rate limited per
// session.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.Handle("GET /search",
		s.auth.Require(auth.RoleEmployee, s.auth.Throttle(http.HandlerFunc(s.handleSearch))))
	mux.Handle("GET /export/pdf",
		s.auth.Require(auth.RoleEmployee, s.auth.Throttle(http.HandlerFunc(s.handleExportPDF))))
	mux.Handle("GET /preview",
		s.auth.Require(auth.RoleEmployee, http.HandlerFunc(s.handlePreview)))
	mux.Handle("GET /proxy",
		s.auth.Require(auth.RoleEmployee, http.HandlerFunc(s.handleProxy)))

	mux.Handle("POST /admin/credentials",
		s.auth.Require(auth.RoleAdmin, http.HandlerFunc(s.handleAdminCredentials)))
	mux.Handle("POST /admin/domains",
		s.auth.Require(auth.RoleAdmin, http.HandlerFunc(s.handleAdminDomains)))

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return auth.SecurityHeaders(mux)
}
