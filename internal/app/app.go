package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/krezak/searchdeck/internal/auth"
	"github.com/krezak/searchdeck/internal/catalog"
	"github.com/krezak/searchdeck/internal/credentials"
	"github.com/krezak/searchdeck/internal/metrics"
	"github.com/krezak/searchdeck/internal/preview"
	"github.com/krezak/searchdeck/internal/proxycache"
	"github.com/krezak/searchdeck/internal/search"
	"github.com/krezak/searchdeck/internal/server"
	"github.com/krezak/searchdeck/internal/watch"
)

const (
	defaultCooldown   = 5 * time.Minute
	defaultPerMinute  = 30
	defaultBurst      = 5
	defaultBrowserTTL = 30 * time.Second
)

// App owns the reloadable state behind the HTTP handlers. The data files are
// re-read whenever the watcher reports a change, and the whole derived value
// (rotator, catalog, domain list) is swapped under the mutex so in-flight
// requests keep the snapshot they started with.
type App struct {
	cfg Config
	log zerolog.Logger

	mu      sync.RWMutex
	rotator *search.Rotator
	cat     *catalog.Catalog
	domains *preview.Domains
	keys    *credentials.File
	engines *credentials.File

	cache   *proxycache.Cache
	watcher *watch.Watcher
	browser *preview.BrowserFetcher
	srv     *server.Server
}

func New(ctx context.Context, cfg Config, log zerolog.Logger) (*App, error) {
	if cfg.RotationCooldown <= 0 {
		cfg.RotationCooldown = defaultCooldown
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = defaultPerMinute
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = defaultBurst
	}
	if cfg.BrowserTimeout <= 0 {
		cfg.BrowserTimeout = defaultBrowserTTL
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	a := &App{
		cfg:   cfg,
		log:   log,
		cache: &proxycache.Cache{Dir: cfg.CacheDir},
	}

	// A malformed data file at startup disables its feature instead of
	// refusing to serve; an admin can fix the file while the portal runs.
	if err := a.reloadCredentials(ctx); err != nil {
		log.Warn().Err(err).Msg("credential files unusable, search is unavailable until fixed")
		a.keys = &credentials.File{Path: a.apiKeysPath()}
		a.engines = &credentials.File{Path: a.enginesPath()}
		a.rotator = search.NewRotator(cfg.RotationCooldown)
	}
	if err := a.reloadCatalog(); err != nil {
		log.Warn().Err(err).Msg("website catalog unusable, previewer is empty until fixed")
		a.cat = &catalog.Catalog{}
	}
	if err := a.reloadDomains(false); err != nil {
		log.Warn().Err(err).Msg("proxied domain list unusable, proxying is disabled until fixed")
		a.domains = &preview.Domains{}
	}

	if cfg.BrowserEnabled {
		b, err := preview.NewBrowserFetcher(preview.BrowserConfig{
			RemoteURL: cfg.BrowserRemote,
			Headless:  !cfg.BrowserHead,
			Timeout:   cfg.BrowserTimeout,
		}, log)
		if err != nil {
			// A broken browser setup degrades to plain HTTP fetching.
			log.Warn().Err(err).Msg("browser fetcher unavailable, proxy falls back to http")
		} else {
			a.browser = b
		}
	}

	w, err := watch.New(cfg.DataDir, 0, log)
	if err != nil {
		return nil, fmt.Errorf("watch data dir: %w", err)
	}
	a.watcher = w
	a.registerWatchers(w)

	var fetcher preview.Fetcher = &preview.HTTPFetcher{}
	var browser preview.Fetcher
	if a.browser != nil {
		browser = a.browser
	}
	srv, err := server.New(server.Options{
		Backend: a,
		Auth: auth.New([]byte(cfg.SessionSecret), auth.Accounts{
			AdminUser:    cfg.AdminUser,
			AdminPass:    cfg.AdminPass,
			EmployeeUser: cfg.EmployeeUser,
			EmployeePass: cfg.EmployeePass,
		}, cfg.RatePerMinute, cfg.RateBurst),
		Cache:      a.cache,
		Fetcher:    fetcher,
		Browser:    browser,
		MaxQueries: cfg.MaxQueries,
		Log:        log,
	})
	if err != nil {
		return nil, err
	}
	a.srv = srv
	return a, nil
}

// registerWatchers binds the data file names to their reload functions. A
// failed reload keeps the previous in-memory state.
func (a *App) registerWatchers(w *watch.Watcher) {
	reloadCreds := func() {
		if err := a.reloadCredentials(context.Background()); err != nil {
			a.log.Error().Err(err).Msg("credential reload failed, keeping previous set")
		}
	}
	w.OnFile(apiKeysFile, reloadCreds)
	w.OnFile(enginesFile, reloadCreds)
	w.OnFile(catalogFile, func() {
		if err := a.reloadCatalog(); err != nil {
			a.log.Error().Err(err).Msg("catalog reload failed, keeping previous catalog")
		}
	})
	w.OnFile(domainsFile, func() {
		if err := a.reloadDomains(true); err != nil {
			a.log.Error().Err(err).Msg("domain list reload failed, keeping previous list")
		}
	})
}

// Rotator returns the current credential rotation set.
func (a *App) Rotator() *search.Rotator {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.rotator
}

// Catalog returns the current website catalog.
func (a *App) Catalog() *catalog.Catalog {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cat
}

// Domains returns the current proxied domain list.
func (a *App) Domains() *preview.Domains {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.domains
}

// ApplyCredentialChanges edits the two credential files on disk and saves
// them. Both change sets are applied to copies first: pairing is positional,
// so a rejected engines edit must not leave an already-saved keys edit
// behind. The watcher picks the writes up and rebuilds the rotator.
func (a *App) ApplyCredentialChanges(keys, engines credentials.ChangeSet) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	nextKeys := a.keys.Clone()
	nextEngines := a.engines.Clone()
	if err := nextKeys.Apply(keys); err != nil {
		return fmt.Errorf("api keys: %w", err)
	}
	if err := nextEngines.Apply(engines); err != nil {
		return fmt.Errorf("search engines: %w", err)
	}
	if !keys.Empty() {
		if err := nextKeys.Save(); err != nil {
			return fmt.Errorf("save api keys: %w", err)
		}
	}
	if !engines.Empty() {
		if err := nextEngines.Save(); err != nil {
			return fmt.Errorf("save search engines: %w", err)
		}
	}
	a.keys = nextKeys
	a.engines = nextEngines
	return nil
}

// ApplyDomainChanges edits the proxied domain list on disk. The watcher
// reloads the list and clears the proxy cache.
func (a *App) ApplyDomainChanges(add []string, rename map[string]string, del []string) error {
	a.mu.Lock()
	current := a.domains.List()
	a.mu.Unlock()
	next := preview.ApplyChanges(current, add, rename, del)
	return preview.Save(a.domainsPath(), next)
}

func (a *App) reloadCredentials(ctx context.Context) error {
	keys, err := credentials.LoadFile(a.apiKeysPath())
	if err != nil {
		return fmt.Errorf("load api keys: %w", err)
	}
	engines, err := credentials.LoadFile(a.enginesPath())
	if err != nil {
		return fmt.Errorf("load search engines: %w", err)
	}
	rot := search.NewRotator(a.cfg.RotationCooldown)
	for _, p := range credentials.Pairs(keys, engines) {
		client, err := search.NewClient(ctx, p.APIKey, p.EngineID)
		if err != nil {
			a.log.Warn().Err(err).Str("pair", p.Name).Msg("skipping unusable credential pair")
			continue
		}
		rot.Add(p.Name, p.EngineName, client)
	}
	a.mu.Lock()
	a.keys = keys
	a.engines = engines
	a.rotator = rot
	a.mu.Unlock()
	metrics.ConfigReloadsTotal.WithLabelValues(apiKeysFile).Inc()
	a.log.Info().Int("pairs", rot.Len()).Msg("credential set loaded")
	return nil
}

func (a *App) reloadCatalog() error {
	cat, err := catalog.Load(a.catalogPath())
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	a.mu.Lock()
	a.cat = cat
	a.mu.Unlock()
	metrics.ConfigReloadsTotal.WithLabelValues(catalogFile).Inc()
	a.log.Info().Int("categories", len(cat.Categories)).Msg("website catalog loaded")
	return nil
}

// reloadDomains re-reads the proxied domain list. When clearCache is set the
// proxy cache is wiped as well: cached copies may belong to domains that are
// no longer proxied, or may predate a domain that now needs fresh fetches.
func (a *App) reloadDomains(clearCache bool) error {
	d, err := preview.LoadDomains(a.domainsPath())
	if err != nil {
		return fmt.Errorf("load proxied domains: %w", err)
	}
	a.mu.Lock()
	a.domains = d
	a.mu.Unlock()
	if clearCache {
		if err := a.cache.Clear(); err != nil {
			a.log.Error().Err(err).Msg("proxy cache clear failed")
		}
	}
	metrics.ConfigReloadsTotal.WithLabelValues(domainsFile).Inc()
	a.log.Info().Int("domains", len(d.List())).Bool("cache_cleared", clearCache).Msg("proxied domain list loaded")
	return nil
}

// Handler exposes the HTTP routes, mostly for tests.
func (a *App) Handler() http.Handler { return a.srv.Handler() }

// Run starts the watcher and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	httpSrv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           a.srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.ListenAddr).Msg("listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close releases the watcher and the browser, if one was started.
func (a *App) Close() {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	if a.browser != nil {
		a.browser.Close()
	}
}
