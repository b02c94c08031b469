package app

import "path/filepath"

// Data file names under the data directory. The watcher keys on these exact
// base names, so renames of the files themselves are not tracked.
const (
	apiKeysFile = "api_keys.env"
	enginesFile = "search_engines.env"
	catalogFile = "websites.xlsx"
	domainsFile = "proxied_domains.txt"
)

func (a *App) apiKeysPath() string { return filepath.Join(a.cfg.DataDir, apiKeysFile) }
func (a *App) enginesPath() string { return filepath.Join(a.cfg.DataDir, enginesFile) }
func (a *App) catalogPath() string { return filepath.Join(a.cfg.DataDir, catalogFile) }
func (a *App) domainsPath() string { return filepath.Join(a.cfg.DataDir, domainsFile) }
