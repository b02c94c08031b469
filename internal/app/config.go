package app

import "time"

// Config holds runtime configuration for the portal.
type Config struct {
	ListenAddr string

	// DataDir holds the editable data files: API keys, engine IDs, the
	// website catalog, and the proxied domain list.
	DataDir  string
	CacheDir string

	// Auth
	SessionSecret string
	AdminUser     string
	AdminPass     string
	EmployeeUser  string
	EmployeePass  string

	// Browser rendering for the proxy. When disabled, pages are fetched
	// with a plain HTTP client only.
	BrowserEnabled bool
	BrowserRemote  string
	BrowserHead    bool
	BrowserTimeout time.Duration

	// Search behavior
	RotationCooldown time.Duration
	MaxQueries       int

	// Per-session rate limit for search requests
	RatePerMinute int
	RateBurst     int

	Verbose bool
}
