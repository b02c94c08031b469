package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/krezak/searchdeck/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath    string
		listenAddr    string
		dataDir       string
		cacheDir      string
		sessionSecret string
		adminUser     string
		adminPass     string
		employeeUser  string
		employeePass  string
		browserEnable bool
		browserRemote string
		browserHead   bool
		browserWait   time.Duration
		cooldown      time.Duration
		maxQueries    int
		ratePerMinute int
		rateBurst     int
		verbose       bool
	)

	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "Path to YAML or JSON config file")
	flag.StringVar(&listenAddr, "listen", ":8080", "HTTP listen address")
	flag.StringVar(&dataDir, "data", "data", "Directory holding the editable data files")
	flag.StringVar(&cacheDir, "cache.dir", ".searchdeck-cache", "Proxy cache directory path")
	flag.StringVar(&sessionSecret, "session.secret", "", "Secret for signing session cookies")
	flag.StringVar(&adminUser, "admin.user", "", "Admin login name")
	flag.StringVar(&adminPass, "admin.pass", "", "Admin login password")
	flag.StringVar(&employeeUser, "employee.user", "", "Employee login name")
	flag.StringVar(&employeePass, "employee.pass", "", "Employee login password")
	flag.BoolVar(&browserEnable, "browser.enable", false, "Render proxied pages with a headless browser before falling back to plain HTTP")
	flag.StringVar(&browserRemote, "browser.remote", os.Getenv("BROWSER_REMOTE_URL"), "DevTools websocket URL of a remote browser; empty launches a local one")
	flag.BoolVar(&browserHead, "browser.head", false, "Run the local browser with a visible window")
	flag.DurationVar(&browserWait, "browser.timeout", 0, "Per-page browser rendering timeout (e.g. 30s)")
	flag.DurationVar(&cooldown, "search.cooldown", 0, "How long a credential pair rests after hitting its quota (e.g. 5m)")
	flag.IntVar(&maxQueries, "search.maxQueries", 0, "Maximum API calls per fetch-all search")
	flag.IntVar(&ratePerMinute, "rate.perMinute", 0, "Search requests allowed per minute per session")
	flag.IntVar(&rateBurst, "rate.burst", 0, "Search request burst size per session")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		ListenAddr:       listenAddr,
		DataDir:          dataDir,
		CacheDir:         cacheDir,
		SessionSecret:    sessionSecret,
		AdminUser:        adminUser,
		AdminPass:        adminPass,
		EmployeeUser:     employeeUser,
		EmployeePass:     employeePass,
		BrowserEnabled:   browserEnable,
		BrowserRemote:    browserRemote,
		BrowserHead:      browserHead,
		BrowserTimeout:   browserWait,
		RotationCooldown: cooldown,
		MaxQueries:       maxQueries,
		RatePerMinute:    ratePerMinute,
		RateBurst:        rateBurst,
		Verbose:          verbose,
	}

	// Precedence: flags, then env, then the config file.
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("config file unreadable")
		}
		app.ApplyFileConfig(&cfg, fc)
		app.ApplyEnvOverrides(&cfg)
	} else {
		app.ApplyEnvToConfig(&cfg)
	}

	// A local .env next to the data dir supplies secrets during development.
	if err := app.LoadEnvFiles(filepath.Join(cfg.DataDir, "..", ".env"), ".env"); err != nil {
		log.Warn().Err(err).Msg("env file load failed")
	}
	app.ApplyEnvToConfig(&cfg)

	if err := app.ValidateConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log.Logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}
