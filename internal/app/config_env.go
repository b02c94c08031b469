package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = os.Getenv("LISTEN_ADDR")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = os.Getenv("DATA_DIR")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = os.Getenv("CACHE_DIR")
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	}
	if cfg.AdminUser == "" {
		cfg.AdminUser = os.Getenv("ADMIN_USER")
	}
	if cfg.AdminPass == "" {
		cfg.AdminPass = os.Getenv("ADMIN_PASS")
	}
	if cfg.EmployeeUser == "" {
		cfg.EmployeeUser = os.Getenv("EMPLOYEE_USER")
	}
	if cfg.EmployeePass == "" {
		cfg.EmployeePass = os.Getenv("EMPLOYEE_PASS")
	}

	if cfg.BrowserRemote == "" {
		cfg.BrowserRemote = os.Getenv("BROWSER_REMOTE_URL")
	}
	if cfg.BrowserTimeout == 0 {
		if s := os.Getenv("BROWSER_TIMEOUT"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.BrowserTimeout = d
			}
		}
	}
	if cfg.RotationCooldown == 0 {
		if s := os.Getenv("ROTATION_COOLDOWN"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.RotationCooldown = d
			}
		}
	}

	setInt := func(dst *int, envKey string) {
		if *dst != 0 {
			return
		}
		if s := strings.TrimSpace(os.Getenv(envKey)); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				*dst = n
			}
		}
	}
	setInt(&cfg.MaxQueries, "MAX_QUERIES")
	setInt(&cfg.RatePerMinute, "RATE_PER_MINUTE")
	setInt(&cfg.RateBurst, "RATE_BURST")

	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.BrowserEnabled, "BROWSER_ENABLE")
	setBool(&cfg.BrowserHead, "BROWSER_HEAD")
	setBool(&cfg.Verbose, "VERBOSE")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// values coming from a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("ADMIN_USER"); v != "" {
		cfg.AdminUser = v
	}
	if v := os.Getenv("ADMIN_PASS"); v != "" {
		cfg.AdminPass = v
	}
	if v := os.Getenv("EMPLOYEE_USER"); v != "" {
		cfg.EmployeeUser = v
	}
	if v := os.Getenv("EMPLOYEE_PASS"); v != "" {
		cfg.EmployeePass = v
	}
	if v := os.Getenv("BROWSER_REMOTE_URL"); v != "" {
		cfg.BrowserRemote = v
	}

	if s := os.Getenv("BROWSER_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.BrowserTimeout = d
		}
	}
	if s := os.Getenv("ROTATION_COOLDOWN"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.RotationCooldown = d
		}
	}

	setInt := func(dst *int, envKey string) {
		if s := strings.TrimSpace(os.Getenv(envKey)); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				*dst = n
			}
		}
	}
	setInt(&cfg.MaxQueries, "MAX_QUERIES")
	setInt(&cfg.RatePerMinute, "RATE_PER_MINUTE")
	setInt(&cfg.RateBurst, "RATE_BURST")

	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.BrowserEnabled, "BROWSER_ENABLE")
	setBool(&cfg.BrowserHead, "BROWSER_HEAD")
	setBool(&cfg.Verbose, "VERBOSE")
}
