package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections improve readability and map naturally to flags/env.
type FileConfig struct {
	Listen string `yaml:"listen" json:"listen"`

	Data  string `yaml:"data" json:"data"`
	Cache string `yaml:"cache" json:"cache"`

	Session struct {
		Secret string `yaml:"secret" json:"secret"`
	} `yaml:"session" json:"session"`

	Admin struct {
		User string `yaml:"user" json:"user"`
		Pass string `yaml:"pass" json:"pass"`
	} `yaml:"admin" json:"admin"`

	Employee struct {
		User string `yaml:"user" json:"user"`
		Pass string `yaml:"pass" json:"pass"`
	} `yaml:"employee" json:"employee"`

	Browser struct {
		Enable  bool          `yaml:"enable" json:"enable"`
		Remote  string        `yaml:"remote" json:"remote"`
		Head    bool          `yaml:"head" json:"head"`
		Timeout time.Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"browser" json:"browser"`

	Search struct {
		Cooldown   time.Duration `yaml:"cooldown" json:"cooldown"`
		MaxQueries int           `yaml:"maxQueries" json:"maxQueries"`
	} `yaml:"search" json:"search"`

	Rate struct {
		PerMinute int `yaml:"perMinute" json:"perMinute"`
		Burst     int `yaml:"burst" json:"burst"`
	} `yaml:"rate" json:"rate"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset/zero in cfg. Flags should already have been parsed; this
// function lets file config supply defaults while preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	const (
		listenDefault = ":8080"
		dataDefault   = "data"
		cacheDefault  = ".searchdeck-cache"
	)

	if (cfg.ListenAddr == "" || cfg.ListenAddr == listenDefault) && fc.Listen != "" {
		cfg.ListenAddr = fc.Listen
	}
	if (cfg.DataDir == "" || cfg.DataDir == dataDefault) && fc.Data != "" {
		cfg.DataDir = fc.Data
	}
	if (cfg.CacheDir == "" || cfg.CacheDir == cacheDefault) && fc.Cache != "" {
		cfg.CacheDir = fc.Cache
	}

	if cfg.SessionSecret == "" && fc.Session.Secret != "" {
		cfg.SessionSecret = fc.Session.Secret
	}
	if cfg.AdminUser == "" && fc.Admin.User != "" {
		cfg.AdminUser = fc.Admin.User
	}
	if cfg.AdminPass == "" && fc.Admin.Pass != "" {
		cfg.AdminPass = fc.Admin.Pass
	}
	if cfg.EmployeeUser == "" && fc.Employee.User != "" {
		cfg.EmployeeUser = fc.Employee.User
	}
	if cfg.EmployeePass == "" && fc.Employee.Pass != "" {
		cfg.EmployeePass = fc.Employee.Pass
	}

	if !cfg.BrowserEnabled && fc.Browser.Enable {
		cfg.BrowserEnabled = true
	}
	if cfg.BrowserRemote == "" && fc.Browser.Remote != "" {
		cfg.BrowserRemote = fc.Browser.Remote
	}
	if !cfg.BrowserHead && fc.Browser.Head {
		cfg.BrowserHead = true
	}
	if cfg.BrowserTimeout == 0 && fc.Browser.Timeout > 0 {
		cfg.BrowserTimeout = fc.Browser.Timeout
	}

	if cfg.RotationCooldown == 0 && fc.Search.Cooldown > 0 {
		cfg.RotationCooldown = fc.Search.Cooldown
	}
	if cfg.MaxQueries == 0 && fc.Search.MaxQueries > 0 {
		cfg.MaxQueries = fc.Search.MaxQueries
	}

	if cfg.RatePerMinute == 0 && fc.Rate.PerMinute > 0 {
		cfg.RatePerMinute = fc.Rate.PerMinute
	}
	if cfg.RateBurst == 0 && fc.Rate.Burst > 0 {
		cfg.RateBurst = fc.Rate.Burst
	}

	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return errors.New("config: listen address is required")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("config: data directory is required")
	}
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return errors.New("config: session.secret is required (or set SESSION_SECRET)")
	}
	if strings.TrimSpace(cfg.AdminUser) == "" || strings.TrimSpace(cfg.AdminPass) == "" {
		return errors.New("config: admin credentials are required")
	}
	if strings.TrimSpace(cfg.EmployeeUser) == "" || strings.TrimSpace(cfg.EmployeePass) == "" {
		return errors.New("config: employee credentials are required")
	}
	if cfg.MaxQueries < 0 || cfg.RatePerMinute < 0 || cfg.RateBurst < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}
