// Package env loads console configuration from files and the environment.
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/interfaces/services"
	"github.com/ochairo/slime/internal/external-adapters/yaml"
)

// Environment variables read by the loader
const (
	VarConfig          = "SLIME_CONFIG"
	VarAPIURL          = "SLIME_API_URL"
	VarAPITimeout      = "SLIME_API_TIMEOUT"
	VarMaxRetries      = "SLIME_MAX_RETRIES"
	VarAssistantRPM    = "SLIME_ASSISTANT_RPM"
	VarPageSize        = "SLIME_PAGE_SIZE"
	VarNotifyDuration  = "SLIME_NOTIFY_DURATION"
	VarCacheEnabled    = "SLIME_CACHE_ENABLED"
	VarCachePath       = "SLIME_CACHE_PATH"
	VarLogLevel        = "SLIME_LOG_LEVEL"
	VarLogFormat       = "SLIME_LOG_FORMAT"
	VarSigningKey      = "SLIME_SIGNING_KEY"
	defaultConfigFile  = "slime.yml"
	localOverridesFile = ".env.local"
)

// LookupFunc reads an environment variable
type LookupFunc func(key string) (string, bool)

// Loader resolves configuration: defaults, then the YAML file, then SLIME_*
// variables. The result is validated.
type Loader struct {
	parser    *yaml.ConfigParser
	validator services.Validator
	lookup    LookupFunc
	dir       string
}

// NewLoader creates a loader reading the process environment and dotenv
// files in dir
func NewLoader(dir string, validator services.Validator) *Loader {
	return &Loader{
		parser:    yaml.NewConfigParser(),
		validator: validator,
		lookup:    os.LookupEnv,
		dir:       dir,
	}
}

// WithLookup replaces the environment source (tests)
func (l *Loader) WithLookup(lookup LookupFunc) *Loader {
	l.lookup = lookup
	return l
}

// LoadEnvFiles loads .env then .env.local from the loader directory. The
// base file never overrides variables already set; .env.local does.
func (l *Loader) LoadEnvFiles() error {
	base := filepath.Join(l.dir, ".env")
	if _, err := os.Stat(base); err == nil {
		if err := godotenv.Load(base); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}

	local := filepath.Join(l.dir, localOverridesFile)
	if _, err := os.Stat(local); err == nil {
		if err := godotenv.Overload(local); err != nil {
			return fmt.Errorf("failed to load %s: %w", localOverridesFile, err)
		}
	}
	return nil
}

// Load resolves the configuration. An explicit path must exist; otherwise
// $SLIME_CONFIG or slime.yml in the loader directory is used when present.
func (l *Loader) Load(path string) (entities.ConsoleConfig, error) {
	cfg := entities.DefaultConsoleConfig()

	explicit := path != ""
	if !explicit {
		if v, ok := l.lookup(VarConfig); ok && v != "" {
			path, explicit = v, true
		} else {
			path = filepath.Join(l.dir, defaultConfigFile)
		}
	}

	if _, err := os.Stat(path); err == nil || explicit {
		parsed, err := l.parser.ParseFile(path, cfg)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = parsed
	}

	cfg, err := Apply(cfg, l.lookup)
	if err != nil {
		return cfg, err
	}

	if l.validator != nil {
		if err := l.validator.Validate(cfg); err != nil {
			return cfg, fmt.Errorf("invalid config: %w", err)
		}
	}
	return cfg, nil
}

// Apply overlays SLIME_* variables on cfg
func Apply(cfg entities.ConsoleConfig, lookup LookupFunc) (entities.ConsoleConfig, error) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(VarAPIURL); ok {
		cfg.API.BaseURL = v
	}
	if v, ok := get(VarAPITimeout); ok {
		d, err := yaml.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", VarAPITimeout, err)
		}
		cfg.API.Timeout = d
	}
	if v, ok := get(VarMaxRetries); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", VarMaxRetries, err)
		}
		cfg.API.MaxRetries = n
	}
	if v, ok := get(VarAssistantRPM); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", VarAssistantRPM, err)
		}
		cfg.API.AssistantRequestsPerMinute = n
	}
	if v, ok := get(VarPageSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", VarPageSize, err)
		}
		cfg.Pages.Findings = n
		cfg.Pages.Projects = n
	}
	if v, ok := get(VarNotifyDuration); ok {
		d, err := yaml.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", VarNotifyDuration, err)
		}
		cfg.Notifications.DefaultDuration = d
	}
	if v, ok := get(VarCacheEnabled); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", VarCacheEnabled, err)
		}
		cfg.Cache.Enabled = b
	}
	if v, ok := get(VarCachePath); ok {
		cfg.Cache.Path = v
	}
	if v, ok := get(VarLogLevel); ok {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v, ok := get(VarLogFormat); ok {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v, ok := get(VarSigningKey); ok {
		cfg.Export.SigningKeyPath = v
	}
	return cfg, nil
}
