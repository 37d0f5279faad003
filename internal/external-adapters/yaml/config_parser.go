// Package yaml provides YAML-based console configuration parsing.
package yaml

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ochairo/slime/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlConfig represents the raw YAML structure. Pointer fields distinguish
// "absent" from zero so a file only overrides what it sets.
type yamlConfig struct {
	API           yamlAPI           `yaml:"api"`
	Pages         yamlPages         `yaml:"pages"`
	Notifications yamlNotifications `yaml:"notifications"`
	Cache         yamlCache         `yaml:"cache"`
	Logging       yamlLogging       `yaml:"logging"`
	Export        yamlExport        `yaml:"export"`
}

type yamlAPI struct {
	BaseURL                    *string `yaml:"base_url"`
	Timeout                    *string `yaml:"timeout"`
	MaxRetries                 *int    `yaml:"max_retries"`
	AssistantRequestsPerMinute *int    `yaml:"assistant_requests_per_minute"`
}

type yamlPages struct {
	Findings    *int `yaml:"findings"`
	Projects    *int `yaml:"projects"`
	Association *int `yaml:"association"`
}

type yamlNotifications struct {
	DefaultDuration *string `yaml:"default_duration"`
	SuccessDuration *string `yaml:"success_duration"`
}

type yamlCache struct {
	Enabled *bool   `yaml:"enabled"`
	Path    *string `yaml:"path"`
}

type yamlLogging struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

type yamlExport struct {
	SigningKeyPath *string `yaml:"signing_key_path"`
	PassphraseEnv  *string `yaml:"passphrase_env"`
}

// ConfigParser parses YAML console configuration files
type ConfigParser struct{}

// NewConfigParser creates a new YAML parser
func NewConfigParser() *ConfigParser {
	return &ConfigParser{}
}

// ParseFile parses a YAML configuration file over base
func (p *ConfigParser) ParseFile(filePath string, base entities.ConsoleConfig) (entities.ConsoleConfig, error) {
	//nolint:gosec // G304: filePath is the user-selected configuration file
	data, err := os.ReadFile(filePath)
	if err != nil {
		return base, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data, base)
}

// Parse parses YAML bytes over base. Keys missing from the document keep
// their base values.
func (p *ConfigParser) Parse(data []byte, base entities.ConsoleConfig) (entities.ConsoleConfig, error) {
	var doc yamlConfig
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return base, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := base
	setString(&cfg.API.BaseURL, doc.API.BaseURL)
	if err := setDuration(&cfg.API.Timeout, doc.API.Timeout, "api.timeout"); err != nil {
		return base, err
	}
	setInt(&cfg.API.MaxRetries, doc.API.MaxRetries)
	setInt(&cfg.API.AssistantRequestsPerMinute, doc.API.AssistantRequestsPerMinute)

	setInt(&cfg.Pages.Findings, doc.Pages.Findings)
	setInt(&cfg.Pages.Projects, doc.Pages.Projects)
	setInt(&cfg.Pages.Association, doc.Pages.Association)

	if err := setDuration(&cfg.Notifications.DefaultDuration, doc.Notifications.DefaultDuration, "notifications.default_duration"); err != nil {
		return base, err
	}
	if err := setDuration(&cfg.Notifications.SuccessDuration, doc.Notifications.SuccessDuration, "notifications.success_duration"); err != nil {
		return base, err
	}

	if doc.Cache.Enabled != nil {
		cfg.Cache.Enabled = *doc.Cache.Enabled
	}
	setString(&cfg.Cache.Path, doc.Cache.Path)

	setString(&cfg.Logging.Level, doc.Logging.Level)
	setString(&cfg.Logging.Format, doc.Logging.Format)

	setString(&cfg.Export.SigningKeyPath, doc.Export.SigningKeyPath)
	setString(&cfg.Export.PassphraseEnv, doc.Export.PassphraseEnv)

	return cfg, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// setDuration accepts Go duration strings ("90s") or bare milliseconds
func setDuration(dst *time.Duration, v *string, key string) error {
	if v == nil {
		return nil
	}
	d, err := ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

// ParseDuration parses a Go duration string, or a bare integer as milliseconds
func ParseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}
