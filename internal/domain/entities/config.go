package entities

import "time"

// ConsoleConfig is the runtime configuration of the console.
type ConsoleConfig struct {
	API           APIConfig
	Pages         PageConfig
	Notifications NotificationConfig
	Cache         CacheConfig
	Logging       LoggingConfig
	Export        ExportConfig
}

// APIConfig configures the remote gateway.
type APIConfig struct {
	BaseURL                    string        `validate:"required,url"`
	Timeout                    time.Duration `validate:"gt=0"`
	MaxRetries                 int           `validate:"gte=0,lte=10"`
	AssistantRequestsPerMinute int           `validate:"gte=0"`
}

// PageConfig holds page sizes of the list views.
type PageConfig struct {
	Findings    int `validate:"gt=0"`
	Projects    int `validate:"gt=0"`
	Association int `validate:"gt=0"`
}

// NotificationConfig holds notification durations.
type NotificationConfig struct {
	DefaultDuration time.Duration `validate:"gt=0"`
	SuccessDuration time.Duration `validate:"gt=0"`
}

// CacheConfig configures the local snapshot cache.
type CacheConfig struct {
	Enabled bool
	Path    string `validate:"required_if=Enabled true"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=text json"`
}

// ExportConfig configures report export signing.
type ExportConfig struct {
	SigningKeyPath string
	PassphraseEnv  string
}

// DefaultConsoleConfig returns the built-in defaults.
func DefaultConsoleConfig() ConsoleConfig {
	return ConsoleConfig{
		API: APIConfig{
			BaseURL:                    "http://localhost:5000",
			Timeout:                    60 * time.Second,
			MaxRetries:                 2,
			AssistantRequestsPerMinute: 20,
		},
		Pages: PageConfig{
			Findings:    20,
			Projects:    20,
			Association: 12,
		},
		Notifications: NotificationConfig{
			DefaultDuration: 5 * time.Second,
			SuccessDuration: 3 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    ".slime/cache.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Export: ExportConfig{
			PassphraseEnv: "SLIME_SIGNING_PASSPHRASE",
		},
	}
}
