package driving

import "github.com/custodia-labs/ragdesk/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the current settings with defaults applied.
	Get() (*domain.AppSettings, error)

	// Set validates and stores a single dotted key.
	Set(key, value string) error

	// SetAPIKey stores the remote generator credential.
	SetAPIKey(key string) error

	// Keys lists the recognised setting keys.
	Keys() []string

	// ConfigPath returns the configuration file path.
	ConfigPath() string
}
