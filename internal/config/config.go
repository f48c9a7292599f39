package config

// Config holds all client configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Client    ClientConfig    `mapstructure:"client" validate:"required"`
	Graph     GraphConfig     `mapstructure:"graph" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Images    ImagesConfig    `mapstructure:"images" validate:"required"`
}

// ClientConfig contains process-wide settings.
type ClientConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// StatusAddr is the listen address of the debug status server; empty disables it
	StatusAddr string `mapstructure:"status_addr" validate:"omitempty,hostname_port"`
	// EventHistory is how many task events the status server keeps
	EventHistory int `mapstructure:"event_history" validate:"gt=0"`
}

// GraphConfig contains the settings of the social graph API transport.
// The access token is obtained by a login flow outside this client.
type GraphConfig struct {
	BaseURL     string `mapstructure:"base_url" validate:"required,url"`
	AccessToken string `mapstructure:"access_token" validate:"required"`
}

// SchedulerConfig contains the settings of the task controller.
type SchedulerConfig struct {
	// PausePolicy is "owner" to pause screens independently, or
	// "controller" to pause the whole controller at once
	PausePolicy string `mapstructure:"pause_policy" validate:"required,oneof=owner controller"`
	// MaxPending caps queued tasks; zero means unbounded
	MaxPending int `mapstructure:"max_pending" validate:"gte=0"`
}

// ImagesConfig contains the settings of the in-memory image data cache.
type ImagesConfig struct {
	CacheEntries int  `mapstructure:"cache_entries" validate:"gt=0"`
	CacheFetched bool `mapstructure:"cache_fetched"`
	// MaxBytes rejects larger downloads; zero uses the fetcher's default
	MaxBytes int64 `mapstructure:"max_bytes" validate:"gte=0"`
}
