package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the client reads
const EnvPrefix = "GRAPHFEED"

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from config files. Returns a populated Config struct or an error if
// loading/validation fails.
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshalAndValidate(v)
}

// LoadFile behaves like Load but reads the given YAML file, which must exist.
func LoadFile(path string) (*Config, error) {
	v := newViper()

	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshalAndValidate(v)
}

func newViper() *viper.Viper {
	v := viper.New()

	// Set default values
	v.SetDefault("client.log_level", "info")
	v.SetDefault("client.status_addr", "")
	v.SetDefault("client.event_history", 256)
	v.SetDefault("graph.base_url", "https://graph.facebook.com")
	v.SetDefault("scheduler.pause_policy", "owner")
	v.SetDefault("scheduler.max_pending", 0)
	v.SetDefault("images.cache_entries", 128)
	v.SetDefault("images.cache_fetched", true)
	v.SetDefault("images.max_bytes", 16<<20)

	// Configure environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are invisible to Unmarshal unless bound explicitly
	_ = v.BindEnv("graph.access_token")

	return v
}

func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
