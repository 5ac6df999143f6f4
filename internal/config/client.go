package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Client configures the storefront CLI.
type Client struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	QuietPeriod time.Duration `mapstructure:"quiet_period"`
	Verbose     bool          `mapstructure:"verbose"`
}

// LoadClient reads storefront.yaml from the working directory or
// $HOME/.storefront when present, then applies STOREFRONT_* environment
// overrides (e.g. STOREFRONT_BASE_URL).
func LoadClient() (*Client, error) {
	v := viper.New()
	v.SetConfigName("storefront")
	v.SetConfigType("yaml")
	v.AddConfigPath("./")
	v.AddConfigPath("$HOME/.storefront/")

	v.SetDefault("base_url", "http://localhost:3000")
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("quiet_period", 300*time.Millisecond)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix("STOREFRONT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Client
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
