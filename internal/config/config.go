// Package config loads stockctl settings from an optional config file,
// STOCKCTL_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	apperrors "github.com/maxkimambo/stockctl/internal/errors"
)

const envPrefix = "stockctl"

type APIConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Token   string        `mapstructure:"token"`
}

type ActivityConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	// Overlay toggles the terminal busy indicator.
	Overlay bool `mapstructure:"overlay"`
}

type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Activity ActivityConfig `mapstructure:"activity"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"api-url":      "api.url",
	"timeout":      "api.timeout",
	"debounce":     "activity.debounce",
	"concurrency":  "batch.concurrency",
	"metrics-addr": "metrics.addr",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.token", "")
	v.SetDefault("activity.debounce", 300*time.Millisecond)
	v.SetDefault("activity.overlay", true)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("metrics.addr", "")
}

// Load reads configuration. configFile may be empty, in which case
// stockctl.yaml is looked up in the working directory and $HOME/.config/stockctl
// and silently skipped when absent. Flags that were set explicitly win over
// file and environment values.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix) // will be uppercased automatically
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("stockctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/stockctl")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, apperrors.NewConfigurationError(apperrors.CodeValidationConfig,
				"Could not read config file", "Load configuration").
				WithContext("file", configFile).
				WithOriginalError(err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
		if off, err := flags.GetBool("no-overlay"); err == nil && off {
			v.Set("activity.overlay", false)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("api.url", c.API.URL)
	}
	if c.API.Timeout <= 0 {
		return invalid("api.timeout", c.API.Timeout.String())
	}
	if c.Activity.Debounce <= 0 {
		return invalid("activity.debounce", c.Activity.Debounce.String())
	}
	if c.Batch.Concurrency < 1 {
		return invalid("batch.concurrency", fmt.Sprint(c.Batch.Concurrency))
	}
	return nil
}

func invalid(key, value string) error {
	return apperrors.NewConfigurationError(apperrors.CodeValidationConfig,
		fmt.Sprintf("Invalid value for %s: '%s'", key, value), "Load configuration").
		WithContext("key", key).
		WithTroubleshooting(
			"Check stockctl.yaml and STOCKCTL_* environment variables",
			"Durations use Go syntax, for example 300ms or 30s",
		)
}
