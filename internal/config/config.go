// Package config loads the application configuration from YAML with
// environment overrides for secrets and deployment specific values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides: llm.api_key is read from SMARTPANTRY_LLM_API_KEY
const EnvPrefix = "SMARTPANTRY"

// Config represents the application configuration
type Config struct {
	LogLevel string `yaml:"log_level"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	MetricsConfig struct {
		Enabled bool   `yaml:"enabled"`
		Port    int    `yaml:"port"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	LLM struct {
		Provider    string        `yaml:"provider"`
		Model       string        `yaml:"model"`
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		Deployment  string        `yaml:"deployment"`
		Temperature float64       `yaml:"temperature"`
		MaxTokens   int           `yaml:"max_tokens"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	OpenFoodFacts struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"openfoodfacts"`

	Lifecycle struct {
		DepletionPolicy    string `yaml:"depletion_policy"`
		RestockHorizonDays int    `yaml:"restock_horizon_days"`
		PriorityWindowDays int    `yaml:"priority_window_days"`
	} `yaml:"lifecycle"`

	Notify struct {
		PollInterval time.Duration `yaml:"poll_interval"`
		// DailyCheckIn is a "HH:MM" local time, empty to disable
		DailyCheckIn string `yaml:"daily_check_in"`
	} `yaml:"notify"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	c := &Config{LogLevel: "info"}
	c.Server.Port = 8080
	c.MetricsConfig.Enabled = true
	c.MetricsConfig.Port = 9090
	c.MetricsConfig.Path = "/metrics"
	c.Database.Driver = "sqlite3"
	c.Database.DSN = "smartpantry.db"
	c.LLM.Provider = "openrouter"
	c.LLM.Temperature = 0.7
	c.LLM.MaxTokens = 1500
	c.LLM.Timeout = 60 * time.Second
	c.OpenFoodFacts.Timeout = 10 * time.Second
	c.Lifecycle.DepletionPolicy = "shoppingList"
	c.Lifecycle.RestockHorizonDays = 7
	c.Lifecycle.PriorityWindowDays = 3
	c.Notify.PollInterval = 30 * time.Second
	return c
}

// Load layers the defaults, the YAML file at path and SMARTPANTRY_* environment
// variables, in that order. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Seeding every key from the defaults lets AutomaticEnv see nested keys
	base, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("failed to encode defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			v.SetConfigFile(path)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c, func(dc *mapstructure.DecoderConfig) { dc.TagName = "yaml" }); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.MetricsConfig.Enabled && (c.MetricsConfig.Port <= 0 || c.MetricsConfig.Port > 65535) {
		return fmt.Errorf("invalid metrics port %d", c.MetricsConfig.Port)
	}
	if c.Lifecycle.RestockHorizonDays <= 0 {
		return fmt.Errorf("restock_horizon_days must be positive")
	}
	if c.Lifecycle.PriorityWindowDays < 0 {
		return fmt.Errorf("priority_window_days must not be negative")
	}
	if _, err := c.CheckInOffset(); err != nil {
		return err
	}
	return nil
}

// RestockHorizon is the expiry given to a restocked item
func (c *Config) RestockHorizon() time.Duration {
	return time.Duration(c.Lifecycle.RestockHorizonDays) * 24 * time.Hour
}

// PriorityWindow is how close to expiry an item must be to be prioritized in recipes
func (c *Config) PriorityWindow() time.Duration {
	return time.Duration(c.Lifecycle.PriorityWindowDays) * 24 * time.Hour
}

// CheckInOffset returns the daily check-in time as an offset from midnight
func (c *Config) CheckInOffset() (time.Duration, error) {
	if c.Notify.DailyCheckIn == "" {
		return 0, nil
	}
	t, err := time.Parse("15:04", c.Notify.DailyCheckIn)
	if err != nil {
		return 0, fmt.Errorf("invalid daily_check_in %q: want HH:MM", c.Notify.DailyCheckIn)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
