// Package config provides configuration management for IP Country Tray.
// It handles loading, saving, and validating application settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yllada/ipcountry-tray/common"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// PollInterval is how often the public address is checked.
	PollInterval time.Duration `yaml:"poll_interval"`
	// LookupTimeout bounds each IP and country lookup. Must be shorter than PollInterval.
	LookupTimeout time.Duration `yaml:"lookup_timeout"`
	// ShowNotifications enables desktop notifications for connectivity events.
	ShowNotifications bool `yaml:"show_notifications"`
	// IPProviders lists public address providers, tried in order.
	IPProviders []string `yaml:"ip_providers"`
	// CountryProviders lists country providers, tried in order.
	CountryProviders []string `yaml:"country_providers"`
	// GeoIPDatabase is the path of a MaxMind country database for the geoip provider.
	GeoIPDatabase string `yaml:"geoip_database"`
	// LogToFile enables the rotating log file.
	LogToFile bool `yaml:"log_to_file"`

	path string
}

// Known provider names.
var (
	validIPProviders = []string{
		common.ProviderOpenDNS,
		common.ProviderIpify,
		common.ProviderIcanhazip,
	}
	validCountryProviders = []string{
		common.ProviderIP2C,
		common.ProviderIPInfo,
		common.ProviderGeoIP,
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:      common.PollInterval,
		LookupTimeout:     common.LookupTimeout,
		ShowNotifications: true,
		IPProviders:       []string{common.ProviderOpenDNS, common.ProviderIpify, common.ProviderIcanhazip},
		CountryProviders:  []string{common.ProviderIP2C},
		GeoIPDatabase:     "/usr/share/GeoIP/GeoLite2-Country.mmdb",
		LogToFile:         true,
	}
}

// Load loads the configuration from the default config file.
// If the file doesn't exist, it creates one with default values.
func Load() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from path, creating it with
// defaults when it does not exist.
func LoadFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.path = configPath
		if err := cfg.Save(); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	config := DefaultConfig()
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("%w: error parsing %s: %v", common.ErrConfigLoad, configPath, err)
	}
	config.path = configPath

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate verifies that configuration values are valid, falling back to
// defaults for out-of-range timings.
func (c *Config) validate() error {
	if c.PollInterval < common.MinPollInterval {
		c.PollInterval = common.PollInterval
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = common.LookupTimeout
	}
	// Lookups must finish before the next tick so cycles never overlap.
	if c.LookupTimeout >= c.PollInterval {
		c.LookupTimeout = c.PollInterval / 2
	}

	defaults := DefaultConfig()
	if len(c.IPProviders) == 0 {
		c.IPProviders = defaults.IPProviders
	}
	if len(c.CountryProviders) == 0 {
		c.CountryProviders = defaults.CountryProviders
	}

	for _, p := range c.IPProviders {
		if !common.StringInSlice(p, validIPProviders) {
			return fmt.Errorf("%w: unknown ip provider %q", common.ErrInvalidConfig, p)
		}
	}
	for _, p := range c.CountryProviders {
		if !common.StringInSlice(p, validCountryProviders) {
			return fmt.Errorf("%w: unknown country provider %q", common.ErrInvalidConfig, p)
		}
	}
	if common.StringInSlice(common.ProviderGeoIP, c.CountryProviders) && c.GeoIPDatabase == "" {
		return fmt.Errorf("%w: geoip provider requires geoip_database", common.ErrInvalidConfig)
	}
	return nil
}

// Path returns the file the configuration was loaded from or will be saved to.
func (c *Config) Path() string {
	return c.path
}

// SetPath changes the file Save writes to.
func (c *Config) SetPath(path string) {
	c.path = path
}

// Save saves the configuration to its file.
func (c *Config) Save() error {
	configPath := c.path
	if configPath == "" {
		var err error
		if configPath, err = DefaultPath(); err != nil {
			return err
		}
		c.path = configPath
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("%w: error creating config directory: %v", common.ErrConfigSave, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: error serializing configuration: %v", common.ErrConfigSave, err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}

	return nil
}

// DefaultPath returns ~/.config/ipcountry-tray/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", common.ConfigDirName, common.ConfigFileName), nil
}
