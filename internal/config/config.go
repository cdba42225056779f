package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Index   IndexConfig   `mapstructure:"index"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds media server configuration
type ServerConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// CatalogConfig holds listing resolution preferences
type CatalogConfig struct {
	DefaultLimit        int  `mapstructure:"default_limit"`
	HideWatched         bool `mapstructure:"hide_watched"`
	AppendShowTitle     bool `mapstructure:"append_show_title"`
	AppendSeasonEpisode bool `mapstructure:"append_season_episode"`
	ExcludeSpecials     bool `mapstructure:"exclude_specials"`
	OnDeckExtended      bool `mapstructure:"ondeck_extended"`
	Parallel            bool `mapstructure:"parallel"`
	AuthWaitMax         int  `mapstructure:"auth_wait_max"` // seconds
}

// CacheConfig holds listing cache configuration
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // empty keeps the cache in memory only
}

// IndexConfig holds local index configuration
type IndexConfig struct {
	Path string `mapstructure:"path"` // empty disables the local index
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:   "",
			Token: "",
		},
		Catalog: CatalogConfig{
			DefaultLimit:        25,
			HideWatched:         false,
			AppendShowTitle:     false,
			AppendSeasonEpisode: false,
			ExcludeSpecials:     false,
			OnDeckExtended:      false,
			Parallel:            true,
			AuthWaitMax:         30,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(defaultDataPath(), "listings.db"),
		},
		Index: IndexConfig{
			Path: "",
		},
		Logging: LoggingConfig{
			File:       filepath.Join(defaultDataPath(), "marquee.log"),
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "marquee")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "marquee")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "marquee")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "marquee")
	}
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("MARQUEE")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// IsConfigured returns true if the server URL and token are set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.Token != ""
}
