package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ScanConfig holds defaults applied when scan flags are not given.
type ScanConfig struct {
	// Client is the default email client flavor to scan.
	Client string `mapstructure:"client" yaml:"client"`

	// Criteria is the default duplicate detection criterion.
	Criteria string `mapstructure:"criteria" yaml:"criteria"`

	// AutoClean removes duplicates without interactive confirmation.
	AutoClean bool `mapstructure:"auto_clean" yaml:"auto_clean"`

	// Keep is the default retention policy name
	// ("oldest", "newest", or "first").
	Keep string `mapstructure:"keep" yaml:"keep"`

	// LastCustomFolder remembers the most recent --scan-path argument.
	LastCustomFolder string `mapstructure:"last_custom_folder" yaml:"last_custom_folder"`

	// Workers bounds the fingerprinting worker pool. Zero means one worker
	// per CPU.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// HistoryConfig holds settings for the scan-history database.
type HistoryConfig struct {
	// Enabled controls whether scans and cleans are recorded.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// DBPath is the SQLite database location. Empty means the default
	// path under the user config directory.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Scan    ScanConfig    `mapstructure:"scan" yaml:"scan"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailsweep/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailsweep", "config.yaml")
}

// DefaultHistoryDBPath returns the default location of the scan-history
// database, next to the config file.
func DefaultHistoryDBPath() string {
	return filepath.Join(filepath.Dir(DefaultConfigPath()), "history.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Scan: ScanConfig{
			Client:   string(FlavorGeneric),
			Criteria: string(CriterionStrict),
			Keep:     "oldest",
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("scan.client", string(FlavorGeneric))
	v.SetDefault("scan.criteria", string(CriterionStrict))
	v.SetDefault("scan.keep", "oldest")
	v.SetDefault("history.enabled", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if _, err := ParseClientFlavor(cfg.Scan.Client); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if _, err := ParseCriterion(cfg.Scan.Criteria); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("scan", cfg.Scan)
	v.Set("history", cfg.History)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
