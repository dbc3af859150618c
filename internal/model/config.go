package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SupabaseConfig points the client at the hosted table store.
type SupabaseConfig struct {
	// URL is the project root, e.g. https://xyz.supabase.co.
	URL string `mapstructure:"url" yaml:"url"`

	// AnonKey is the public API key sent as the apikey header.
	AnonKey string `mapstructure:"anon_key" yaml:"anon_key"`
}

// CacheConfig controls the offline cache controller.
type CacheConfig struct {
	// Name is the current cache generation. Generations with any other
	// name are purged on activation.
	Name string `mapstructure:"name" yaml:"name"`

	// Path is the sqlite file holding cached responses.
	Path string `mapstructure:"path" yaml:"path"`

	// Origin is prefixed to relative asset paths.
	Origin string `mapstructure:"origin" yaml:"origin"`

	// Assets is the manifest pre-cached on install.
	Assets []string `mapstructure:"assets" yaml:"assets"`

	// APIPrefixes are URL path prefixes that are never cached.
	APIPrefixes []string `mapstructure:"api_prefixes" yaml:"api_prefixes"`
}

// ReportConfig holds report rendering preferences.
type ReportConfig struct {
	// Locale selects day abbreviations ("ja" or "en").
	Locale string `mapstructure:"locale" yaml:"locale"`

	// Timezone is an IANA name; empty means the system local zone.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Supabase SupabaseConfig `mapstructure:"supabase" yaml:"supabase"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// Location resolves Report.Timezone, falling back to time.Local.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Report.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Report.Timezone, err)
	}
	return loc, nil
}

// Validate checks the settings required to reach the table store.
func (c *AppConfig) Validate() error {
	if c.Supabase.URL == "" {
		return errors.New("supabase.url is not configured")
	}
	if c.Supabase.AnonKey == "" {
		return errors.New("supabase.anon_key is not configured")
	}
	return nil
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/devtodo/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultCachePath returns the default location of the offline cache DB.
func DefaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", "devtodo-cache.db")
	}
	return filepath.Join(dir, "devtodo", "offline.db")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "devtodo")
}

// DefaultAssets is the static manifest pre-cached by the offline controller.
var DefaultAssets = []string{
	"/",
	"/index.html",
	"/css/styles.css",
	"/js/app.js",
	"/js/components.js",
	"/js/reports.js",
	"/manifest.json",
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Cache: CacheConfig{
			Name:        "devtodo-v1",
			Path:        DefaultCachePath(),
			Assets:      append([]string(nil), DefaultAssets...),
			APIPrefixes: []string{"/api/", "/rest/v1/", "/auth/v1/"},
		},
		Report: ReportConfig{
			Locale: "ja",
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// newViper builds a viper instance with defaults and DEVTODO_* environment
// overrides applied.
func newViper(path string) *viper.Viper {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("devtodo")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values. Defaults
	// also make the keys known to AutomaticEnv during Unmarshal.
	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.anon_key", "")
	v.SetDefault("cache.name", def.Cache.Name)
	v.SetDefault("cache.path", def.Cache.Path)
	v.SetDefault("cache.origin", "")
	v.SetDefault("cache.assets", def.Cache.Assets)
	v.SetDefault("cache.api_prefixes", def.Cache.APIPrefixes)
	v.SetDefault("report.locale", def.Report.Locale)
	v.SetDefault("report.timezone", "")
	v.SetDefault("display.theme", def.Display.Theme)
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults plus environment overrides are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Supabase.URL = strings.TrimRight(cfg.Supabase.URL, "/")

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

	v.Set("supabase", cfg.Supabase)
	v.Set("cache", cfg.Cache)
	v.Set("report", cfg.Report)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
