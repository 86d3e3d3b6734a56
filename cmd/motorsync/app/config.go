package app

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from the config file,
// environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool

	// Config file actually used
	ConfigFile string

	// Engine configuration
	Database            string
	Listen              string
	AutoAcceptThreshold int
	RejectFloor         int
	FetchConcurrency    int
	PricingCurvesFile   string
	Sources             []SourceConfig

	// Logging configuration
	LogLevel  string
	LogFormat string
}

// SourceConfig declares one configured source. Type selects the adapter:
// inventory_xml, price_list, or scrape.
type SourceConfig struct {
	Name     string `mapstructure:"name"`
	Type     string `mapstructure:"type"`
	Active   bool   `mapstructure:"active"`
	Priority int    `mapstructure:"priority"`

	// inventory_xml and price_list
	URL string `mapstructure:"url"`

	// inventory_xml filters
	Manufacturer string `mapstructure:"manufacturer"`
	Condition    string `mapstructure:"condition"`

	// scrape
	URLTemplate string `mapstructure:"url_template"`

	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// Timeout returns the configured per-fetch timeout, zero when unset so the
// adapter default applies.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// LoadConfig loads configuration in order of precedence: flags (applied by
// cobra afterwards), environment variables, .env files, config file,
// defaults.
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("MOTORSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("database", "motorsync.db")
	v.SetDefault("listen", ":8080")
	v.SetDefault("thresholds.auto_accept", 70)
	v.SetDefault("thresholds.reject_floor", 30)
	v.SetDefault("fetch_concurrency", 4)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigType("yaml")
		v.SetConfigName("motorsync")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/motorsync")
		// Missing config file is fine; defaults and env cover it.
		_ = v.ReadInConfig()
	}

	config := &Config{
		ConfigFile:          v.ConfigFileUsed(),
		Database:            v.GetString("database"),
		Listen:              v.GetString("listen"),
		AutoAcceptThreshold: v.GetInt("thresholds.auto_accept"),
		RejectFloor:         v.GetInt("thresholds.reject_floor"),
		FetchConcurrency:    v.GetInt("fetch_concurrency"),
		PricingCurvesFile:   v.GetString("pricing_curves"),
		LogLevel:            v.GetString("log_level"),
		LogFormat:           v.GetString("log_format"),
	}
	if err := v.UnmarshalKey("sources", &config.Sources); err != nil {
		return nil, err
	}
	return config, nil
}

// UpdateFromFlags applies parsed command flags, which take precedence over
// config file and environment values.
func (c *Config) UpdateFromFlags(verbose, quiet bool) {
	c.Verbose = verbose
	c.Quiet = quiet
}

// loadEnvFiles loads environment variables from .env files, with .env.local
// overriding .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}
