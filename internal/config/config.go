package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/newthinker/pulse/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Poller    PollerConfig    `mapstructure:"poller"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	APIKey       string `mapstructure:"api_key"`
	TemplatesDir string `mapstructure:"templates_dir"`
}

// BackendConfig points at the REST backend the dashboard renders.
type BackendConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	CSRFCookie string        `mapstructure:"csrf_cookie"`
	CSRFToken  string        `mapstructure:"csrf_token"` // static override, skips the cookie
	CSRFPath   string        `mapstructure:"csrf_path"`  // GET here to obtain the cookie
}

// DashboardConfig declares which page regions exist.
type DashboardConfig struct {
	Regions      []string `mapstructure:"regions"`
	PriceSymbols []string `mapstructure:"price_symbols"`
	PriceHours   int      `mapstructure:"price_hours"`
	SignalLimit  int      `mapstructure:"signal_limit"`
}

type PollerConfig struct {
	MarketInterval    time.Duration `mapstructure:"market_interval"`
	SignalsInterval   time.Duration `mapstructure:"signals_interval"`
	SentimentInterval time.Duration `mapstructure:"sentiment_interval"`
	PriceInterval     time.Duration `mapstructure:"price_interval"`
	RunOnStart        bool          `mapstructure:"run_on_start"`
	Backoff           BackoffConfig `mapstructure:"backoff"`
}

// BackoffConfig stretches the delay after failed polls. Off by default.
type BackoffConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Min     time.Duration `mapstructure:"min"`
	Max     time.Duration `mapstructure:"max"`
	Factor  float64       `mapstructure:"factor"`
}

type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file, layered over Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix("PULSE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.api_key", d.Server.APIKey)
	v.SetDefault("server.templates_dir", d.Server.TemplatesDir)
	v.SetDefault("backend.base_url", d.Backend.BaseURL)
	v.SetDefault("backend.timeout", d.Backend.Timeout)
	v.SetDefault("backend.csrf_cookie", d.Backend.CSRFCookie)
	v.SetDefault("backend.csrf_token", d.Backend.CSRFToken)
	v.SetDefault("backend.csrf_path", d.Backend.CSRFPath)
	v.SetDefault("dashboard.regions", d.Dashboard.Regions)
	v.SetDefault("dashboard.price_symbols", d.Dashboard.PriceSymbols)
	v.SetDefault("dashboard.price_hours", d.Dashboard.PriceHours)
	v.SetDefault("dashboard.signal_limit", d.Dashboard.SignalLimit)
	v.SetDefault("poller.market_interval", d.Poller.MarketInterval)
	v.SetDefault("poller.signals_interval", d.Poller.SignalsInterval)
	v.SetDefault("poller.sentiment_interval", d.Poller.SentimentInterval)
	v.SetDefault("poller.price_interval", d.Poller.PriceInterval)
	v.SetDefault("poller.run_on_start", d.Poller.RunOnStart)
	v.SetDefault("poller.backoff.enabled", d.Poller.Backoff.Enabled)
	v.SetDefault("poller.backoff.min", d.Poller.Backoff.Min)
	v.SetDefault("poller.backoff.max", d.Poller.Backoff.Max)
	v.SetDefault("poller.backoff.factor", d.Poller.Backoff.Factor)
	v.SetDefault("archive.enabled", d.Archive.Enabled)
	v.SetDefault("archive.type", d.Archive.Type)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("archive.s3.bucket", d.Archive.S3.Bucket)
	v.SetDefault("archive.s3.endpoint", d.Archive.S3.Endpoint)
	v.SetDefault("archive.s3.region", d.Archive.S3.Region)
	v.SetDefault("archive.s3.access_key", d.Archive.S3.AccessKey)
	v.SetDefault("archive.s3.secret_key", d.Archive.S3.SecretKey)
	v.SetDefault("archive.s3.prefix", d.Archive.S3.Prefix)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Backend: BackendConfig{
			BaseURL:    "http://localhost:8000",
			Timeout:    30 * time.Second,
			CSRFCookie: "csrftoken",
			CSRFPath:   "/",
		},
		Dashboard: DashboardConfig{
			Regions:      []string{"market", "signals", "sentiment", "price"},
			PriceSymbols: []string{"BTC/USD"},
			PriceHours:   24,
			SignalLimit:  5,
		},
		Poller: PollerConfig{
			MarketInterval:    5 * time.Second,
			SignalsInterval:   10 * time.Second,
			SentimentInterval: 30 * time.Second,
			PriceInterval:     10 * time.Second,
			Backoff: BackoffConfig{
				Min:    5 * time.Second,
				Max:    5 * time.Minute,
				Factor: 2,
			},
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "data/archive",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// HasRegion reports whether the dashboard layout includes the region group.
func (c *Config) HasRegion(name string) bool {
	for _, r := range c.Dashboard.Regions {
		if r == name {
			return true
		}
	}
	return false
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	// Backend validation
	if c.Backend.BaseURL == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("backend base_url required"))
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("backend base_url must be an absolute URL, got %q", c.Backend.BaseURL))
	}

	// Poller validation
	intervals := map[string]time.Duration{
		"market_interval":    c.Poller.MarketInterval,
		"signals_interval":   c.Poller.SignalsInterval,
		"sentiment_interval": c.Poller.SentimentInterval,
		"price_interval":     c.Poller.PriceInterval,
	}
	for name, d := range intervals {
		if d <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.Poller.Backoff.Enabled && c.Poller.Backoff.Max < c.Poller.Backoff.Min {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("backoff max %s is below min %s", c.Poller.Backoff.Max, c.Poller.Backoff.Min))
	}

	if c.Dashboard.SignalLimit < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("signal_limit must be positive, got %d", c.Dashboard.SignalLimit))
	}

	// Archive validation - if enabled, check the backend config exists
	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive path required when type is localfs"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("s3 bucket required when type is s3"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown archive type %q", c.Archive.Type))
		}
	}

	return nil
}
