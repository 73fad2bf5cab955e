package config

import (
	"fmt"
	"os"
	"time"

	"multiview/pkg/validation"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		StaticDir       string        `yaml:"static_dir"`
	} `yaml:"server"`

	Twitch struct {
		ClientID       string        `yaml:"client_id"`
		ClientSecret   string        `yaml:"client_secret"`
		AuthURL        string        `yaml:"auth_url"`
		APIURL         string        `yaml:"api_url"`
		CategoryName   string        `yaml:"category_name"`
		PageSize       int           `yaml:"page_size"`
		RequestTimeout time.Duration `yaml:"request_timeout"` // 0 keeps the transport default
		SingleFlight   bool          `yaml:"single_flight"`
	} `yaml:"twitch"`

	Viewer struct {
		MaxStreams int   `yaml:"max_streams"`
		Layouts    []int `yaml:"layouts"`
	} `yaml:"viewer"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		ServiceName string  `yaml:"service_name"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"` // global concurrent HTTP requests
		} `yaml:"http"`
	} `yaml:"rate_limiting"`
}

// Configured reports whether both Twitch app credentials are present.
func (c *Config) Configured() bool {
	return c.Twitch.ClientID != "" && c.Twitch.ClientSecret != ""
}

// Validate checks that configuration values are within acceptable ranges.
// Missing Twitch credentials are not a validation error: the server still
// starts and reports itself as unconfigured.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Twitch
	if err := validation.ValidateURL(c.Twitch.AuthURL, "twitch.auth_url"); err != nil {
		return err
	}
	if err := validation.ValidateURL(c.Twitch.APIURL, "twitch.api_url"); err != nil {
		return err
	}
	if err := validation.ValidateCategoryName(c.Twitch.CategoryName, "twitch.category_name"); err != nil {
		return err
	}
	if err := validation.ValidateRange(c.Twitch.PageSize, 1, 100, "twitch.page_size"); err != nil {
		return err
	}
	if c.Twitch.RequestTimeout < 0 {
		return fmt.Errorf("twitch.request_timeout must be >= 0")
	}

	// Viewer
	if c.Viewer.MaxStreams <= 0 {
		return fmt.Errorf("viewer.max_streams must be > 0")
	}
	for _, n := range c.Viewer.Layouts {
		if n <= 0 {
			return fmt.Errorf("viewer.layouts entries must be > 0")
		}
	}

	// Tracing
	if c.Tracing.Enabled {
		if err := validation.ValidateURL(c.Tracing.JaegerURL, "tracing.jaeger_url"); err != nil {
			return err
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within [0, 1]")
		}
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.http.max_concurrent must be >= 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":3000"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Twitch.AuthURL = "https://id.twitch.tv/oauth2/token"
	cfg.Twitch.APIURL = "https://api.twitch.tv/helix"
	cfg.Twitch.CategoryName = "Stream for Humanity"
	cfg.Twitch.PageSize = 100

	cfg.Viewer.MaxStreams = 4
	cfg.Viewer.Layouts = []int{1, 2, 4, 6, 9}

	cfg.CORS.AllowedOrigins = []string{"*"}

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.ServiceName = "multiview"
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	// Rate limiting defaults (disabled by default)
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 20
	cfg.RateLimiting.HTTP.Burst = 40
	cfg.RateLimiting.HTTP.MaxConcurrent = 0

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if id := os.Getenv("TWITCH_CLIENT_ID"); id != "" {
		c.Twitch.ClientID = id
	}
	if secret := os.Getenv("TWITCH_CLIENT_SECRET"); secret != "" {
		c.Twitch.ClientSecret = secret
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Address = ":" + port
	}
	if addr := os.Getenv("MULTIVIEW_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("MULTIVIEW_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if dir := os.Getenv("MULTIVIEW_STATIC_DIR"); dir != "" {
		c.Server.StaticDir = dir
	}
}
