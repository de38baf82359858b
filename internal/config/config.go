// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults,
// optionally overlays a YAML file, and validates all settings on startup to
// fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// EnvPrefix is prepended to every environment variable name,
// e.g. DATACLEANER_SERVER_PORT.
const EnvPrefix = "DATACLEANER"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" split_words:"true"`
	Upload   UploadConfig   `yaml:"upload" split_words:"true"`
	Session  SessionConfig  `yaml:"session" split_words:"true"`
	Preview  PreviewConfig  `yaml:"preview" split_words:"true"`
	Chart    ChartConfig    `yaml:"chart" split_words:"true"`
	Rate     RateConfig     `yaml:"rate" split_words:"true"`
	Security SecurityConfig `yaml:"security" split_words:"true"`
	Logging  LoggingConfig  `yaml:"logging" split_words:"true"`
	Tracing  TracingConfig  `yaml:"tracing" split_words:"true"`
	UI       UIConfig       `yaml:"ui" split_words:"true"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to.
	Host string `yaml:"host" split_words:"true" default:"0.0.0.0"`

	// Port is the port to listen on.
	Port int `yaml:"port" split_words:"true" default:"8080"`

	ReadTimeout  time.Duration `yaml:"read_timeout" split_words:"true" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" split_words:"true" default:"60s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" split_words:"true" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true" default:"30s"`

	// RequestTimeout is the middleware timeout for requests.
	RequestTimeout time.Duration `yaml:"request_timeout" split_words:"true" default:"60s"`
}

// UploadConfig holds upload boundary settings.
type UploadConfig struct {
	// MaxFileSize is the maximum size of one request body in bytes (default: 200MB).
	MaxFileSize int64 `yaml:"max_file_size" split_words:"true" default:"209715200"`

	// MaxFiles is the maximum number of files accepted in one batch.
	MaxFiles int `yaml:"max_files" split_words:"true" default:"20"`

	// MaxConcurrent is the number of batches processed at the same time.
	MaxConcurrent int `yaml:"max_concurrent" split_words:"true" default:"4"`

	// MaxWaitTime is how long a request waits for a processing slot.
	MaxWaitTime time.Duration `yaml:"max_wait_time" split_words:"true" default:"30s"`
}

// SessionConfig controls how long uploaded bytes are held in memory so the
// interactive controls can re-run the pipeline.
type SessionConfig struct {
	TTL             time.Duration `yaml:"ttl" split_words:"true" default:"30m"`
	MaxEntries      int           `yaml:"max_entries" split_words:"true" default:"256"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" split_words:"true" default:"1m"`
}

// PreviewConfig controls dataset previews.
type PreviewConfig struct {
	Rows int `yaml:"rows" split_words:"true" default:"5"`
}

// ChartConfig controls the numeric bar chart.
type ChartConfig struct {
	// MaxBars caps the number of rows plotted.
	MaxBars int `yaml:"max_bars" split_words:"true" default:"500"`
}

// RateConfig holds per-client rate limiting settings.
type RateConfig struct {
	Enabled bool    `yaml:"enabled" split_words:"true" default:"true"`
	RPS     float64 `yaml:"rps" split_words:"true" default:"10"`
	Burst   int     `yaml:"burst" split_words:"true" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// AllowedOrigins is the CORS allow-list for the JSON API.
	AllowedOrigins []string `yaml:"allowed_origins" split_words:"true" default:"http://localhost:8080"`

	// EnableCSP enables Content-Security-Policy headers.
	EnableCSP bool `yaml:"enable_csp" split_words:"true" default:"true"`

	// TrustedProxies lists proxy CIDRs whose X-Real-IP and X-Forwarded-For
	// headers are honoured. Empty means headers are never trusted.
	TrustedProxies []string `yaml:"trusted_proxies" split_words:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level" split_words:"true" default:"info"`

	// Format is the log format: text or json.
	Format string `yaml:"format" split_words:"true" default:"text"`
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" split_words:"true" default:"false"`
	SampleRatio float64 `yaml:"sample_ratio" split_words:"true" default:"1"`
}

// UIConfig holds display preferences. None of these affect data.
type UIConfig struct {
	Title string `yaml:"title" split_words:"true" default:"Data Cleaner"`
	Wide  bool   `yaml:"wide" split_words:"true" default:"true"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
