package config

import (
	"time"

	redisclient "github.com/vietddude/seqfetch/internal/infra/redis"
	"github.com/vietddude/seqfetch/internal/infra/source/provider"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Output   OutputConfig        `yaml:"output"`
	Fetch    FetchConfig         `yaml:"fetch"`
	Sources  []provider.Endpoint `yaml:"sources"`
	Metadata provider.Endpoint   `yaml:"metadata"`
	Redis    redisclient.Config  `yaml:"redis"`
	Metrics  MetricsConfig       `yaml:"metrics"`
	Logging  LoggingConfig       `yaml:"logging"`
}

// OutputConfig holds where and how artifacts are written.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	Overwrite bool   `yaml:"overwrite"`
}

// FetchConfig holds request, retry and pacing settings.
type FetchConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	Retries     *int          `yaml:"retries"` // nil = default; 0 disables retries
	BackoffBase float64       `yaml:"backoff_base"`
	BackoffUnit time.Duration `yaml:"backoff_unit"`
	ItemDelay   time.Duration `yaml:"item_delay"`
	UserAgent   string        `yaml:"user_agent"`
	IDPattern   string        `yaml:"id_pattern"`
}

// MetricsConfig enables the Prometheus endpoint. Port 0 disables it.
type MetricsConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// RetryCount returns the configured retries.
func (f FetchConfig) RetryCount() int {
	if f.Retries == nil {
		return DefaultRetries
	}
	return *f.Retries
}
