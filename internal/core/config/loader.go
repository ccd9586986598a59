package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vietddude/seqfetch/internal/core/domain"
	"github.com/vietddude/seqfetch/internal/infra/source/provider"
	"gopkg.in/yaml.v2"
)

// Defaults applied by Load and Default.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultRetries     = 2
	DefaultBackoffBase = 1.5
	DefaultBackoffUnit = time.Second
	DefaultItemDelay   = 150 * time.Millisecond
)

// Default returns a configuration with every default filled in.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file. A missing file at path yields
// the defaults when allowMissing is set.
func Load(path string, allowMissing bool) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if allowMissing && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = DefaultTimeout
	}
	if c.Fetch.BackoffBase == 0 {
		c.Fetch.BackoffBase = DefaultBackoffBase
	}
	if c.Fetch.BackoffUnit == 0 {
		c.Fetch.BackoffUnit = DefaultBackoffUnit
	}
	if c.Fetch.ItemDelay == 0 {
		c.Fetch.ItemDelay = DefaultItemDelay
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = provider.DefaultUserAgent
	}
	if c.Fetch.IDPattern == "" {
		c.Fetch.IDPattern = domain.DefaultIDPattern
	}
	if len(c.Sources) == 0 {
		c.Sources = provider.DefaultEndpoints()
	}
	if c.Metadata.Template == "" {
		c.Metadata = provider.RCSBEntry
	}
	if c.Metadata.Name == "" {
		c.Metadata.Name = provider.RCSBEntry.Name
	}
	if c.Redis.Namespace == "" {
		c.Redis.Namespace = "seqfetch"
	}
}

// Validate rejects configurations that cannot run.
func (c *AppConfig) Validate() error {
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout)
	}
	if c.Fetch.RetryCount() < 0 {
		return fmt.Errorf("fetch.retries must not be negative, got %d", c.Fetch.RetryCount())
	}
	if c.Fetch.BackoffBase <= 1 {
		return fmt.Errorf("fetch.backoff_base must be > 1, got %v", c.Fetch.BackoffBase)
	}
	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == "" || s.Template == "" {
			return fmt.Errorf("sources[%d]: name and url are required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("sources[%d]: duplicate source name %q", i, s.Name)
		}
		seen[s.Name] = true
	}
	if _, err := domain.NewExtractor(c.Fetch.IDPattern); err != nil {
		return err
	}
	return nil
}
