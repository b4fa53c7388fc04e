// Package config loads the prospect run configuration from YAML with
// defaults matching the documented policy constants.
package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// DefaultConfigPath is the default relative path for the config file.
const DefaultConfigPath = ".prospect/config.yaml"

// LLM holds language model endpoint settings. The API key is read from the
// environment variable named in APIKeyEnv, never from the file itself.
type LLM struct {
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Search holds web search endpoint settings.
type Search struct {
	BaseURL   string        `yaml:"base_url"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`
	Feeds     []string      `yaml:"feeds"` // optional RSS feeds merged into web results
}

// Evidence controls the retrieval fallback chain.
type Evidence struct {
	MinimumItems int    `yaml:"minimum_items"` // per-query floor before web fallback fires
	StorePath    string `yaml:"store_path"`    // SQLite similarity index; empty = in-memory
}

// Thresholds are the decision policy constants. They are configuration, not
// derived values.
type Thresholds struct {
	Invest      float64 `yaml:"invest"`      // total >= Invest → invest/recommend
	Conditional float64 `yaml:"conditional"` // total >= Conditional → invest/conditional
}

// Report controls the report branch.
type Report struct {
	Enabled  bool   `yaml:"enabled"`
	Renderer string `yaml:"renderer"` // none | html | pdf
	OutDir   string `yaml:"out_dir"`
	Author   string `yaml:"author"`
}

// Logging controls the slog default.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the root configuration record.
type Config struct {
	LLM        LLM        `yaml:"llm"`
	Search     Search     `yaml:"search"`
	Evidence   Evidence   `yaml:"evidence"`
	Thresholds Thresholds `yaml:"thresholds"`
	Report     Report     `yaml:"report"`
	Logging    Logging    `yaml:"logging"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LLM: LLM{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			Timeout:   60 * time.Second,
		},
		Search: Search{
			BaseURL:   "https://api.tavily.com",
			APIKeyEnv: "TAVILY_API_KEY",
			Timeout:   20 * time.Second,
		},
		Evidence: Evidence{
			MinimumItems: 2,
			StorePath:    ".prospect/evidence.db",
		},
		Thresholds: Thresholds{
			Invest:      50,
			Conditional: 30,
		},
		Report: Report{
			Enabled:  true,
			Renderer: "html",
			OutDir:   "outputs",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path and overlays it on Default(). A missing file is not an
// error: the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize backfills zero values so partial files keep working defaults.
func (c *Config) normalize() {
	d := Default()
	if c.Evidence.MinimumItems <= 0 {
		c.Evidence.MinimumItems = d.Evidence.MinimumItems
	}
	if c.Thresholds.Invest == 0 {
		c.Thresholds.Invest = d.Thresholds.Invest
	}
	if c.Thresholds.Conditional == 0 {
		c.Thresholds.Conditional = d.Thresholds.Conditional
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = d.LLM.Timeout
	}
	if c.Search.Timeout <= 0 {
		c.Search.Timeout = d.Search.Timeout
	}
	if c.Report.Renderer == "" {
		c.Report.Renderer = d.Report.Renderer
	}
	if c.Report.OutDir == "" {
		c.Report.OutDir = d.Report.OutDir
	}
}

// APIKey resolves the LLM API key from the environment.
func (l LLM) APIKey() string {
	if l.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(l.APIKeyEnv)
}

// APIKey resolves the search API key from the environment.
func (s Search) APIKey() string {
	if s.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(s.APIKeyEnv)
}
