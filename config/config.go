package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gork-labs/gorka-sub004/tools"
)

// Budgets holds the per-session and per-spawn limits.
type Budgets struct {
	// MaxCalls caps completion API calls per session.
	MaxCalls int `yaml:"max_calls"`
	// MaxRefinements caps refinement iterations per session.
	MaxRefinements int `yaml:"max_refinements"`
	// MaxParallel caps concurrent sub-agent spawns.
	MaxParallel int `yaml:"max_parallel"`
	// MaxDepth caps delegation nesting (root = 0).
	MaxDepth int `yaml:"max_depth"`
	// SessionTTL is the inactivity age after which sessions are swept.
	SessionTTL time.Duration `yaml:"session_ttl"`
	// RequestTimeout bounds a single completion API request.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Config is the top-level orchestrator configuration.
type Config struct {
	// Model is the default model identifier for spawned agents.
	Model string `yaml:"model"`
	// Workspace is the directory granted to the auto-provisioned filesystem
	// server. Empty disables auto-provisioning.
	Workspace string `yaml:"workspace"`
	// ExtraDirs are additional directories granted to the filesystem server.
	ExtraDirs []string `yaml:"extra_dirs"`
	// Sessions is the directory for durable session files. Empty selects the
	// in-memory store.
	Sessions string `yaml:"sessions"`

	Budgets Budgets              `yaml:"budgets"`
	Servers []tools.ServerConfig `yaml:"servers"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Budgets.MaxCalls <= 0 {
		c.Budgets.MaxCalls = 25
	}
	if c.Budgets.MaxRefinements <= 0 {
		c.Budgets.MaxRefinements = 3
	}
	if c.Budgets.MaxParallel <= 0 {
		c.Budgets.MaxParallel = 4
	}
	if c.Budgets.MaxDepth <= 0 {
		c.Budgets.MaxDepth = 1
	}
	if c.Budgets.SessionTTL <= 0 {
		c.Budgets.SessionTTL = 24 * time.Hour
	}
	if c.Budgets.RequestTimeout <= 0 {
		c.Budgets.RequestTimeout = 2 * time.Minute
	}
}

// Load reads the YAML file at path, applies environment overrides and
// defaults, then validates. An empty path skips the file and builds the
// configuration from environment and defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays GORKA_* environment variables on top of file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("GORKA_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("GORKA_WORKSPACE"); v != "" {
		c.Workspace = v
	}
	if v := os.Getenv("GORKA_SESSIONS"); v != "" {
		c.Sessions = v
	}
	envInt("GORKA_MAX_CALLS", &c.Budgets.MaxCalls)
	envInt("GORKA_MAX_REFINEMENTS", &c.Budgets.MaxRefinements)
	envInt("GORKA_MAX_PARALLEL", &c.Budgets.MaxParallel)
	envInt("GORKA_MAX_DEPTH", &c.Budgets.MaxDepth)
	envDuration("GORKA_SESSION_TTL", &c.Budgets.SessionTTL)
	envDuration("GORKA_REQUEST_TIMEOUT", &c.Budgets.RequestTimeout)
}

func envInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func envDuration(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

// Validate checks cross-field consistency and every server entry.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Servers))
	for _, srv := range c.Servers {
		if err := srv.Validate(); err != nil {
			return err
		}
		if _, dup := seen[srv.ID]; dup {
			return fmt.Errorf("duplicate tool server id %s", srv.ID)
		}
		seen[srv.ID] = struct{}{}
	}
	return nil
}
