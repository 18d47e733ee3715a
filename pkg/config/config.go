// Package config locates the VestBridge home directory and loads its
// configuration file. Every component takes explicit paths derived from a
// Config value; there is no ambient global state, so tests construct a
// fresh Config over a temp directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the resolved VestBridge configuration: the home directory
// plus the settings stored in <vest_dir>/config.yaml.
type Config struct {
	VestDir string `yaml:"-"`

	DefaultBroker string        `yaml:"default_broker"`
	DefaultAgent  string        `yaml:"default_agent,omitempty"`
	Logging       LoggingConfig `yaml:"logging"`
	Webhooks      []HookConfig  `yaml:"webhooks,omitempty"`
}

// LoggingConfig configures the serve daemon's structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// HookConfig is one owner-notification webhook endpoint.
type HookConfig struct {
	URL    string   `yaml:"url"`
	Secret string   `yaml:"secret,omitempty"`
	Events []string `yaml:"events,omitempty"` // empty = all events
}

// Wants reports whether the hook subscribes to an event type. An empty
// Events list subscribes to everything.
func (h HookConfig) Wants(eventType string) bool {
	if len(h.Events) == 0 {
		return true
	}
	for _, e := range h.Events {
		if e == eventType {
			return true
		}
	}
	return false
}

// DefaultDir returns the VestBridge home directory: $VEST_DIR if set,
// otherwise ~/.vest.
func DefaultDir() string {
	if dir := os.Getenv("VEST_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vest"
	}
	return filepath.Join(home, ".vest")
}

// Default returns the default configuration rooted at vestDir.
func Default(vestDir string) *Config {
	return &Config{
		VestDir:       vestDir,
		DefaultBroker: "paper",
		Logging:       LoggingConfig{Level: "info"},
	}
}

// Load reads <vestDir>/config.yaml, returning defaults if it is absent.
func Load(vestDir string) (*Config, error) {
	cfg := Default(vestDir)

	data, err := os.ReadFile(cfg.ConfigPath())
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.VestDir = vestDir
	return cfg, nil
}

// Save writes the configuration to <vestDir>/config.yaml.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.VestDir, 0o755); err != nil {
		return fmt.Errorf("create vest dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// EnsureDirs creates the directory structure under the vest dir.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.VestDir, c.OwnerDir(), c.MandatesDir(), c.AgentsDir(), c.PaperDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) ConfigPath() string  { return filepath.Join(c.VestDir, "config.yaml") }
func (c *Config) OwnerDir() string    { return filepath.Join(c.VestDir, "owner") }
func (c *Config) MandatesDir() string { return filepath.Join(c.VestDir, "mandates") }
func (c *Config) AgentsDir() string   { return filepath.Join(c.VestDir, "agents") }
func (c *Config) PaperDir() string    { return filepath.Join(c.VestDir, "paper") }

// PrivateKeyPath is the owner's Ed25519 private key (0400 once written).
func (c *Config) PrivateKeyPath() string { return filepath.Join(c.OwnerDir(), "private.pem") }

// PublicKeyPath is the owner's world-readable Ed25519 public key.
func (c *Config) PublicKeyPath() string { return filepath.Join(c.OwnerDir(), "public.pem") }

// PaperStatePath is the paper broker's persisted state file.
func (c *Config) PaperStatePath() string { return filepath.Join(c.PaperDir(), "state.json") }

// AgentDir is the per-agent directory holding metadata and the audit log.
func (c *Config) AgentDir(agentID string) string {
	return filepath.Join(c.AgentsDir(), agentID)
}

// AgentAuditPath is the per-agent append-only audit log.
func (c *Config) AgentAuditPath(agentID string) string {
	return filepath.Join(c.AgentDir(agentID), "audit.jsonl")
}

// MandatePath resolves a named mandate file, preferring .yaml over .yml.
// Returns the .yaml path even if neither exists so callers can create it.
func (c *Config) MandatePath(name string) string {
	yamlPath := filepath.Join(c.MandatesDir(), name+".yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}
	ymlPath := filepath.Join(c.MandatesDir(), name+".yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}
	return yamlPath
}

// MandateFiles lists every mandate file currently in the mandates dir.
func (c *Config) MandateFiles() ([]string, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(c.MandatesDir(), pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}
