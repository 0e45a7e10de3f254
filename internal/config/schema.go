// Package config handles YAML configuration loading, environment variable
// expansion, and validation for chatloop.
package config

import (
	"github.com/flemzord/chatloop/internal/provider"
	"github.com/flemzord/chatloop/internal/telemetry"
	"gopkg.in/yaml.v3"
)

// DefaultBackend is the generation backend used when none is configured.
const DefaultBackend = "provider.hf_inference"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Only "1" is supported.
	Version string `yaml:"version"`

	// Model is the name of the pretrained checkpoint to generate with.
	Model string `yaml:"model"`

	// Window is the number of recent turns kept in conversation memory.
	Window int `yaml:"window"`

	// UseGPU asks the backend to prefer a GPU.
	UseGPU bool `yaml:"use_gpu"`

	// Backend is the ID of the generation backend.
	Backend string `yaml:"backend"`

	// Generation holds the per-call generation options.
	Generation provider.GenerateOptions `yaml:"generation"`

	Log       LogConfig        `yaml:"log"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	Telemetry telemetry.Config `yaml:"telemetry"`

	// Providers maps backend IDs to their raw YAML configuration.
	// Each backend decodes its own section.
	Providers map[string]yaml.Node `yaml:"providers"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address, e.g. ":9090". Empty disables the endpoint.
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Version:    "1",
		Model:      "distilgpt2",
		Window:     4,
		Backend:    DefaultBackend,
		Generation: provider.DefaultGenerateOptions(),
		Log:        LogConfig{Level: "warn"},
	}
}

// ProviderNode returns the raw configuration for backend id, or nil when
// the file has no section for it.
func (c *Config) ProviderNode(id string) *yaml.Node {
	node, ok := c.Providers[id]
	if !ok {
		return nil
	}
	return &node
}
