package hfinference

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the hosted Hugging Face Inference API.
const DefaultBaseURL = "https://api-inference.huggingface.co/models"

// Config holds the configuration for the Hugging Face inference backend.
type Config struct {
	// BaseURL is joined with the model name to form the request URL.
	BaseURL string `yaml:"base_url"`

	// Endpoint, when set, is used verbatim instead of BaseURL/<model>.
	// Point it at a text-generation-inference server's /generate route.
	Endpoint string `yaml:"endpoint"`

	APIKey    string            `yaml:"api_key"`
	APIKeyEnv string            `yaml:"api_key_env"`
	Headers   map[string]string `yaml:"headers"`

	// WaitForModel asks the hosted API to block until a cold model is loaded
	// instead of answering 503. Defaults to true.
	WaitForModel *bool `yaml:"wait_for_model"`

	// Timeout bounds the wait for response headers. Generation time counts.
	Timeout time.Duration `yaml:"timeout"`
}

// defaults sets default values for unset fields.
func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "HF_TOKEN"
	}
	if c.WaitForModel == nil {
		wait := true
		c.WaitForModel = &wait
	}
	if c.Timeout == 0 {
		c.Timeout = 120 * time.Second
	}
}

// validate returns an error if a field is unusable.
func (c *Config) validate() error {
	for name, raw := range map[string]string{"base_url": c.BaseURL, "endpoint": c.Endpoint} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s is not a valid URL: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s scheme must be http or https, got %q", name, u.Scheme)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}
