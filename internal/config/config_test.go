package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/flemzord/chatloop/internal/provider"
	"gopkg.in/yaml.v3"
)

var registerOnce sync.Once

// registerTestBackend makes DefaultBackend known to the provider registry.
func registerTestBackend(t *testing.T) {
	t.Helper()
	registerOnce.Do(func() {
		provider.RegisterBackend(provider.BackendInfo{
			ID: DefaultBackend,
			New: func(*yaml.Node, provider.Env) (provider.Generator, error) {
				return stubGenerator{}, nil
			},
		})
	})
}

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string, provider.GenerateOptions) ([]provider.Generation, error) {
	return nil, nil
}

func (stubGenerator) ModelName() string { return "stub" }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()
	registerTestBackend(t)

	cfg := Default()
	if cfg.Model != "distilgpt2" {
		t.Errorf("Model = %q, want distilgpt2", cfg.Model)
	}
	if cfg.Window != 4 {
		t.Errorf("Window = %d, want 4", cfg.Window)
	}
	if cfg.UseGPU {
		t.Error("UseGPU = true, want false")
	}
	if cfg.Generation.MaxNewTokens != 120 {
		t.Errorf("MaxNewTokens = %d, want 120", cfg.Generation.MaxNewTokens)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate(Default()) = %v", err)
	}
}

func TestLoad_KeepsDefaultsForOmittedFields(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "chatloop.yaml", `
version: "1"
model: gpt2-medium
generation:
  max_new_tokens: 64
providers:
  provider.hf_inference:
    timeout: 30s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model != "gpt2-medium" {
		t.Errorf("Model = %q, want gpt2-medium", cfg.Model)
	}
	if cfg.Window != 4 {
		t.Errorf("Window = %d, want default 4", cfg.Window)
	}
	if cfg.Generation.MaxNewTokens != 64 {
		t.Errorf("MaxNewTokens = %d, want 64", cfg.Generation.MaxNewTokens)
	}
	if !cfg.Generation.DoSample || cfg.Generation.TopP != 0.9 || cfg.Generation.Temperature != 0.7 {
		t.Errorf("sampling defaults lost: %+v", cfg.Generation)
	}
	if cfg.ProviderNode(DefaultBackend) == nil {
		t.Error("ProviderNode() = nil, want section")
	}
	if cfg.ProviderNode("provider.other") != nil {
		t.Error("ProviderNode() for missing backend should be nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want fs.ErrNotExist", err)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("model: [unterminated"), "inline")
	if err == nil || !strings.Contains(err.Error(), "config: parsing inline") {
		t.Fatalf("Parse() error = %v, want parsing error", err)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("CHATLOOP_TEST_MODEL", "gpt2")

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr string
	}{
		{name: "set variable", in: "model: ${CHATLOOP_TEST_MODEL}", want: "model: gpt2"},
		{name: "default used", in: "model: ${CHATLOOP_TEST_UNSET:-distilgpt2}", want: "model: distilgpt2"},
		{name: "set wins over default", in: "model: ${CHATLOOP_TEST_MODEL:-other}", want: "model: gpt2"},
		{name: "empty default", in: "key: '${CHATLOOP_TEST_UNSET:-}'", want: "key: ''"},
		{name: "no variables", in: "window: 4", want: "window: 4"},
		{name: "unresolved", in: "key: ${CHATLOOP_TEST_UNSET}", wantErr: "unresolved variable: CHATLOOP_TEST_UNSET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnv([]byte(tt.in))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expandEnv() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnv() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("expandEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	registerTestBackend(t)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad version", mutate: func(c *Config) { c.Version = "2" }, wantErr: "unsupported version"},
		{name: "empty model", mutate: func(c *Config) { c.Model = "" }, wantErr: "model is required"},
		{name: "zero window", mutate: func(c *Config) { c.Window = 0 }, wantErr: "window must be at least 1"},
		{name: "bad generation", mutate: func(c *Config) { c.Generation.MaxNewTokens = 0 }, wantErr: "config: generation"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level"},
		{name: "bad telemetry", mutate: func(c *Config) { c.Telemetry.OTLPEndpoint = "localhost" }, wantErr: "otlp_endpoint"},
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "provider.nope" }, wantErr: `unknown backend "provider.nope"`},
		{
			name:    "unknown provider section",
			mutate:  func(c *Config) { c.Providers = map[string]yaml.Node{"provider.nope": {}} },
			wantErr: `providers: unknown backend "provider.nope"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	t.Parallel()
	registerTestBackend(t)

	cfg := Default()
	cfg.Model = ""
	cfg.Window = -1
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"model is required", "window must be at least 1"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Log.Level = "debug"
	level, err := cfg.LogLevel()
	if err != nil || level.String() != "DEBUG" {
		t.Errorf("LogLevel() = %v, %v; want DEBUG", level, err)
	}

	cfg.Log.Level = ""
	level, err = cfg.LogLevel()
	if err != nil || level.String() != "WARN" {
		t.Errorf("empty LogLevel() = %v, %v; want WARN", level, err)
	}
}

func TestResolvePath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(t.TempDir())

	if got := ResolvePath(); got != "" {
		t.Fatalf("ResolvePath() = %q, want empty", got)
	}

	local := writeFile(t, ".", FileName, "version: \"1\"\n")
	if got := ResolvePath(); got != local {
		t.Errorf("ResolvePath() = %q, want %q", got, local)
	}

	want := writeFile(t, xdg, filepath.Join("chatloop", FileName), "version: \"1\"\n")
	if got := ResolvePath(); got != want {
		t.Errorf("ResolvePath() = %q, want XDG path %q", got, want)
	}
}
