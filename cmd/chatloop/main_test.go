package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	for _, want := range []string{"chatloop dev", "provider.hf_inference", "provider.openai_compatible"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigCheck(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(good, []byte("version: \"1\"\nmodel: gpt2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("version: \"1\"\nwindow: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "config", "check", good)
	if err != nil {
		t.Fatalf("config check good: %v", err)
	}
	if !strings.Contains(out, "Configuration OK (backend provider.hf_inference, model gpt2, window 4)") {
		t.Errorf("output = %q", out)
	}

	if _, err := execute(t, "config", "check", bad); err == nil || !strings.Contains(err.Error(), "window must be at least 1") {
		t.Errorf("config check bad: err = %v", err)
	}
}

func TestOverrides_OnlyChangedFlags(t *testing.T) {
	t.Parallel()

	cmd := rootCmd()
	if err := cmd.ParseFlags([]string{"--window", "6", "--use-gpu"}); err != nil {
		t.Fatal(err)
	}
	o := overrides(cmd)
	if o.Window == nil || *o.Window != 6 {
		t.Errorf("Window = %v, want 6", o.Window)
	}
	if o.UseGPU == nil || !*o.UseGPU {
		t.Errorf("UseGPU = %v, want true", o.UseGPU)
	}
	if o.Model != nil || o.MaxNewTokens != nil || o.Backend != nil || o.LogLevel != nil || o.MetricsAddr != nil {
		t.Errorf("unset flags produced overrides: %+v", o)
	}
}

func TestRootCmd_InvalidFlagValue(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	_, err := execute(t, "--window", "0")
	if err == nil || !strings.Contains(err.Error(), "window must be at least 1") {
		t.Fatalf("err = %v, want window validation error", err)
	}
}
