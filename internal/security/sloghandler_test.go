package security

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer, r *Redactor) *slog.Logger {
	inner := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewRedactingHandler(inner, r))
}

func TestRedactingHandler_RedactsMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestLogger(&buf, NewRedactor())

	logger.Info("key is hf_abcdefghijklmnopqrstuvwxyz")

	output := buf.String()
	if strings.Contains(output, "hf_abcdefghijklmnopqrstuvwxyz") {
		t.Errorf("secret found in log output: %s", output)
	}
	if !strings.Contains(output, RedactPlaceholder) {
		t.Errorf("expected placeholder in output: %s", output)
	}
}

func TestRedactingHandler_RedactsAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewRedactor()
	r.AddLiteral("super-secret-value")
	logger := newTestLogger(&buf, r)

	logger.Info("test",
		"token", "super-secret-value",
		"safe", "visible",
		"err", errors.New("auth failed for super-secret-value"),
		slog.Group("backend", "api_key", "super-secret-value"),
	)

	output := buf.String()
	if strings.Contains(output, "super-secret-value") {
		t.Errorf("secret found in attributes: %s", output)
	}
	if !strings.Contains(output, "visible") {
		t.Errorf("safe value missing from output: %s", output)
	}
}

func TestRedactingHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewRedactor()
	r.AddLiteral("persistent-secret")
	logger := newTestLogger(&buf, r).With("api_key", "persistent-secret").WithGroup("turn")

	logger.Info("test message", "n", 1)

	output := buf.String()
	if strings.Contains(output, "persistent-secret") {
		t.Errorf("secret found in WithAttrs output: %s", output)
	}
	if !strings.Contains(output, "turn.n=1") {
		t.Errorf("group prefix missing from output: %s", output)
	}
}

func TestRedactingHandler_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := slog.New(NewRedactingHandler(inner, NewRedactor()))

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info record written at warn level: %s", buf.String())
	}
}
