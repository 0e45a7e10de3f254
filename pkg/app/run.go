// Package app wires configuration, logging, telemetry and the generation
// backend together and runs a chat session on the terminal.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flemzord/chatloop/internal/chat"
	"github.com/flemzord/chatloop/internal/config"
	"github.com/flemzord/chatloop/internal/device"
	"github.com/flemzord/chatloop/internal/memory"
	"github.com/flemzord/chatloop/internal/metrics"
	"github.com/flemzord/chatloop/internal/provider"
	"github.com/flemzord/chatloop/internal/security"
	"github.com/flemzord/chatloop/internal/telemetry"
	"github.com/google/uuid"
)

// shutdownTimeout bounds the flush of traces and the metrics server stop.
const shutdownTimeout = 5 * time.Second

// RunParams configures a chat run.
type RunParams struct {
	// Config is the merged configuration. It must already be validated.
	Config *config.Config

	// BaseURL overrides the backend base URL when non-empty.
	BaseURL string

	// In, Out and Log default to stdin, stdout and stderr.
	In  io.Reader
	Out io.Writer
	Log io.Writer

	// DetectDevice defaults to device.Detect.
	DetectDevice func(preferGPU bool) device.Device
}

// LoadConfig reads the configuration at path, or the first file found by
// config.ResolvePath when path is empty. Without any file the defaults are
// returned and the second result is "".
func LoadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		path = config.ResolvePath()
	}
	if path == "" {
		return config.Default(), "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// NewLogger builds the process logger: a text handler on w behind a
// redacting handler.
func NewLogger(w io.Writer, level slog.Level, redactor *security.Redactor) *slog.Logger {
	inner := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(security.NewRedactingHandler(inner, redactor))
}

// Run starts the chat session and blocks until it ends. SIGINT and SIGTERM
// interrupt the session, in which case chat.ErrInterrupted is returned.
func Run(ctx context.Context, params RunParams) error {
	cfg := params.Config
	in, out, logOut := params.In, params.Out, params.Log
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if logOut == nil {
		logOut = os.Stderr
	}
	detect := params.DetectDevice
	if detect == nil {
		detect = device.Detect
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	redactor := security.NewRedactor()
	logger := NewLogger(logOut, level, redactor)
	sessionID := uuid.NewString()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	dev := detect(cfg.UseGPU)
	fmt.Fprintf(out, "Loading model '%s' on device %s ...\n", cfg.Model, dev)

	gen, err := provider.NewGenerator(cfg.Backend, cfg.ProviderNode(cfg.Backend), provider.Env{
		Model:          cfg.Model,
		PreferGPU:      dev.IsGPU(),
		BaseURL:        params.BaseURL,
		Logger:         logger,
		RegisterSecret: redactor.AddLiteral,
	})
	if err != nil {
		return err
	}
	logger.Info("backend ready", "backend", cfg.Backend, "model", gen.ModelName(), "device", dev.String())

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		srv, err := metrics.Listen(cfg.Metrics.Addr, m, logger)
		if err != nil {
			return fmt.Errorf("metrics: listen %s: %w", cfg.Metrics.Addr, err)
		}
		srv.Start()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(sctx); err != nil {
				logger.Warn("metrics server shutdown failed", "error", err)
			}
		}()
	}

	window, err := memory.NewWindow(cfg.Window)
	if err != nil {
		return err
	}
	session, err := chat.New(chat.Config{
		Memory:    window,
		Generator: gen,
		Options:   cfg.Generation,
		Logger:    logger,
		Metrics:   m,
		SessionID: sessionID,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Chatbot ready. Type your message and press Enter. Type /exit to quit.")
	fmt.Fprintln(out)

	logger.Info("session started", "session_id", sessionID, "window", cfg.Window)
	return session.Run(ctx, in, out)
}
