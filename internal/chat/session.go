// Package chat runs the interactive conversation loop: it frames each user
// message with recent history, asks the generator for a continuation and
// remembers the extracted reply.
package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/flemzord/chatloop/internal/memory"
	"github.com/flemzord/chatloop/internal/metrics"
	"github.com/flemzord/chatloop/internal/prompt"
	"github.com/flemzord/chatloop/internal/provider"
	"github.com/flemzord/chatloop/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	exitCommand = "/exit"

	userPrompt     = "User: "
	goodbyeMessage = "Exiting chatbot. Goodbye!"
	interruptedMsg = "\nInterrupted. Exiting chatbot. Goodbye!"

	tracerName = "github.com/flemzord/chatloop/internal/chat"

	// maxLineSize bounds a single input line.
	maxLineSize = 1 << 20
)

// ErrInterrupted is returned by Run when the context is cancelled, which
// is how SIGINT and SIGTERM reach the session.
var ErrInterrupted = errors.New("chat: interrupted")

var (
	errNoMemory    = errors.New("chat: memory is required")
	errNoGenerator = errors.New("chat: generator is required")
)

// Config holds the collaborators of a Session.
type Config struct {
	Memory    *memory.Window
	Generator provider.Generator
	Options   provider.GenerateOptions

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *metrics.Metrics

	// Tracer defaults to the global tracer provider.
	Tracer trace.Tracer

	// SessionID is attached to every log line and span.
	SessionID string
}

// Session is one conversation. It is not safe for concurrent use.
type Session struct {
	memory    *memory.Window
	generator provider.Generator
	options   provider.GenerateOptions
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	id        string
}

// New validates cfg and creates a Session.
func New(cfg Config) (*Session, error) {
	var errs []error
	if cfg.Memory == nil {
		errs = append(errs, errNoMemory)
	}
	if cfg.Generator == nil {
		errs = append(errs, errNoGenerator)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.SessionID != "" {
		logger = logger.With("session_id", cfg.SessionID)
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer(tracerName)
	}

	return &Session{
		memory:    cfg.Memory,
		generator: cfg.Generator,
		options:   cfg.Options,
		logger:    logger,
		metrics:   cfg.Metrics,
		tracer:    tracer,
		id:        cfg.SessionID,
	}, nil
}

// line is one read from the input, or the error that ended reading.
type line struct {
	text string
	err  error
}

// readLines scans in on its own goroutine so a blocked read never holds up
// an interrupt. The channel is closed at EOF or after a read error.
func readLines(ctx context.Context, in io.Reader) <-chan line {
	ch := make(chan line)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
		for scanner.Scan() {
			select {
			case ch <- line{text: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case ch <- line{err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return ch
}

// Run prompts on out and answers each line read from in until the user
// types /exit, the input ends, or ctx is cancelled. Cancellation yields
// ErrInterrupted; generation failures are returned wrapped.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines := readLines(readCtx, in)

	for {
		fmt.Fprint(out, userPrompt)

		var input string
		select {
		case <-ctx.Done():
			return s.interrupted(out)
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				s.logger.Debug("input closed")
				return nil
			}
			if l.err != nil {
				return fmt.Errorf("chat: read input: %w", l.err)
			}
			input = strings.TrimSpace(l.text)
		}

		if strings.EqualFold(input, exitCommand) {
			fmt.Fprintln(out, goodbyeMessage)
			return nil
		}
		if input == "" {
			continue
		}

		reply, err := s.Turn(ctx, input)
		if errors.Is(err, ErrInterrupted) {
			return s.interrupted(out)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Bot: %s\n", reply)
	}
}

func (s *Session) interrupted(out io.Writer) error {
	fmt.Fprintln(out, interruptedMsg)
	s.logger.Info("session interrupted")
	return ErrInterrupted
}

// Turn performs a single exchange: it builds the prompt from memory and
// input, generates, extracts the reply (or the fallback) and commits the
// turn to memory. Nothing is committed when generation fails.
func (s *Session) Turn(ctx context.Context, input string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "chat.turn", trace.WithAttributes(
		attribute.String("chat.session_id", s.id),
		attribute.Int("chat.memory_turns", s.memory.Len()),
	))
	defer span.End()

	text := prompt.BuildPrompt(s.memory.RenderContext(), input)
	span.SetAttributes(attribute.Int("chat.prompt_chars", len(text)))
	s.logger.Debug("generating", "prompt_chars", len(text), "memory_turns", s.memory.Len())

	start := time.Now()
	generations, err := s.generator.Generate(ctx, text, s.options)
	if err == nil && len(generations) == 0 {
		err = provider.ErrEmptyResponse
	}
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			s.observeGeneration(elapsed, "")
			span.SetStatus(codes.Error, "interrupted")
			return "", ErrInterrupted
		}
		kind := provider.ErrorKind(err)
		s.observeGeneration(elapsed, kind)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("generation failed", "error", err, "kind", kind, "duration", elapsed)
		return "", fmt.Errorf("chat: generate: %w", err)
	}
	s.observeGeneration(elapsed, "")

	ext := prompt.ExtractReplyDetail(generations[0].GeneratedText, text)
	reply := ext.Reply
	fallback := reply == ""
	if fallback {
		reply = prompt.FallbackReply
	}

	s.memory.Add(input, reply)

	span.SetAttributes(
		attribute.Bool("chat.echoed", ext.Echoed),
		attribute.Bool("chat.fallback", fallback),
		attribute.String("chat.stop_marker", ext.Marker),
	)
	if s.metrics != nil {
		s.metrics.Turns.Inc()
		s.metrics.PromptLengthChars.Observe(float64(len(text)))
		s.metrics.MemoryTurns.Set(float64(s.memory.Len()))
		if !ext.Echoed {
			s.metrics.PromptEchoMisses.Inc()
		}
		if ext.Truncated {
			s.metrics.StopTruncations.WithLabelValues(strings.ReplaceAll(ext.Marker, "\n", `\n`)).Inc()
		}
		if fallback {
			s.metrics.FallbackReplies.Inc()
		}
	}
	s.logger.Debug("turn complete",
		"duration", elapsed,
		"echoed", ext.Echoed,
		"stop_marker", ext.Marker,
		"fallback", fallback,
		"reply_chars", len(reply),
	)

	return reply, nil
}

func (s *Session) observeGeneration(d time.Duration, errKind string) {
	if s.metrics != nil {
		s.metrics.ObserveGeneration(d, errKind)
	}
}
