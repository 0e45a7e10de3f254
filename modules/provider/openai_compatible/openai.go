// Package openaicompat provides a generation backend for servers exposing
// the OpenAI completions endpoint (vLLM, llama.cpp server, LocalAI, etc.)
// via a configurable base_url.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/flemzord/chatloop/internal/provider"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gopkg.in/yaml.v3"
)

// ID is the backend identifier used in configuration.
const ID = "provider.openai_compatible"

func init() {
	provider.RegisterBackend(provider.BackendInfo{ID: ID, New: New})
}

// Provider is an OpenAI-compatible text completion backend.
type Provider struct {
	config Config
	model  string
	apiKey string
	client *http.Client
	logger *slog.Logger
}

// New decodes node (which may be nil) and builds a Provider.
func New(node *yaml.Node, env provider.Env) (provider.Generator, error) {
	var cfg Config
	if node != nil {
		if err := node.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}
	if env.BaseURL != "" {
		cfg.BaseURL = env.BaseURL
	}
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if env.Model == "" {
		return nil, errMissingField("model")
	}

	apiKey := cfg.APIKey
	if apiKey == "" && cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	if apiKey != "" && env.RegisterSecret != nil {
		env.RegisterSecret(apiKey)
	}

	logger := env.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Provider{
		config: cfg,
		model:  env.Model,
		apiKey: apiKey,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: cfg.Timeout,
			},
		},
		logger: logger.With("backend", ID),
	}, nil
}

// openAI completions wire types.

type oaiRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
	TopP        *float64 `json:"top_p,omitempty"`
	Echo        bool     `json:"echo"`
	N           int      `json:"n"`
}

type oaiResponse struct {
	Choices []oaiChoice `json:"choices"`
}

type oaiChoice struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason"`
}

// buildRequest converts a prompt and options into an oaiRequest.
// Greedy decoding is expressed as temperature 0. The completions API has
// no pad token parameter, so PadTokenID is dropped.
func buildRequest(model, prompt string, opts provider.GenerateOptions) oaiRequest {
	req := oaiRequest{
		Model:     model,
		Prompt:    prompt,
		MaxTokens: opts.MaxNewTokens,
		Echo:      true,
		N:         1,
	}
	if opts.DoSample {
		topP := opts.TopP
		req.Temperature = opts.Temperature
		req.TopP = &topP
	}
	return req
}

// parseResponse converts choices into generations ordered by index.
func parseResponse(resp oaiResponse) ([]provider.Generation, error) {
	if len(resp.Choices) == 0 {
		return nil, provider.ErrEmptyResponse
	}
	out := make([]provider.Generation, len(resp.Choices))
	for i, c := range resp.Choices {
		idx := c.Index
		if idx < 0 || idx >= len(out) {
			idx = i
		}
		out[idx].GeneratedText = c.Text
	}
	return out, nil
}

// Generate implements provider.Generator.
func (p *Provider) Generate(ctx context.Context, prompt string, opts provider.GenerateOptions) ([]provider.Generation, error) {
	ctx, span := tracer.Start(ctx, "openai_compatible generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.model", p.model),
		attribute.Int("request.max_new_tokens", opts.MaxNewTokens),
		attribute.Bool("request.do_sample", opts.DoSample),
	)

	if opts.PadTokenID != nil {
		p.logger.Debug("pad_token_id is not supported by the completions API, ignoring", "pad_token_id", *opts.PadTokenID)
	}

	gens, err := p.generate(ctx, buildRequest(p.model, prompt, opts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return gens, nil
}

func (p *Provider) generate(ctx context.Context, body oaiRequest) ([]provider.Generation, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := p.config.BaseURL + "/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	for k, v := range p.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, provider.TransportError(ctx, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		return nil, provider.HTTPError("openai_compatible", resp)
	}

	var oaiResp oaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return parseResponse(oaiResp)
}

// ModelName implements provider.Generator.
func (p *Provider) ModelName() string {
	return p.model
}

// Compile-time interface assertion.
var _ provider.Generator = (*Provider)(nil)
