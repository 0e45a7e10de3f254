// Package hfinference provides a generation backend for the Hugging Face
// Inference API and self-hosted text-generation-inference servers.
package hfinference

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
const ID = "provider.hf_inference"

func init() {
	provider.RegisterBackend(provider.BackendInfo{ID: ID, New: New})
}

// Provider generates text through a Hugging Face text-generation endpoint.
type Provider struct {
	config    Config
	model     string
	preferGPU bool
	apiKey    string
	client    *http.Client
	logger    *slog.Logger
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
	if env.Model == "" && cfg.Endpoint == "" {
		return nil, fmt.Errorf("model is required unless endpoint is set")
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
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
		config:    cfg,
		model:     env.Model,
		preferGPU: env.PreferGPU,
		apiKey:    apiKey,
		// Response-header timeout rather than a client timeout: the body
		// arrives only once generation is done.
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: cfg.Timeout,
			},
		},
		logger: logger.With("backend", ID),
	}, nil
}

// hf wire types.

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxNewTokens   int      `json:"max_new_tokens"`
	DoSample       bool     `json:"do_sample"`
	TopP           *float64 `json:"top_p,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	PadTokenID     *int     `json:"pad_token_id,omitempty"`
	ReturnFullText bool     `json:"return_full_text"`
}

type hfOptions struct {
	UseGPU       bool `json:"use_gpu"`
	WaitForModel bool `json:"wait_for_model"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

// buildRequest converts a prompt and options into the wire request.
func (p *Provider) buildRequest(prompt string, opts provider.GenerateOptions) hfRequest {
	params := hfParameters{
		MaxNewTokens:   opts.MaxNewTokens,
		DoSample:       opts.DoSample,
		PadTokenID:     opts.PadTokenID,
		ReturnFullText: true,
	}
	if opts.DoSample {
		topP, temperature := opts.TopP, opts.Temperature
		params.TopP = &topP
		params.Temperature = &temperature
	}
	return hfRequest{
		Inputs:     prompt,
		Parameters: params,
		Options: hfOptions{
			UseGPU:       p.preferGPU,
			WaitForModel: *p.config.WaitForModel,
		},
	}
}

// parseResponse accepts both the hosted API's array form and the single
// object returned by text-generation-inference's /generate route.
func parseResponse(body []byte) ([]provider.Generation, error) {
	body = bytes.TrimSpace(body)

	var gens []hfGeneration
	if len(body) > 0 && body[0] == '{' {
		var single hfGeneration
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		gens = []hfGeneration{single}
	} else if err := json.Unmarshal(body, &gens); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(gens) == 0 {
		return nil, provider.ErrEmptyResponse
	}
	out := make([]provider.Generation, len(gens))
	for i, g := range gens {
		out[i] = provider.Generation{GeneratedText: g.GeneratedText}
	}
	return out, nil
}

func (p *Provider) endpoint() string {
	if p.config.Endpoint != "" {
		return p.config.Endpoint
	}
	return p.config.BaseURL + "/" + p.model
}

// Generate implements provider.Generator.
func (p *Provider) Generate(ctx context.Context, prompt string, opts provider.GenerateOptions) ([]provider.Generation, error) {
	ctx, span := tracer.Start(ctx, "hf_inference generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.model", p.model),
		attribute.Int("request.max_new_tokens", opts.MaxNewTokens),
		attribute.Bool("request.do_sample", opts.DoSample),
		attribute.Int("request.prompt_chars", len(prompt)),
	)

	gens, err := p.generate(ctx, prompt, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("response.results", len(gens)))
	return gens, nil
}

func (p *Provider) generate(ctx context.Context, prompt string, opts provider.GenerateOptions) ([]provider.Generation, error) {
	payload, err := json.Marshal(p.buildRequest(prompt, opts))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	for k, v := range p.config.Headers {
		req.Header.Set(k, v)
	}

	p.logger.Debug("sending generation request", "url", req.URL.String(), "prompt_chars", len(prompt))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, provider.TransportError(ctx, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		return nil, provider.HTTPError("hf_inference", resp)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, provider.TransportError(ctx, err)
	}
	return parseResponse(buf.Bytes())
}

// ModelName implements provider.Generator.
func (p *Provider) ModelName() string {
	return p.model
}

// Compile-time interface assertion.
var _ provider.Generator = (*Provider)(nil)
