package provider

import (
	"errors"
	"fmt"
)

// GenerateOptions controls a single generation call.
type GenerateOptions struct {
	// MaxNewTokens bounds the length of the generated continuation.
	MaxNewTokens int `yaml:"max_new_tokens" json:"max_new_tokens"`

	// DoSample enables stochastic sampling. When false, decoding is greedy
	// and TopP and Temperature are ignored.
	DoSample bool `yaml:"do_sample" json:"do_sample"`

	// TopP is the nucleus sampling threshold, in (0, 1].
	TopP float64 `yaml:"top_p" json:"top_p"`

	// Temperature is the sampling temperature, > 0.
	Temperature float64 `yaml:"temperature" json:"temperature"`

	// PadTokenID is the padding token for models that lack one.
	// Nil when the model defines its own.
	PadTokenID *int `yaml:"pad_token_id" json:"pad_token_id,omitempty"`
}

// DefaultGenerateOptions returns the options used when nothing is configured.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		MaxNewTokens: 120,
		DoSample:     true,
		TopP:         0.9,
		Temperature:  0.7,
	}
}

// Validate returns an error describing every out-of-range field.
func (o GenerateOptions) Validate() error {
	var errs []error
	if o.MaxNewTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_new_tokens must be positive, got %d", o.MaxNewTokens))
	}
	if o.DoSample {
		if o.TopP <= 0 || o.TopP > 1 {
			errs = append(errs, fmt.Errorf("top_p must be in (0, 1], got %v", o.TopP))
		}
		if o.Temperature <= 0 {
			errs = append(errs, fmt.Errorf("temperature must be positive, got %v", o.Temperature))
		}
	}
	return errors.Join(errs...)
}

// Generation is one result of a Generate call.
type Generation struct {
	GeneratedText string `json:"generated_text"`
}
