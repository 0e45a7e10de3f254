// Package provider defines the contract between the chat loop and the
// text-generation engine, plus the registry of concrete backends.
package provider

import "context"

// Generator is the interface for producing text from a prompt.
// Concrete implementations live in separate packages (e.g. provider.hf_inference)
// and register themselves with RegisterBackend.
type Generator interface {
	// Generate runs the model on prompt and returns one or more results.
	// Callers use the first result. Its text is expected to be the prompt
	// followed by the continuation, though some backends return the
	// continuation alone.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) ([]Generation, error)

	// ModelName returns the identifier of the underlying model.
	ModelName() string
}
