package provider

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// Env carries the process-wide settings a backend needs at construction.
type Env struct {
	// Model is the model name requested on the command line or in config.
	Model string

	// PreferGPU is the device hint forwarded to backends that accept one.
	PreferGPU bool

	// BaseURL overrides the backend's configured base URL when non-empty.
	BaseURL string

	// Logger is the application logger. Never nil after NewGenerator.
	Logger *slog.Logger

	// RegisterSecret, when set, is called with credentials the backend
	// resolves so they can be redacted from logs.
	RegisterSecret func(secret string)
}

// BackendInfo describes a registered generation backend.
type BackendInfo struct {
	// ID is the backend identifier used in configuration (e.g. "provider.hf_inference").
	ID string

	// New builds a Generator from the backend's raw YAML section.
	// node is nil when the configuration has no section for the backend.
	New func(node *yaml.Node, env Env) (Generator, error)
}

var (
	backends   = make(map[string]BackendInfo)
	backendsMu sync.RWMutex
)

// RegisterBackend registers a backend. It panics if the ID is empty, the
// constructor is nil or the ID is already taken. Intended to be called
// from init() functions.
func RegisterBackend(info BackendInfo) {
	if info.ID == "" {
		panic("backend ID must not be empty")
	}
	if info.New == nil {
		panic(fmt.Sprintf("backend %s: New function must not be nil", info.ID))
	}

	backendsMu.Lock()
	defer backendsMu.Unlock()

	if _, exists := backends[info.ID]; exists {
		panic(fmt.Sprintf("backend already registered: %s", info.ID))
	}
	backends[info.ID] = info
}

// Backend returns the BackendInfo registered under id.
func Backend(id string) (BackendInfo, bool) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	info, ok := backends[id]
	return info, ok
}

// Backends returns the registered backend IDs, sorted.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	ids := make([]string, 0, len(backends))
	for id := range backends {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// NewGenerator instantiates the backend registered under id.
func NewGenerator(id string, node *yaml.Node, env Env) (Generator, error) {
	info, ok := Backend(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, id, Backends())
	}
	if env.Logger == nil {
		env.Logger = slog.New(slog.DiscardHandler)
	}
	gen, err := info.New(node, env)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", id, err)
	}
	return gen, nil
}

// resetRegistry clears the registry. Only for testing.
func resetRegistry() {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends = make(map[string]BackendInfo)
}
