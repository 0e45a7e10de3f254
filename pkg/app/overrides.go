package app

import "github.com/flemzord/chatloop/internal/config"

// Overrides holds command-line values that take precedence over the
// configuration file. Nil fields leave the configured value untouched.
type Overrides struct {
	Model        *string
	Window       *int
	UseGPU       *bool
	MaxNewTokens *int
	Backend      *string
	LogLevel     *string
	MetricsAddr  *string
}

// Apply writes the set overrides into cfg.
func (o Overrides) Apply(cfg *config.Config) {
	if o.Model != nil {
		cfg.Model = *o.Model
	}
	if o.Window != nil {
		cfg.Window = *o.Window
	}
	if o.UseGPU != nil {
		cfg.UseGPU = *o.UseGPU
	}
	if o.MaxNewTokens != nil {
		cfg.Generation.MaxNewTokens = *o.MaxNewTokens
	}
	if o.Backend != nil {
		cfg.Backend = *o.Backend
	}
	if o.LogLevel != nil {
		cfg.Log.Level = *o.LogLevel
	}
	if o.MetricsAddr != nil {
		cfg.Metrics.Addr = *o.MetricsAddr
	}
}
