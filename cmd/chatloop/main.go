// Package main is the entry point for the chatloop CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/flemzord/chatloop/internal/chat"
	"github.com/flemzord/chatloop/internal/config"
	"github.com/flemzord/chatloop/internal/provider"
	"github.com/flemzord/chatloop/pkg/app"
	"github.com/spf13/cobra"

	// Generation backends register themselves in init.
	_ "github.com/flemzord/chatloop/modules/provider/hfinference"
	_ "github.com/flemzord/chatloop/modules/provider/openai_compatible"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := rootCmd().Execute()
	if err == nil || errors.Is(err, chat.ErrInterrupted) {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatloop",
		Short:         "Chat with a causal language model from the terminal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runChat,
	}

	flags := root.Flags()
	flags.String("model", "distilgpt2", "model name")
	flags.Int("window", 4, "turns to remember")
	flags.Bool("use-gpu", false, "prefer GPU")
	flags.Int("max-new-tokens", 120, "max generated tokens")
	flags.StringP("config", "c", "", "YAML config file (optional)")
	flags.String("backend", config.DefaultBackend, "generation backend ID")
	flags.String("base-url", "", "backend base URL override")
	flags.String("log-level", "warn", "debug|info|warn|error")
	flags.String("metrics-addr", "", "serve Prometheus metrics (e.g. \":9090\"); disabled when empty")

	root.AddCommand(versionCmd(), configCmd())
	return root
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, _, err := app.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	overrides(cmd).Apply(cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	baseURL, _ := cmd.Flags().GetString("base-url")
	return app.Run(context.Background(), app.RunParams{
		Config:  cfg,
		BaseURL: baseURL,
		In:      cmd.InOrStdin(),
		Out:     cmd.OutOrStdout(),
		Log:     cmd.ErrOrStderr(),
	})
}

// overrides collects the flags the user set explicitly. Flags left at
// their default do not mask values from the config file.
func overrides(cmd *cobra.Command) app.Overrides {
	flags := cmd.Flags()
	var o app.Overrides

	if flags.Changed("model") {
		v, _ := flags.GetString("model")
		o.Model = &v
	}
	if flags.Changed("window") {
		v, _ := flags.GetInt("window")
		o.Window = &v
	}
	if flags.Changed("use-gpu") {
		v, _ := flags.GetBool("use-gpu")
		o.UseGPU = &v
	}
	if flags.Changed("max-new-tokens") {
		v, _ := flags.GetInt("max-new-tokens")
		o.MaxNewTokens = &v
	}
	if flags.Changed("backend") {
		v, _ := flags.GetString("backend")
		o.Backend = &v
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		o.LogLevel = &v
	}
	if flags.Changed("metrics-addr") {
		v, _ := flags.GetString("metrics-addr")
		o.MetricsAddr = &v
	}
	return o
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and compiled backends",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "chatloop %s (commit: %s, built: %s)\n", version, commit, date)
			fmt.Fprintln(out, "\nCompiled backends:")
			for _, id := range provider.Backends() {
				fmt.Fprintf(out, "  %s\n", id)
			}
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK (backend %s, model %s, window %d)\n",
				cfg.Backend, cfg.Model, cfg.Window)
			return nil
		},
	})
	return cmd
}
