package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/config"
	"github.com/goliatone/go-formstate/pkg/prompt"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// env carries the process collaborators commands depend on.
type env struct {
	lookup config.LookupFunc
	driver func(cmd *cobra.Command) prompt.PromptDriver
}

// NewRootCommand creates the root command for the formstate CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&env{
		lookup: os.LookupEnv,
		driver: func(cmd *cobra.Command) prompt.PromptDriver {
			return prompt.NewSurveyDriver(prompt.WithOutput(cmd.OutOrStdout()))
		},
	})
}

func newRootCommand(e *env) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "formstate",
		Short: "Login form state engine",
		Long:  "Drive, render and back the email/password login form from the terminal.",
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level override (debug|info|warn|error)")

	cmd.AddCommand(NewLoginCommand(opts, e))
	cmd.AddCommand(NewRenderCommand(opts, e))
	cmd.AddCommand(NewUsersCommand(opts, e))

	return cmd
}

// loadConfig reads the configuration and builds a logger writing to stderr.
func loadConfig(cmd *cobra.Command, opts *RootOptions, e *env) (*config.Config, *slog.Logger, error) {
	lookup := e.lookup
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		base := lookup
		lookup = func(key string) (string, bool) {
			if key == "FORMSTATE_LOG_LEVEL" {
				return level, true
			}
			return base(key)
		}
	}

	cfg, err := config.Load(opts.ConfigPath, config.WithLookup(lookup))
	if err != nil {
		return nil, nil, err
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}
