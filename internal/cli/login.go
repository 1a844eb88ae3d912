package cli

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/prompt"
)

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	MaxAttempts int
}

// NewLoginCommand creates the interactive login command.
func NewLoginCommand(rootOpts *RootOptions, e *env) *cobra.Command {
	opts := &LoginOptions{}

	cmd := &cobra.Command{
		Use:           "login",
		Short:         "Sign in interactively",
		Long:          "Prompt for an email and password, validate them and sign in against the configured provider.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, rootOpts, opts, e)
		},
	}

	cmd.Flags().IntVar(&opts.MaxAttempts, "max-attempts", 0, "submissions before giving up (0 uses the configured value)")

	return cmd
}

func runLogin(cmd *cobra.Command, rootOpts *RootOptions, opts *LoginOptions, e *env) error {
	ctx := cmd.Context()
	cfg, logger, err := loadConfig(cmd, rootOpts, e)
	if err != nil {
		return err
	}

	provider := newProvider(cfg, logger)
	if err := provider.Init(ctx); err != nil {
		return err
	}
	defer provider.Close()

	form, err := newLoginForm(ctx, cfg, provider, logger)
	if err != nil {
		return err
	}

	maxAttempts := cfg.Submit.MaxAttempts
	if opts.MaxAttempts > 0 {
		maxAttempts = opts.MaxAttempts
	}
	session := &prompt.Session{
		Driver:      e.driver(cmd),
		Form:        form,
		Printer:     form.Printer(),
		MaxAttempts: maxAttempts,
		Welcome:     form.Welcome,
		Logger:      logger,
	}
	return session.Run(ctx)
}
