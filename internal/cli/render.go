package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/render"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	Values  map[string]string
	Submit  bool
	Output  string
	Timeout time.Duration
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions, e *env) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the login form as HTML",
		Long: `Render the login form as HTML.

Values passed with --set are applied and touched. With --submit the form is
submitted first so validation and sign-in errors appear in the output.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, rootOpts, opts, e)
		},
	}

	cmd.Flags().StringToStringVar(&opts.Values, "set", nil, "field values (field=value)")
	cmd.Flags().BoolVar(&opts.Submit, "submit", false, "submit before rendering")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "time to wait for a sign-in attempt")

	return cmd
}

func runRender(cmd *cobra.Command, rootOpts *RootOptions, opts *RenderOptions, e *env) error {
	ctx := cmd.Context()
	cfg, logger, err := loadConfig(cmd, rootOpts, e)
	if err != nil {
		return err
	}

	provider := newProvider(cfg, logger)
	if opts.Submit {
		if err := provider.Init(ctx); err != nil {
			return err
		}
	}
	defer provider.Close()

	login, err := newLoginForm(ctx, cfg, provider, logger)
	if err != nil {
		return err
	}
	for field, value := range opts.Values {
		if err := login.Change(field, value); err != nil {
			return err
		}
		if err := login.Touch(field); err != nil {
			return err
		}
	}

	if opts.Submit {
		attempt, err := login.Submit(ctx)
		switch {
		case form.IsBlocked(err):
			logger.Debug("render: submission blocked", "error", err)
		case err != nil:
			return err
		default:
			waitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
			err = attempt.Wait(waitCtx)
			cancel()
			if err != nil {
				return err
			}
		}
	}

	provider, err := cfg.ThemeProvider()
	if err != nil {
		return err
	}
	renderOpts := []render.Option{}
	if provider != nil {
		renderOpts = append(renderOpts, render.WithThemeProvider(provider, cfg.Theme.Name, cfg.Theme.Variant))
	}
	renderer, err := render.New(renderOpts...)
	if err != nil {
		return err
	}
	html, err := renderer.Render(ctx, login.View())
	if err != nil {
		return err
	}

	if opts.Output == "" {
		_, err = cmd.OutOrStdout().Write(html)
		return err
	}
	if err := os.WriteFile(opts.Output, html, 0o644); err != nil {
		return fmt.Errorf("cli: write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Form written to %s\n", opts.Output)
	return nil
}
