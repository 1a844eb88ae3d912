package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/auth/sqlite"
	"github.com/goliatone/go-formstate/pkg/config"
	"github.com/goliatone/go-formstate/pkg/prompt"
)

var errProviderUnsupported = errors.New("cli: command requires the sqlite provider")

// UsersAddOptions holds flags for `users add`.
type UsersAddOptions struct {
	Password    string
	DisplayName string
}

// NewUsersCommand groups credential store maintenance.
func NewUsersCommand(rootOpts *RootOptions, e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users in the sqlite credential store",
	}
	cmd.AddCommand(newUsersAddCommand(rootOpts, e))
	return cmd
}

func newUsersAddCommand(rootOpts *RootOptions, e *env) *cobra.Command {
	opts := &UsersAddOptions{}

	cmd := &cobra.Command{
		Use:           "add <email>",
		Short:         "Add a user",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersAdd(cmd, rootOpts, opts, e, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "password (prompted when empty)")
	cmd.Flags().StringVar(&opts.DisplayName, "name", "", "display name")

	return cmd
}

func runUsersAdd(cmd *cobra.Command, rootOpts *RootOptions, opts *UsersAddOptions, e *env, email string) error {
	ctx := cmd.Context()
	cfg, logger, err := loadConfig(cmd, rootOpts, e)
	if err != nil {
		return err
	}
	if cfg.Provider != config.ProviderSQLite {
		return errProviderUnsupported
	}

	password := opts.Password
	if password == "" {
		password, err = e.driver(cmd).Password(ctx, prompt.InputConfig{Message: "Password"})
		if err != nil {
			return err
		}
	}

	store, err := sqlite.Open(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.AddUser(ctx, email, password, opts.DisplayName); err != nil {
		return err
	}
	logger.Info("user added", "email", email)
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", email)
	return nil
}
