package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"billed/internal/auth"
	"billed/internal/config"
	"billed/internal/core"
	"billed/internal/store/sqlite"
)

// passwordEnv is read when --password is omitted, keeping the secret out
// of shell history.
const passwordEnv = "BILLED_USER_PASSWORD"

type options struct {
	dbPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "billed-users",
		Short:        "Manage Billed accounts",
		Long:         "Create and list the employee and admin accounts stored in the SQLite backend.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", config.Load().SQLiteDBPath, "SQLite database path (SQLITE_DB_PATH)")

	root.AddCommand(newAddCmd(opts), newListCmd(opts))
	return root
}

func newAddCmd(opts *options) *cobra.Command {
	var email, typ, password string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		Example: `  billed-users add --email employee@company.tld --type Employee
  BILLED_USER_PASSWORD=secret billed-users add --email admin@company.tld --type Admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			userType, err := core.ParseUserType(typ)
			if err != nil {
				return err
			}
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			if password == "" {
				return errors.New("password required: use --password or " + passwordEnv)
			}

			repo, err := sqlite.NewRepository(opts.dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			u, err := auth.NewPasswordAuthenticator(repo).Register(cmd.Context(), email, userType, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s account %s\n", u.Type, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&typ, "type", string(core.UserTypeEmployee), "account type: Employee or Admin")
	cmd.Flags().StringVar(&password, "password", "", "account password (default $"+passwordEnv+")")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := sqlite.NewRepository(opts.dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			users, err := repo.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tTYPE")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\n", u.Email, u.Type)
			}
			return w.Flush()
		},
	}
}
