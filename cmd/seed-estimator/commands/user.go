package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/seed-estimator/internal/auth"
)

func userCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts of the secure front end",
	}
	cmd.AddCommand(userAddCmd(a))
	return cmd
}

func userAddCmd(a *app) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := auth.NewFileStore(a.cfg.UsersFile)
			svc := auth.NewService(store)
			u, err := svc.Signup(username, email, password, password)
			if err != nil {
				return fmt.Errorf("%s: %w", auth.Message(err), err)
			}

			total, err := store.Count()
			if err != nil {
				return err
			}

			a.logger.Info().Str("username", u.Username).Str("users_file", a.cfg.UsersFile).Int("users", total).Msg("user created")
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%d accounts in %s)\n", u.Username, total, a.cfg.UsersFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "account name")
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
