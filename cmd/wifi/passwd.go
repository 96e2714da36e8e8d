package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd <first> <last> <password>",
	Short: "Set an account's password",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		db, services, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		first, last, password := args[0], args[1], args[2]
		if password == "" {
			return errors.New("password must not be empty")
		}
		acc, err := services.Accounts.GetUserAccountByName(ctx, first, last)
		if err != nil {
			return fmt.Errorf("find %s %s: %w", first, last, err)
		}
		if err := services.Auth.SetPassword(ctx, acc.PrincipalID, password); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s (%s)\n", acc.Name(), acc.PrincipalID)
		return nil
	},
}
