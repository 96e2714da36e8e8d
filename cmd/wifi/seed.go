package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/divawifi/wifi/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed <fixture.yaml>",
	Short: "Load accounts, regions and groups from a YAML fixture",
	Long: `Load a YAML fixture into the grid database. Records that already
exist (same name) are skipped.

  accounts:
    - {first: Jane, last: Doe, email: jane@example.org, level: 200, password: secret}
  regions:
    - {name: Welcome, x: 1000, y: 1000, uri: "http://sim.example.org:9000/"}
  groups:
    - {name: Builders, charter: "We build.", founder: Jane Doe, members: []}`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		fixture, err := seed.Load(args[0])
		if err != nil {
			return err
		}
		db, services, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := seed.Apply(cmd.Context(), services, fixture)
		if res != nil {
			for _, c := range res.Created {
				fmt.Fprintln(cmd.OutOrStdout(), "created", c)
			}
			for _, s := range res.Skipped {
				fmt.Fprintln(cmd.OutOrStdout(), "skipped", s)
			}
		}
		if err != nil {
			return err
		}
		logger.Info("seed applied", "file", args[0], "created", len(res.Created), "skipped", len(res.Skipped))
		return nil
	},
}
