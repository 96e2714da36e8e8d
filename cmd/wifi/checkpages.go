package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/divawifi/wifi/internal/wifiscript"
)

var checkPagesCmd = &cobra.Command{
	Use:   "checkpages [dir]",
	Short: "Check the page templates for unbalanced markup",
	Long: `Check every .html file under dir (default: the configured TemplateDir)
for unclosed or misnested tags. Exits non-zero when a page has a problem.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		} else {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir = cfg.TemplateDir
		}
		problems, err := wifiscript.CheckDir(dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, name := range wifiscript.SortedKeys(problems) {
			fmt.Fprintf(out, "%s: %v\n", name, problems[name])
		}
		if len(problems) > 0 {
			return fmt.Errorf("%d page(s) with problems", len(problems))
		}
		fmt.Fprintf(out, "%s: all pages well formed\n", dir)
		return nil
	},
}
