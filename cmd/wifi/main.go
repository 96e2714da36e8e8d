// Command wifi runs the Diva Wifi web panel and its maintenance commands.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/divawifi/wifi/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "wifi",
	Short: "Diva Wifi web panel for OpenSimulator grids",
	Long: `Diva Wifi serves the browser panel of an OpenSimulator grid: login,
account management, administration pages, inventory, hyperlinks and
password recovery, plus the region helpers for images, script events and
terms of service.

Configuration is read from an INI file (Wifi.ini). Every key can be
overridden from the environment, e.g. WIFI_SERVERPORT=9100.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "Wifi.ini", "path to the Wifi.ini configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(serveCmd, seedCmd, passwdCmd, checkPagesCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from the persistent flags.
func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(logFormat, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// loadConfig reads --config. A missing default file falls back to built-in
// defaults; a missing explicit file is an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if _, err := os.Stat(path); err != nil && !cmd.Flags().Changed("config") {
		path = ""
	}
	return config.Load(path)
}
