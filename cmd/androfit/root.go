package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/androfit/agent/internal/config"
	"github.com/androfit/agent/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "androfit",
	Short: "Androfit is an AI voice gym coach agent worker",
	Long: `Androfit runs voice agent sessions: it joins rooms dispatched through the
job queue, listens to the user, and coaches back through speech. It also
ships a local console mode for text chat.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (optional; env vars always apply)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("json-log", false, "Emit JSON logs")
}

// loadConfig reads configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if cmd.Flags().Changed("json-log") {
		cfg.JSONLog, _ = cmd.Flags().GetBool("json-log")
	}
	return cfg, nil
}

// buildLogger configures the process logger from config.
func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.JSONLog {
		return logging.NewJSON(level), nil
	}
	return logging.New(level), nil
}

// fatal prints the error and exits 1.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
