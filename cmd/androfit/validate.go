package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/androfit/agent/internal/assets"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and asset manifest",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd); err != nil {
			fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	fmt.Println("configuration: ok")

	if _, err := os.Stat(cfg.Assets.Manifest); err != nil {
		fmt.Printf("asset manifest: not found at %s (downloads will be skipped)\n", cfg.Assets.Manifest)
		return nil
	}
	if _, err := assets.LoadManifest(cfg.Assets.Manifest); err != nil {
		return fmt.Errorf("asset manifest invalid: %w", err)
	}
	fmt.Println("asset manifest: ok")
	return nil
}
