package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/androfit/agent/internal/assets"
)

var downloadCmd = &cobra.Command{
	Use:   "download-files",
	Short: "Prefetch model assets into the data directory",
	Long: `Downloads the artifacts listed in the asset manifest. Failures are logged
and skipped so container builds without network access still succeed; pass
--strict to exit non-zero when anything could not be fetched.`,
	Run: func(cmd *cobra.Command, args []string) {
		strict, _ := cmd.Flags().GetBool("strict")
		if err := runDownload(cmd, strict); err != nil {
			fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().Bool("strict", false, "Exit non-zero when any artifact fails")
}

func runDownload(cmd *cobra.Command, strict bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	manifest, err := assets.LoadManifest(cfg.Assets.Manifest)
	if err != nil {
		if strict {
			return err
		}
		logger.Warn("skipping asset download", "err", err)
		fmt.Println("No usable asset manifest; nothing to download.")
		return nil
	}

	opts := []assets.DownloaderOption{assets.WithLogger(logger)}
	if cfg.Assets.S3Endpoint != "" {
		store, err := assets.NewS3Store(
			cfg.Assets.S3Endpoint,
			cfg.Assets.S3AccessKey,
			cfg.Assets.S3SecretKey,
			cfg.Assets.S3UseSSL,
		)
		if err != nil {
			if strict {
				return err
			}
			logger.Warn("object store unavailable, s3 artifacts will fail", "err", err)
		} else {
			opts = append(opts, assets.WithObjectStore(store))
		}
	}

	downloader := assets.NewDownloader(cfg.DataDir, opts...)
	summary := downloader.Download(cmd.Context(), manifest)

	for _, r := range summary.Results {
		switch r.Outcome {
		case assets.OutcomeDownloaded:
			fmt.Printf("  %-24s downloaded (%d bytes)\n", r.Name, r.Bytes)
		case assets.OutcomeSkipped:
			fmt.Printf("  %-24s up to date\n", r.Name)
		case assets.OutcomeFailed:
			fmt.Printf("  %-24s FAILED: %v\n", r.Name, r.Err)
		}
	}

	if failed := summary.Failed(); failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d artifacts failed\n", failed, len(summary.Results))
		if strict {
			return fmt.Errorf("%d artifacts failed", failed)
		}
	}
	return nil
}
