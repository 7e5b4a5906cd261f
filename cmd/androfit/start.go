package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	agent "github.com/androfit/agent"
	"github.com/androfit/agent/internal/health"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the agent worker",
	Long: `Starts the worker: binds the health port, connects the job queue, and runs
agent sessions until SIGINT or SIGTERM. Shutdown drains running sessions.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runWorker(cmd, false); err != nil {
			fatal(err)
		}
	},
}

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Run the agent worker with debug logging",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runWorker(cmd, true); err != nil {
			fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(devCmd)
}

func runWorker(cmd *cobra.Command, debug bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if debug {
		cfg.LogLevel = "debug"
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := agent.New(ctx, cfg, agent.WithLogger(logger))
	if err != nil {
		return err
	}
	defer a.Close()

	srv := health.New(cfg.Port, agent.Version, a.Metrics().Registry, a.Worker().Ready, logger)

	logger.Info("androfit worker starting",
		"version", agent.Version,
		"port", cfg.Port,
		"max_sessions", cfg.Worker.MaxSessions,
	)

	grp, gCtx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return srv.Run(gCtx)
	})
	grp.Go(func() error {
		return a.Worker().Run(gCtx)
	})

	if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("androfit worker stopped")
	return nil
}
