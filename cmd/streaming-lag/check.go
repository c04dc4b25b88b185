package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lzjever/streaming-lag/internal/core"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the heartbeat table once and exit",
	Long: `check connects, verifies that streaming_lag_data exists in the configured
schema and resets it to a single fresh row, then disconnects. It exits 0 on
success and 1 otherwise, which makes it usable as a pre-start hook.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := core.NewRunID()
		log, err := newLogger(runID)
		if err != nil {
			return err
		}
		defer log.Sync()

		loader := cfg.Loader()
		settings, err := loader.Load()
		if err != nil {
			err = core.Fatal(core.ErrConfig, "invalid settings", err)
			reportFatal(log, err)
			return err
		}

		w := newWorker(settings, loader, runID, log)
		if err := w.Check(context.Background()); err != nil {
			reportFatal(log, err)
			return err
		}
		log.Info("check passed", zap.String("schema", settings.Schema))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
