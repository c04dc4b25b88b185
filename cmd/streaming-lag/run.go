package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lzjever/streaming-lag/internal/config"
	"github.com/lzjever/streaming-lag/internal/core"
	"github.com/lzjever/streaming-lag/internal/observability"
	"github.com/lzjever/streaming-lag/internal/signals"
	"github.com/lzjever/streaming-lag/internal/store"
	"github.com/lzjever/streaming-lag/internal/supervisor"
	"github.com/lzjever/streaming-lag/internal/timer"
	"github.com/lzjever/streaming-lag/internal/worker"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the heartbeat worker until SIGTERM",
	Args:  cobra.NoArgs,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	runID := core.NewRunID()
	log, err := newLogger(runID)
	if err != nil {
		return err
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	observability.RegisterAll(reg)

	loader := cfg.Loader()
	settings, err := loader.Load()
	if err != nil {
		err = core.Fatal(core.ErrConfig, "invalid settings", err)
		reportFatal(log, err)
		return err
	}

	w := newWorker(settings, loader, runID, log)

	ops := startOps(cfg.MetricsAddr, w, reg, log)

	err = w.Run(context.Background())
	if err != nil {
		reportFatal(log, err)
	}
	ops.stop(err)
	return err
}

func newWorker(settings config.Settings, loader config.Loader, runID string, log *zap.Logger) *worker.Worker {
	bridge := signals.NewBridge()
	parent := supervisor.WatchParent(cfg.SupervisorPoll)

	return worker.New(settings, worker.Deps{
		Connect: func(ctx context.Context) (store.Session, error) {
			ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
			defer cancel()
			return store.Connect(ctx, cfg.DBDSN, settings.Database, worker.Name)
		},
		Bridge:     bridge,
		Timer:      timer.New(bridge.Tick),
		Supervisor: parent,
		Reload:     loader.Reload,
		Install:    signals.Install,
		RunID:      runID,
	}, log)
}
