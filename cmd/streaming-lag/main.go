package main

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lzjever/streaming-lag/internal/core"
	"github.com/lzjever/streaming-lag/internal/observability"
	"github.com/lzjever/streaming-lag/internal/worker"
)

var (
	settingsFile string
	cfg          worker.Config
)

var rootCmd = &cobra.Command{
	Use:   "streaming-lag",
	Short: "Heartbeat writer for measuring streaming replication lag",
	Long: `streaming-lag keeps one row of <schema>.streaming_lag_data stamped with the
primary's current time. Comparing that timestamp on a standby gives the
replication delay.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := envconfig.Process("", &cfg); err != nil {
			return core.Fatal(core.ErrConfig, "read environment", err)
		}
		if cmd.Flags().Changed("settings") {
			cfg.SettingsFile = settingsFile
		}
		return nil
	},
}

// reported is set once a fatal error has been logged by the command itself.
var reported bool

// newFallbackLogger builds the logger for fatal errors raised before a
// command had one, such as an unparsable environment.
var newFallbackLogger = func() (*zap.Logger, error) {
	return observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
}

func main() {
	os.Exit(exitCode(rootCmd.Execute()))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if _, ok := core.AsFatal(err); !ok {
		fmt.Fprintln(os.Stderr, "error:", err)
	} else if !reported {
		base, lerr := newFallbackLogger()
		if lerr != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", worker.Name, err)
		} else {
			log := observability.WorkerLogger(base, worker.Name, core.NewRunID())
			reportFatal(log, err)
			log.Sync()
		}
	}
	return core.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "YAML settings file (overrides LAG_SETTINGS_FILE)")
}

// newLogger builds the process logger. A logger that cannot be built leaves
// nothing to report through, so it goes to stderr.
func newLogger(runID string) (*zap.Logger, error) {
	base, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	log := observability.WorkerLogger(base, worker.Name, runID)
	zap.ReplaceGlobals(log)
	return log, nil
}

// reportFatal logs err with its code, hint and SQLSTATE when it is fatal.
func reportFatal(log *zap.Logger, err error) {
	reported = true
	fe, ok := core.AsFatal(err)
	if !ok {
		log.Error("worker failed", zap.Error(err))
		return
	}
	fields := []zap.Field{zap.String("code", string(fe.Code))}
	if fe.Hint != "" {
		fields = append(fields, zap.String("hint", fe.Hint))
	}
	if fe.SQLState != "" {
		fields = append(fields, zap.String("sqlstate", fe.SQLState))
	}
	if fe.Err != nil {
		fields = append(fields, zap.Error(fe.Err))
	}
	log.Error(fe.Message, fields...)
}
