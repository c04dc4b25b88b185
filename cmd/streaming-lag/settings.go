package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lzjever/streaming-lag/internal/core"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Print the effective settings as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := cfg.Loader().Load()
		if err != nil {
			return core.Fatal(core.ErrConfig, "invalid settings", err)
		}
		out, err := settings.Marshal()
		if err != nil {
			return fmt.Errorf("marshal settings: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}
