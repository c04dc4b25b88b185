package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lzjever/streaming-lag/internal/core"
)

var (
	opsURL string
	output string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running worker",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		var st core.Status
		if err := getJSON(ctx, opsURL+"/v1/status", &st); err != nil {
			return err
		}
		return printStatus(cmd.OutOrStdout(), st)
	},
}

func init() {
	statusCmd.Flags().StringVar(&opsURL, "url", "http://localhost:9187", "ops endpoint of the worker")
	statusCmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.AddCommand(statusCmd)
}

func getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("query worker: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var errResp struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(b, &errResp) != nil || errResp.Code == "" {
			return fmt.Errorf("query worker: %s", resp.Status)
		}
		return fmt.Errorf("%s: %s", errResp.Code, errResp.Message)
	}
	return json.Unmarshal(b, out)
}

func printStatus(out io.Writer, st core.Status) error {
	if output == "json" {
		return json.NewEncoder(out).Encode(st)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Worker:\t%s\n", st.Worker)
	fmt.Fprintf(w, "Run ID:\t%s\n", st.RunID)
	fmt.Fprintf(w, "State:\t%s\n", st.State)
	fmt.Fprintf(w, "Table:\t%s.streaming_lag_data\n", st.Schema)
	fmt.Fprintf(w, "Database:\t%s\n", st.Database)
	fmt.Fprintf(w, "Precision:\t%dms\n", st.PrecisionMs)
	fmt.Fprintf(w, "Started:\t%s\n", st.StartedAt.Format(time.RFC3339))
	if st.LastHeartbeat != nil {
		fmt.Fprintf(w, "Last heartbeat:\t%s\n", st.LastHeartbeat.Format(time.RFC3339Nano))
	}
	fmt.Fprintf(w, "Heartbeats:\t%d\n", st.Heartbeats)
	fmt.Fprintf(w, "Reloads:\t%d\n", st.Reloads)
	return w.Flush()
}
