package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"shortloop/internal/analytics"
	"shortloop/internal/config"
	"shortloop/internal/engine"
)

// fileMetricsSource reads engagement metrics from a JSON report written by
// an external analytics fetcher.
type fileMetricsSource struct {
	path string
}

type metricsReport struct {
	Items []struct {
		PermanentID string `json:"permanent_id"`
		Views       int64  `json:"views"`
		Likes       int64  `json:"likes"`
		Comments    int64  `json:"comments"`
	} `json:"items"`
	PeakHours []int `json:"peak_hours"`
}

func (f fileMetricsSource) read() (metricsReport, error) {
	var report metricsReport
	data, err := os.ReadFile(f.path)
	if err != nil {
		return report, fmt.Errorf("read metrics report: %w", err)
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("parse metrics report %s: %w", f.path, err)
	}
	return report, nil
}

func (f fileMetricsSource) RecentMetrics(context.Context) ([]analytics.Metrics, error) {
	report, err := f.read()
	if err != nil {
		return nil, err
	}
	items := make([]analytics.Metrics, 0, len(report.Items))
	for _, item := range report.Items {
		items = append(items, analytics.Metrics{
			PermanentID: item.PermanentID,
			Views:       item.Views,
			Likes:       item.Likes,
			Comments:    item.Comments,
		})
	}
	return items, nil
}

func (f fileMetricsSource) PeakHours(context.Context) ([]int, error) {
	report, err := f.read()
	if err != nil {
		return nil, err
	}
	return report.PeakHours, nil
}

func newCollectCommand(ctx *commandContext) *cobra.Command {
	var reportPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Apply engagement analytics back to source scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, eng *engine.Engine) error {
				if strings.TrimSpace(reportPath) == "" {
					return fmt.Errorf("--report is required: a JSON file of per-item engagement metrics")
				}

				report, err := eng.Collect(cmd.Context(), fileMetricsSource{path: reportPath})
				if err != nil {
					return err
				}

				if jsonOutput {
					return writeJSON(cmd, report)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Analytics: %d items seen, %d matched, %d skipped\n",
					report.ItemsSeen, report.ItemsMatched, report.ItemsSkipped)
				fmt.Fprintf(out, "Updated %d source scores\n", report.SourcesUpdated)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&reportPath, "report", "r", "", "JSON engagement metrics report")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the collection report as JSON")
	return cmd
}
