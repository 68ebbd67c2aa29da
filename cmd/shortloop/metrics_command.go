package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"shortloop/internal/config"
	"shortloop/internal/engine"
)

func newMetricsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show cumulative run counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, eng *engine.Engine) error {
				metrics, err := eng.Store().Metrics(cmd.Context())
				if err != nil {
					return err
				}

				if jsonOutput {
					return writeJSON(cmd, metrics)
				}

				kinds := make([]string, 0, len(metrics))
				for kind := range metrics {
					kinds = append(kinds, kind)
				}
				sort.Strings(kinds)

				rows := make([][]string, 0, len(kinds))
				for _, kind := range kinds {
					rows = append(rows, []string{kind, strconv.FormatInt(metrics[kind], 10)})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Counter", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit counters as JSON")
	return cmd
}
