package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shortloop/internal/config"
	"shortloop/internal/engine"
)

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "Inspect and maintain the discovery source pool",
	}

	sourcesCmd.AddCommand(newSourcesListCommand(ctx))
	sourcesCmd.AddCommand(newSourcesSetCommand(ctx))
	sourcesCmd.AddCommand(newSourcesExportCommand(ctx))
	sourcesCmd.AddCommand(newSourcesImportCommand(ctx))

	return sourcesCmd
}

func newSourcesListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sources ranked by score",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, eng *engine.Engine) error {
				sources, err := eng.Store().Sources(cmd.Context())
				if err != nil {
					return err
				}

				if jsonOutput {
					type sourceRow struct {
						SourceID    string  `json:"source_id"`
						Score       float64 `json:"score"`
						SampleCount int     `json:"sample_count"`
						UpdatedAt   string  `json:"updated_at,omitempty"`
					}
					rows := make([]sourceRow, 0, len(sources))
					for _, s := range sources {
						row := sourceRow{SourceID: s.SourceID, Score: s.Score, SampleCount: s.SampleCount}
						if !s.UpdatedAt.IsZero() {
							row.UpdatedAt = s.UpdatedAt.Format("2006-01-02T15:04:05Z07:00")
						}
						rows = append(rows, row)
					}
					return writeJSON(cmd, rows)
				}

				// Plain tab-separated output when piped.
				if !isTerminal(cmd.OutOrStdout()) {
					for _, s := range sources {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\n", s.SourceID, formatScore(s.Score), s.SampleCount)
					}
					return nil
				}

				rows := make([][]string, 0, len(sources))
				for _, s := range sources {
					marker := ""
					if s.SourceID == cfg.Discovery.SeedSource {
						marker = " (seed)"
					}
					rows = append(rows, []string{
						s.SourceID + marker,
						formatScore(s.Score),
						strconv.Itoa(s.SampleCount),
						formatTimestamp(s.UpdatedAt),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Source", "Score", "Samples", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
				))
				fmt.Fprintf(cmd.OutOrStdout(), "%d sources (capacity %d)\n", len(sources), cfg.Discovery.MaxSources)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit sources as JSON")
	return cmd
}

func newSourcesSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <source> <score>",
		Short: "Set a source score by hand",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, eng *engine.Engine) error {
				score, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("parse score %q: %w", args[1], err)
				}
				if err := eng.Store().SetScore(cmd.Context(), args[0], score); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s to %s\n", args[0], formatScore(score))
				return nil
			})
		},
	}
}

func newSourcesExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export scores and correlation state to a JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, eng *engine.Engine) error {
				if err := eng.Store().ExportJSON(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported engine state to %s\n", args[0])
				return nil
			})
		},
	}
}

func newSourcesImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Merge a previously exported JSON snapshot into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, eng *engine.Engine) error {
				if err := eng.Store().ImportJSON(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported engine state from %s\n", args[0])
				return nil
			})
		},
	}
}
