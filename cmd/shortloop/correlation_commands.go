package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shortloop/internal/config"
	"shortloop/internal/engine"
)

func newCorrelationCommand(ctx *commandContext) *cobra.Command {
	correlationCmd := &cobra.Command{
		Use:   "correlation",
		Short: "Inspect and prune item-to-source correlation state",
	}

	correlationCmd.AddCommand(newCorrelationListCommand(ctx))
	correlationCmd.AddCommand(newCorrelationPruneCommand(ctx))

	return correlationCmd
}

func newCorrelationListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List correlation entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, eng *engine.Engine) error {
				entries, err := eng.Store().Entries(cmd.Context())
				if err != nil {
					return err
				}

				if jsonOutput {
					return writeJSON(cmd, entries)
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					permanent := entry.PermanentID
					if permanent == "" {
						permanent = "(pending)"
					}
					added := entry.AddedAt
					if t, ok := entry.AddedTime(); ok {
						added = formatTimestamp(t)
					}
					rows = append(rows, []string{entry.EphemeralID, entry.Source, permanent, added})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Ephemeral ID", "Source", "Permanent ID", "Added"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit entries as JSON")
	return cmd
}

func newCorrelationPruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove correlation entries older than the configured TTL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, eng *engine.Engine) error {
				ttl := time.Duration(cfg.Analytics.CorrelationTTLDays) * 24 * time.Hour
				removed, err := eng.Store().Prune(cmd.Context(), ttl)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d correlation entries older than %dd\n",
					removed, cfg.Analytics.CorrelationTTLDays)
				return nil
			})
		},
	}
}
