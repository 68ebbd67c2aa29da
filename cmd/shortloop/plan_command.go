package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"shortloop/internal/config"
	"shortloop/internal/engine"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var count int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview the publish times the scheduler would assign",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, eng *engine.Engine) error {
				decisions, err := eng.Plan(count)
				if err != nil {
					return err
				}

				if jsonOutput {
					type plannedSlot struct {
						Item       int    `json:"item"`
						PublishNow bool   `json:"publish_now"`
						At         string `json:"at,omitempty"`
					}
					slots := make([]plannedSlot, 0, len(decisions))
					for i, d := range decisions {
						slot := plannedSlot{Item: i + 1, PublishNow: d.PublishNow}
						if !d.PublishNow {
							slot.At = d.At.Format(time.RFC3339)
						}
						slots = append(slots, slot)
					}
					return writeJSON(cmd, slots)
				}

				rows := make([][]string, 0, len(decisions))
				for i, d := range decisions {
					when := "now"
					if !d.PublishNow {
						when = formatTimestamp(d.At)
					}
					rows = append(rows, []string{strconv.Itoa(i + 1), when})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Item", "Publish At"},
					rows,
					[]columnAlignment{alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 5, "Number of items to plan for")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the plan as JSON")
	return cmd
}
