package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shortloop/internal/config"
	"shortloop/internal/discovery"
	"shortloop/internal/engine"
	"shortloop/internal/publish"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var manifestPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one discovery-and-publish loop iteration",
		Long: `Run selects discovery sources by score, fetches candidates from the
manifest, schedules a publish time for each item, and invokes the configured
publish command with bounded retries. Feedback from analytics is applied
separately via 'shortloop collect'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(cfg *config.Config, eng *engine.Engine) error {
				if strings.TrimSpace(manifestPath) == "" {
					return fmt.Errorf("--manifest is required: a JSON file of candidates per source")
				}
				source, err := discovery.LoadManifest(manifestPath)
				if err != nil {
					return err
				}
				publisher, err := publish.NewExecPublisher(cfg.Publish)
				if err != nil {
					return err
				}

				report, err := eng.Run(cmd.Context(), engine.Collaborators{
					Source:    source,
					Metadata:  discovery.PassthroughMetadata{},
					Publisher: publisher,
				})
				if err != nil {
					return err
				}

				if jsonOutput {
					return writeJSON(cmd, report)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s finished in %s\n", report.RunID, report.Duration.Round(time.Second))
				fmt.Fprintf(out, "Sources: %s\n", strings.Join(report.SourcesSelected, ", "))
				fmt.Fprintf(out, "Discovered %d, published %d, failed %d\n",
					report.ItemsDiscovered, report.ItemsPublished, report.ItemsFailed)
				if len(report.SourcesAdmitted) > 0 {
					fmt.Fprintf(out, "New sources admitted: %s\n", strings.Join(report.SourcesAdmitted, ", "))
				}
				if len(report.SourcesEvicted) > 0 {
					fmt.Fprintf(out, "Sources evicted: %s\n", strings.Join(report.SourcesEvicted, ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "JSON manifest of discovered candidates per source")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run report as JSON")
	return cmd
}
