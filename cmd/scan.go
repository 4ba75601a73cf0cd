package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/localsignal/visibility-cli/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan <profile-id>",
	Short: "Run a visibility scan for a profile",
	Long:  "Creates a run (or reuses the cached one from the last 24 hours), executes every active prompt against the entitled models, scores the outcomes, and verifies cited sources.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initScan(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		user, _ := cmd.Flags().GetString("user")
		models, _ := cmd.Flags().GetStringSlice("models")
		force, _ := cmd.Flags().GetBool("force")

		ref, err := env.Service.CreateRun(ctx, user, args[0], models, force)
		if err != nil {
			return formatScanError(err)
		}

		if ref.Cached {
			fmt.Fprintf(os.Stdout, "Reusing cached run %s (pass --force to rescan).\n", ref.RunID)
		} else {
			fmt.Fprintf(os.Stdout, "Run %s created, executing...\n", ref.RunID)
			if err := env.Service.ExecuteRun(ctx, ref.RunID); err != nil {
				return err
			}
		}

		detail, err := env.Service.GetRunDetail(ctx, user, ref.RunID)
		if err != nil {
			return formatScanError(err)
		}

		formatRunDetail(os.Stdout, detail)
		return nil
	},
}

func init() {
	scanCmd.Flags().String("user", "local", "owning user id")
	scanCmd.Flags().StringSlice("models", nil, "models to scan (default: full tier roster)")
	scanCmd.Flags().Bool("force", false, "bypass the 24h run cache")
	rootCmd.AddCommand(scanCmd)
}

// formatRunDetail writes the run's score summary to w.
func formatRunDetail(out io.Writer, d *scan.RunDetail) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s (%s)\n", d.Run.ID, d.Run.Status)
	_, _ = fmt.Fprintf(w, "Business:\t%s\n", d.Profile.Name)

	if d.Score != nil {
		_, _ = fmt.Fprintf(w, "Score:\t%d/100 (%s)\n", d.Score.TotalScore, d.Score.Status)
		_, _ = fmt.Fprintf(w, "Confidence:\t%s\n", d.Score.Confidence.Level)
		for _, reason := range d.Score.Confidence.Reasons {
			_, _ = fmt.Fprintf(w, "\t- %s\n", reason)
		}
	}

	if len(d.TopCompetitors) > 0 {
		_, _ = fmt.Fprintln(w, "Top competitors:")
		for _, c := range d.TopCompetitors {
			_, _ = fmt.Fprintf(w, "\t%s\t%d mentions\n", c.Name, c.Mentions)
		}
	}

	if len(d.Highlights) > 0 {
		_, _ = fmt.Fprintln(w, "Highlights:")
		for _, h := range d.Highlights {
			_, _ = fmt.Fprintf(w, "\t- %s\n", h)
		}
	}

	if d.Score != nil && len(d.Score.Recommendations) > 0 {
		_, _ = fmt.Fprintln(w, "Recommendations:")
		for _, r := range d.Score.Recommendations {
			_, _ = fmt.Fprintf(w, "\t- %s\n", r)
		}
	}
	_ = w.Flush()
}
