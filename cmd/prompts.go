package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/localsignal/visibility-cli/internal/model"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage a profile's prompt taxonomy",
}

// -- prompts generate --

var promptsGenerateCmd = &cobra.Command{
	Use:   "generate <profile-id>",
	Short: "Generate the four-layer prompt taxonomy for a profile",
	Long:  "Builds geo-cluster, implicit, radius/neighborhood, and problem-intent prompts from the profile and replaces its active template set.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initScan(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		user, _ := cmd.Flags().GetString("user")
		counts, err := env.Service.GeneratePrompts(ctx, user, args[0])
		if err != nil {
			return formatScanError(err)
		}

		formatLayerCounts(os.Stdout, counts)
		return nil
	},
}

// -- prompts list --

var promptsListCmd = &cobra.Command{
	Use:   "list <profile-id>",
	Short: "List a profile's active prompts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initScan(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		active, err := env.Store.ListActivePrompts(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "prompts list")
		}
		if len(active) == 0 {
			fmt.Fprintln(os.Stderr, "No active prompts. Run `prompts generate` first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tLAYER\tPROMPT")
		for _, p := range active {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", truncateID(p.ID), p.Layer, p.Text)
		}
		return w.Flush()
	},
}

func init() {
	promptsGenerateCmd.Flags().String("user", "local", "owning user id")

	promptsCmd.AddCommand(promptsGenerateCmd)
	promptsCmd.AddCommand(promptsListCmd)
	rootCmd.AddCommand(promptsCmd)
}

// formatLayerCounts writes per-layer template counts in taxonomy order.
func formatLayerCounts(out io.Writer, counts map[model.Layer]int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	total := 0
	for _, layer := range model.Layers {
		_, _ = fmt.Fprintf(w, "%s:\t%d\n", layer, counts[layer])
		total += counts[layer]
	}
	_, _ = fmt.Fprintf(w, "Total:\t%d\n", total)
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
