package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var quickscoreCmd = &cobra.Command{
	Use:   "quickscore",
	Short: "Compute the free fingerprint-cached visibility score",
	Long:  "Simulates a small fixed prompt matrix for a business without requiring a profile or subscription. Identical inputs reuse the cached score until it expires.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initScan(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		name, _ := cmd.Flags().GetString("name")
		website, _ := cmd.Flags().GetString("website")
		city, _ := cmd.Flags().GetString("city")
		category, _ := cmd.Flags().GetString("category")

		ttl := time.Duration(cfg.Scan.QuickScoreTTLHrs) * time.Hour
		qs, cached, err := env.Service.QuickScore(ctx, name, website, city, category, ttl)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "Score:\t%d/100 (%s)\n", qs.Score, qs.Status)
		_, _ = fmt.Fprintf(w, "Mentions:\t%d of %d answers\n", qs.Mentions, qs.Prompts*qs.Models)
		if cached {
			_, _ = fmt.Fprintln(w, "Source:\tcached")
		} else {
			_, _ = fmt.Fprintln(w, "Source:\tfresh")
		}
		return w.Flush()
	},
}

func init() {
	quickscoreCmd.Flags().String("name", "", "business name")
	quickscoreCmd.Flags().String("website", "", "business website")
	quickscoreCmd.Flags().String("city", "", "city")
	quickscoreCmd.Flags().String("category", "", "business category")
	_ = quickscoreCmd.MarkFlagRequired("name")
	_ = quickscoreCmd.MarkFlagRequired("website")
	_ = quickscoreCmd.MarkFlagRequired("city")
	_ = quickscoreCmd.MarkFlagRequired("category")
	rootCmd.AddCommand(quickscoreCmd)
}
