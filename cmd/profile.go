package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/localsignal/visibility-cli/internal/model"
	"github.com/localsignal/visibility-cli/internal/scan"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage business profiles",
}

// -- profile upsert --

var profileUpsertCmd = &cobra.Command{
	Use:   "upsert",
	Short: "Create or update a business profile",
	Long:  "Upserts a profile keyed on (user, normalized domain). Pass --file for a full YAML profile, or the individual flags for a minimal one.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initScan(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		profile, err := profileFromFlags(cmd)
		if err != nil {
			return err
		}

		user, _ := cmd.Flags().GetString("user")
		saved, outcome, err := env.Service.UpsertProfile(ctx, user, profile)
		if err != nil {
			return formatScanError(err)
		}

		fmt.Fprintf(os.Stdout, "Profile %s (%s): %s\n", saved.ID, saved.Domain, outcome)
		return nil
	},
}

// -- profile show --

var profileShowCmd = &cobra.Command{
	Use:   "show <profile-id>",
	Short: "Show a profile as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initScan(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		profile, err := env.Store.GetProfile(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "profile show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	},
}

func init() {
	profileUpsertCmd.Flags().String("file", "", "YAML file holding the full profile")
	profileUpsertCmd.Flags().String("name", "", "business name")
	profileUpsertCmd.Flags().String("domain", "", "website domain")
	profileUpsertCmd.Flags().String("city", "", "primary city")
	profileUpsertCmd.Flags().String("state", "", "primary state")
	profileUpsertCmd.Flags().StringSlice("category", nil, "business category (repeatable)")
	profileUpsertCmd.Flags().StringSlice("neighborhood", nil, "served neighborhood (repeatable)")
	profileUpsertCmd.Flags().StringSlice("synonym", nil, "brand synonym (repeatable)")
	profileUpsertCmd.Flags().StringSlice("competitor", nil, "known competitor (repeatable)")
	profileUpsertCmd.Flags().Int("radius", 0, "service radius in miles")
	profileUpsertCmd.PersistentFlags().String("user", "local", "owning user id")

	profileCmd.AddCommand(profileUpsertCmd)
	profileCmd.AddCommand(profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}

// profileFromFlags builds a BusinessProfile from --file or the
// individual flags. Flags override file values when both are given.
func profileFromFlags(cmd *cobra.Command) (*model.BusinessProfile, error) {
	var profile model.BusinessProfile

	if path, _ := cmd.Flags().GetString("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrap(err, "read profile file")
		}
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, eris.Wrap(err, "parse profile file")
		}
	}

	if v, _ := cmd.Flags().GetString("name"); v != "" {
		profile.Name = v
	}
	if v, _ := cmd.Flags().GetString("domain"); v != "" {
		profile.Domain = v
	}
	if v, _ := cmd.Flags().GetString("city"); v != "" {
		profile.Location.City = v
	}
	if v, _ := cmd.Flags().GetString("state"); v != "" {
		profile.Location.State = v
	}
	if v, _ := cmd.Flags().GetStringSlice("category"); len(v) > 0 {
		profile.Categories = v
	}
	if v, _ := cmd.Flags().GetStringSlice("neighborhood"); len(v) > 0 {
		profile.Neighborhoods = v
	}
	if v, _ := cmd.Flags().GetStringSlice("synonym"); len(v) > 0 {
		profile.BrandSynonyms = v
	}
	if v, _ := cmd.Flags().GetStringSlice("competitor"); len(v) > 0 {
		profile.CompetitorOverrides = v
	}
	if v, _ := cmd.Flags().GetInt("radius"); v > 0 {
		profile.ServiceRadiusMiles = v
	}

	return &profile, nil
}

// formatScanError renders gate and validation errors with their field
// details instead of a bare message.
func formatScanError(err error) error {
	var e *scan.Error
	if !errors.As(err, &e) {
		return err
	}
	if len(e.Fields) == 0 {
		return err
	}
	msg := e.Message
	for _, f := range e.Fields {
		msg += "\n  " + f.String()
	}
	return eris.New(msg)
}
