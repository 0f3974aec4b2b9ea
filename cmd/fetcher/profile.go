package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"job_fetcher/internal/apperr"
	"job_fetcher/internal/domain"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or replace the search profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the search profile, seeding the default when none is stored",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		profile, err := a.profileService().Get(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), profile)
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <file.yaml>",
	Short: "Replace the search profile with the one in a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read profile: %w", err)
		}

		var profile domain.SearchProfile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return apperr.InvalidInput("parse profile", err)
		}

		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		saved, err := a.profileService().Save(ctx, &profile)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), saved)
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd, profileSetCmd)
	rootCmd.AddCommand(profileCmd)
}
