package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Summarize listings posted in the last three days",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		dash, err := a.listingService().Dashboard(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		st := dash.Stats
		fmt.Fprintf(out, "total %d, new %d, applied %d, dismissed %d, average score %.4f\n\n",
			st.Total, st.New, st.Applied, st.Dismissed, st.AverageScore)

		fmt.Fprintln(out, "Top matches")
		if err := printListings(out, dash.Top); err != nil {
			return err
		}
		fmt.Fprintln(out, "\nMost recent")
		return printListings(out, dash.Recent)
	},
}

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Collapse stored listings that share a title and company",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.listingService().Dedup(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d listings across %d duplicate groups\n", res.Removed, res.Groups)
		return nil
	},
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Reclassify remote status and geocode every stored listing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.listingService().Backfill(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "processed %d, reclassified %d, geocoded %d\n",
			res.Processed, res.Reclassified, res.Geocoded)
		return nil
	},
}

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address>",
	Short: "Resolve a free-text address to coordinates",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.listingService().Geocode(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd, dedupCmd, backfillCmd, geocodeCmd)
}
