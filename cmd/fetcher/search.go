package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"job_fetcher/internal/domain"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one search, score and store the results, and print them ranked",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, appOptions{publisher: true, tracing: true})
		if err != nil {
			return err
		}
		defer a.close()

		var req domain.SearchRequest
		flags := cmd.Flags()
		if flags.Changed("query") {
			q, _ := flags.GetString("query")
			req.Query = &q
		}
		if flags.Changed("location") {
			loc, _ := flags.GetString("location")
			req.Location = &loc
		}
		if flags.Changed("remote") {
			remote, _ := flags.GetBool("remote")
			req.RemoteOnly = &remote
		}

		listings, stats, err := a.searchService().SearchAndScore(ctx, req)
		if err != nil {
			return err
		}

		limit, _ := flags.GetInt("limit")
		if limit > 0 && len(listings) > limit {
			listings = listings[:limit]
		}

		if err := printListings(cmd.OutOrStdout(), listings); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nfetched %d, deduplicated %d, geocoded %d, new %d, updated %d in %s\n",
			stats.Fetched, stats.Deduplicated, stats.Geocoded, stats.New, stats.Updated, stats.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("query", "q", "", "search query (default: profile query, then config default)")
	searchCmd.Flags().StringP("location", "l", "", "free-text location")
	searchCmd.Flags().BoolP("remote", "r", false, "remote positions only")
	searchCmd.Flags().Int("limit", 25, "rows to print, 0 for all")
}
