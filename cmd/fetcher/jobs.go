package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"job_fetcher/internal/apperr"
	"job_fetcher/internal/domain"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List stored listings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		query, err := listQueryFromFlags(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		if query.Location != nil && query.Location.RadiusMiles == 0 {
			query.Location.RadiusMiles = float64(a.cfg.Search.DefaultRadiusMiles)
		}

		page, err := a.listingService().List(ctx, query)
		if err != nil {
			return err
		}

		if err := printListings(cmd.OutOrStdout(), page.Items); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\npage %d (%d per page), %d total\n", page.Page, page.PageSize, page.Total)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one listing and mark it viewed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		listing, err := a.listingService().Get(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), listing)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <id> <new|viewed|applied|dismissed>",
	Short: "Set the status of a listing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		status, err := domain.ParseStatus(args[1])
		if err != nil {
			return apperr.InvalidInput("invalid status", err)
		}

		a, err := newApp(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.listingService().UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "listing %d is now %s\n", id, status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd, showCmd, statusCmd)

	f := jobsCmd.Flags()
	f.Int("page", 1, "page number, starting at 1")
	f.Int("page-size", 20, "listings per page (max 100)")
	f.String("status", "", "only listings with this status")
	f.String("sort", domain.SortByScore, "sort by score or date")
	f.Int("posted-within", 0, "only listings posted within this many hours")
	f.String("near", "", "home point as lat,lon")
	f.Float64("radius", 0, "radius in miles around --near (default: config default radius)")
	f.Bool("include-remote", true, "with --near, also include remote listings")
}

func listQueryFromFlags(cmd *cobra.Command) (domain.ListQuery, error) {
	f := cmd.Flags()

	var q domain.ListQuery
	q.Page, _ = f.GetInt("page")
	q.PageSize, _ = f.GetInt("page-size")
	q.SortBy, _ = f.GetString("sort")

	if raw, _ := f.GetString("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return q, apperr.InvalidInput("invalid status", err)
		}
		q.Status = &status
	}

	if hours, _ := f.GetInt("posted-within"); hours > 0 {
		q.PostedWithinHours = &hours
	}

	if near, _ := f.GetString("near"); near != "" {
		lat, lon, err := parseLatLon(near)
		if err != nil {
			return q, err
		}
		radius, _ := f.GetFloat64("radius")
		includeRemote, _ := f.GetBool("include-remote")
		q.Location = &domain.LocationFilter{
			Latitude:      lat,
			Longitude:     lon,
			RadiusMiles:   radius,
			IncludeRemote: includeRemote,
		}
	}

	return q, nil
}

func parseLatLon(raw string) (float64, float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, apperr.InvalidInput(fmt.Sprintf("expected lat,lon, got %q", raw), nil)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, apperr.InvalidInput(fmt.Sprintf("invalid latitude %q", parts[0]), err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, apperr.InvalidInput(fmt.Sprintf("invalid longitude %q", parts[1]), err)
	}
	return lat, lon, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput(fmt.Sprintf("invalid listing id %q", raw), err)
	}
	return id, nil
}
