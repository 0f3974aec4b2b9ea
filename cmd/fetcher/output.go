package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"job_fetcher/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printListings(w io.Writer, listings []domain.Listing) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCORE\tSTATUS\tREMOTE\tTITLE\tCOMPANY\tLOCATION\tSOURCE")
	for _, l := range listings {
		fmt.Fprintf(tw, "%d\t%.4f\t%s\t%t\t%s\t%s\t%s\t%s\n",
			l.ID, l.RelevanceScore, l.Status, l.IsRemote,
			truncate(l.Title, 50), truncate(l.Company, 30), truncate(l.Location, 30), l.Source,
		)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
