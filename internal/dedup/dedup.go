// Package dedup collapses listings that describe the same posting.
package dedup

import (
	"strings"

	"job_fetcher/internal/domain"
)

type sourceKey struct {
	externalID string
	source     string
}

// WithinSource keeps the first listing per (ExternalID, Source).
func WithinSource(listings []domain.Listing) []domain.Listing {
	seen := make(map[sourceKey]struct{}, len(listings))
	result := make([]domain.Listing, 0, len(listings))

	for _, l := range listings {
		key := sourceKey{externalID: l.ExternalID, source: l.Source}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, l)
	}

	return result
}

// CrossSource keeps the first listing per normalized (Title, Company). The
// heuristic over-merges generic titles at one company and misses retitled
// roles; input order decides which duplicate survives.
func CrossSource(listings []domain.Listing) []domain.Listing {
	seen := make(map[string]struct{}, len(listings))
	result := make([]domain.Listing, 0, len(listings))

	for _, l := range listings {
		key := Key(l.Title, l.Company)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, l)
	}

	return result
}

// Key is the normalized title/company identity used by CrossSource.
func Key(title, company string) string {
	return Normalize(title) + "|" + Normalize(company)
}

// Normalize trims, lowercases and collapses whitespace runs to one space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
