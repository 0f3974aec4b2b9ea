// Package remote decides whether a listing is a remote position from its text.
package remote

import "strings"

var (
	// Matched as substrings of the location.
	locationMarkers = []string{"remote", "work from home"}
	// Matched against the whole trimmed location.
	broadLocations = []string{"anywhere", "united states", "us", "usa"}

	titleMarkers = []string{"remote", "work from home"}

	// A bare "remote" in a description is too noisy (EEO boilerplate), so only
	// strong phrases count.
	descriptionPhrases = []string{
		"remote position",
		"fully remote",
		"100% remote",
		"work remotely",
		"remote role",
		"remote opportunity",
	}
)

// Classify reports whether a listing is remote. Evidence is checked in order:
// location, then title (may be empty), then description. First match wins.
func Classify(location, description, title string) bool {
	loc := strings.ToLower(strings.TrimSpace(location))
	if containsAny(loc, locationMarkers) {
		return true
	}
	for _, broad := range broadLocations {
		if loc == broad {
			return true
		}
	}

	if title != "" && containsAny(strings.ToLower(title), titleMarkers) {
		return true
	}

	return containsAny(strings.ToLower(description), descriptionPhrases)
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
