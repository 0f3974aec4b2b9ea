// Package scoring computes the relevance of a listing against a search profile.
package scoring

import (
	"math"
	"slices"
	"strings"
	"time"

	"job_fetcher/internal/domain"
	"job_fetcher/internal/skills"
)

const (
	TitleWeight    = 0.30
	SkillWeight    = 0.45
	LocationWeight = 0.10
	RecencyWeight  = 0.15

	NegativePenalty = 0.3
	bonusFactor     = 0.5
)

var DefaultTitleKeywords = []string{
	"Senior Software Engineer",
	"Senior Software Developer",
	"Senior Full Stack Developer",
	"Senior .NET Developer",
	"Senior Backend Engineer",
	"Staff Software Engineer",
	"Lead Software Engineer",
	"Principal Software Engineer",
}

var DefaultNegativeKeywords = []string{
	"Junior",
	"Intern",
	"Entry Level",
	"Associate",
	"Data Scientist",
	"Machine Learning",
	"DevOps",
	"SRE",
	"QA",
	"Test Engineer",
	"Security Engineer",
}

type Breakdown struct {
	Title    float64 `json:"title"`
	Skills   float64 `json:"skills"`
	Location float64 `json:"location"`
	Recency  float64 `json:"recency"`
}

type Result struct {
	Score         float64
	MatchedSkills []string
	MissingSkills []string
	Breakdown     Breakdown
	Penalized     bool
}

type Scorer struct {
	now func() time.Time
}

func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// WithClock returns a scorer that measures listing age against now.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	return &Scorer{now: now}
}

// Score rates a listing in [0,1], rounded to 4 decimals. Profile may be nil.
func (s *Scorer) Score(listing *domain.Listing, profile *domain.SearchProfile) Result {
	titleKeywords, negativeKeywords := DefaultTitleKeywords, DefaultNegativeKeywords
	if profile != nil {
		if len(profile.TitleKeywords) > 0 {
			titleKeywords = profile.TitleKeywords
		}
		if len(profile.NegativeTitleKeywords) > 0 {
			negativeKeywords = profile.NegativeTitleKeywords
		}
	}

	skillScore, matched, missing := ScoreSkills(listing.Title, listing.Description, profile)

	breakdown := Breakdown{
		Title:    ScoreTitle(listing.Title, titleKeywords),
		Skills:   skillScore,
		Location: ScoreLocation(listing.Location, profile),
		Recency:  ScoreRecency(s.now().Sub(listing.PostedAt)),
	}

	score := breakdown.Title*TitleWeight +
		breakdown.Skills*SkillWeight +
		breakdown.Location*LocationWeight +
		breakdown.Recency*RecencyWeight

	penalized := HasNegativeKeyword(listing.Title, negativeKeywords)
	if penalized {
		score *= NegativePenalty
	}

	return Result{
		Score:         round4(clamp(score, 0, 1)),
		MatchedSkills: matched,
		MissingSkills: missing,
		Breakdown:     breakdown,
		Penalized:     penalized,
	}
}

// ScoreTitle returns 1.0 on any keyword hit, otherwise partial credit for
// seniority, role and stack terms.
func ScoreTitle(title string, keywords []string) float64 {
	lower := strings.ToLower(title)

	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
			return 1.0
		}
	}

	score := 0.0

	switch {
	case strings.Contains(lower, "senior"):
		score += 0.4
	case containsAny(lower, "staff", "principal", "lead"):
		score += 0.35
	}

	switch {
	case containsAny(lower, "software engineer", "software developer"):
		score += 0.4
	case containsAny(lower, "full stack", "fullstack"):
		score += 0.35
	case containsAny(lower, "developer", "engineer"):
		score += 0.2
	}

	if containsAny(lower, ".net", "dotnet") {
		score += 0.2
	}
	if strings.Contains(lower, "angular") {
		score += 0.1
	}

	return math.Min(score, 1.0)
}

// ScoreSkills weighs the profile's required (1.0) and preferred (0.6) skills, or
// the core and strong tiers when there is no profile or it lists no skills. Matched bonus-tier skills add half
// their weight to the numerator only.
func ScoreSkills(title, description string, profile *domain.SearchProfile) (float64, []string, []string) {
	text := title + " " + description

	type tracked struct {
		name   string
		weight float64
	}

	var targets []tracked
	if profile != nil && len(profile.RequiredSkills)+len(profile.PreferredSkills) > 0 {
		for _, name := range profile.RequiredSkills {
			targets = append(targets, tracked{name: canonical(name), weight: skills.CoreWeight})
		}
		for _, name := range profile.PreferredSkills {
			targets = append(targets, tracked{name: canonical(name), weight: skills.StrongWeight})
		}
	} else {
		for _, name := range skills.Core {
			targets = append(targets, tracked{name: name, weight: skills.CoreWeight})
		}
		for _, name := range skills.Strong {
			targets = append(targets, tracked{name: name, weight: skills.StrongWeight})
		}
	}

	matched := []string{}
	missing := []string{}
	seen := make(map[string]bool, len(targets))

	var numerator, denominator float64
	for _, target := range targets {
		if target.name == "" || seen[target.name] {
			continue
		}
		seen[target.name] = true

		denominator += target.weight
		if skills.Matches(target.name, text) {
			numerator += target.weight
			matched = append(matched, target.name)
		} else {
			missing = append(missing, target.name)
		}
	}

	found := skills.Extract(text)
	for _, name := range skills.Bonus {
		if seen[name] || !slices.Contains(found, name) {
			continue
		}
		numerator += skills.BonusWeight * bonusFactor
		matched = append(matched, name)
	}

	if denominator == 0 {
		return 0, matched, missing
	}
	return math.Min(numerator/denominator, 1.0), matched, missing
}

// ScoreLocation checks hybrid before remote, since "hybrid remote" is not fully remote.
func ScoreLocation(location string, profile *domain.SearchProfile) float64 {
	lower := strings.ToLower(strings.TrimSpace(location))

	switch {
	case strings.Contains(lower, "hybrid"):
		return 0.7
	case containsAny(lower, "remote", "work from home"):
		return 1.0
	case lower == "":
		return 0.5
	}

	if profile != nil {
		preferred := strings.ToLower(strings.TrimSpace(profile.PreferredLocation))
		if preferred != "" && (strings.Contains(lower, preferred) || strings.Contains(preferred, lower)) {
			return 0.8
		}
	}

	return 0.4
}

func ScoreRecency(age time.Duration) float64 {
	days := age.Hours() / 24

	switch {
	case days <= 1:
		return 1.0
	case days <= 3:
		return 0.9
	case days <= 7:
		return 0.7
	case days <= 14:
		return 0.5
	case days <= 30:
		return 0.3
	default:
		return 0.1
	}
}

func HasNegativeKeyword(title string, keywords []string) bool {
	lower := strings.ToLower(title)
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func canonical(name string) string {
	if normalized, ok := skills.Normalize(name); ok {
		return normalized
	}
	return strings.TrimSpace(name)
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
