package adzuna

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"job_fetcher/internal/dedup"
	"job_fetcher/internal/domain"
	"job_fetcher/internal/remote"
	"job_fetcher/internal/source"
)

const (
	SourceID       = "adzuna"
	SourceName     = "Adzuna"
	DefaultBaseURL = "https://api.adzuna.com/v1/api/jobs/us/search"

	fallbackQuery = "Software Engineer"
)

type Config struct {
	AppID          string
	AppKey         string
	BaseURL        string
	ResultsPerPage int
	MaxDaysOld     int
	Timeout        time.Duration
	Retry          source.RetryConfig
}

// Source implements aggregator.Source for the Adzuna search API.
type Source struct {
	client *source.Client
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	logger = logger.With(zap.String("source", SourceID))

	return &Source{
		client: source.NewClient(cfg.Timeout, cfg.Retry, logger),
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
	}
}

func (s *Source) ID() string {
	return SourceID
}

func (s *Source) Name() string {
	return SourceName
}

// Search runs a location search and, unless remoteOnly, a parallel nationwide
// remote search. Missing credentials yield no results rather than an error.
func (s *Source) Search(ctx context.Context, query, location string, remoteOnly bool) ([]domain.Listing, error) {
	if s.cfg.AppID == "" || s.cfg.AppKey == "" {
		s.logger.Warn("adzuna credentials not configured, skipping")
		return nil, nil
	}

	simplified := SimplifyQuery(query)

	locationQuery := simplified
	if remoteOnly {
		locationQuery = simplified + " remote"
	}

	searches := []struct {
		what  string
		where string
	}{
		{what: locationQuery, where: location},
	}
	if !remoteOnly {
		searches = append(searches, struct {
			what  string
			where string
		}{what: simplified + " remote"})
	}

	results := make([][]Job, len(searches))
	g, gctx := errgroup.WithContext(ctx)
	for i, search := range searches {
		g.Go(func() error {
			jobs, err := s.fetch(gctx, search.what, search.where)
			if err != nil {
				return fmt.Errorf("search %q: %w", search.what, err)
			}
			results[i] = jobs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Job
	for _, jobs := range results {
		all = append(all, jobs...)
	}

	listings := dedup.WithinSource(s.transform(all))
	s.logger.Info("mapped adzuna jobs", zap.Int("count", len(listings)))

	return listings, nil
}

func (s *Source) fetch(ctx context.Context, what, where string) ([]Job, error) {
	params := url.Values{}
	params.Set("app_id", s.cfg.AppID)
	params.Set("app_key", s.cfg.AppKey)
	params.Set("what", what)
	params.Set("results_per_page", strconv.Itoa(s.cfg.ResultsPerPage))
	params.Set("max_days_old", strconv.Itoa(s.cfg.MaxDaysOld))
	params.Set("sort_by", "relevance")
	if !IsBroadLocation(where) {
		params.Set("where", where)
	}

	s.logger.Debug("searching adzuna",
		zap.String("what", what),
		zap.String("where", where),
	)

	var resp APIResponse
	if err := s.client.GetJSON(ctx, s.cfg.BaseURL+"/1?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	return resp.Results, nil
}

func (s *Source) transform(jobs []Job) []domain.Listing {
	fetchedAt := s.now().UTC()
	listings := make([]domain.Listing, 0, len(jobs))

	for _, j := range jobs {
		company := ""
		if j.Company != nil {
			company = j.Company.DisplayName
		}
		location := ""
		if j.Location != nil {
			location = j.Location.DisplayName
		}

		externalID := string(j.ID)
		if externalID == "" {
			externalID = source.FallbackID(j.RedirectURL, j.Title, company)
		}

		postedAt := j.Created
		if postedAt.IsZero() {
			postedAt = fetchedAt
		}

		listing := domain.Listing{
			ExternalID:  externalID,
			Source:      SourceName,
			Title:       j.Title,
			Company:     company,
			Location:    location,
			Description: j.Description,
			URL:         j.RedirectURL,
			Salary:      FormatSalary(j.SalaryMin, j.SalaryMax),
			IsRemote:    remote.Classify(location, j.Description, j.Title),
			Latitude:    j.Latitude,
			Longitude:   j.Longitude,
			PostedAt:    postedAt,
			FetchedAt:   fetchedAt,
		}

		if j.RedirectURL != "" {
			listing.ApplyLinks = []domain.ApplyLink{{Title: "Apply on Adzuna", URL: j.RedirectURL}}
		}

		listings = append(listings, listing)
	}

	return listings
}

var broadLocations = map[string]bool{
	"united states": true,
	"us":            true,
	"usa":           true,
	"anywhere":      true,
	"remote":        true,
}

// IsBroadLocation reports whether location is too wide to pass as Adzuna's "where".
func IsBroadLocation(location string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(location))
	return trimmed == "" || broadLocations[trimmed]
}

// Adzuna ANDs every keyword, so stack terms starve local results.
var techTerms = map[string]bool{
	".net": true, "c#": true, "angular": true, "react": true, "node.js": true, "nodejs": true,
	"python": true, "java": true, "typescript": true, "javascript": true, "aws": true,
	"azure": true, "sql": true, "docker": true, "kubernetes": true, "go": true, "rust": true,
	"ruby": true, "php": true, "swift": true, "kotlin": true, "vue": true, "svelte": true,
	"next.js": true, "spring": true, "django": true, "flask": true, "rails": true,
	"graphql": true, "mongodb": true, "postgresql": true,
}

// SimplifyQuery drops stack terms and keeps the role words.
func SimplifyQuery(query string) string {
	var kept []string
	for _, word := range strings.Fields(query) {
		if !techTerms[strings.ToLower(word)] {
			kept = append(kept, word)
		}
	}
	if len(kept) == 0 {
		return fallbackQuery
	}
	return strings.Join(kept, " ")
}

func FormatSalary(salaryMin, salaryMax *float64) *string {
	hasMin := salaryMin != nil && *salaryMin > 0
	hasMax := salaryMax != nil && *salaryMax > 0

	var formatted string
	switch {
	case hasMin && hasMax && math.Abs(*salaryMin-*salaryMax) < 1:
		formatted = dollars(*salaryMin)
	case hasMin && hasMax:
		formatted = dollars(*salaryMin) + " - " + dollars(*salaryMax)
	case hasMin:
		formatted = dollars(*salaryMin)
	case hasMax:
		formatted = dollars(*salaryMax)
	default:
		return nil
	}
	return &formatted
}

// dollars renders a whole-dollar amount with thousands separators.
func dollars(v float64) string {
	digits := strconv.FormatInt(int64(math.Round(v)), 10)

	var b strings.Builder
	b.WriteByte('$')
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
