package googlejobs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"job_fetcher/internal/apperr"
	"job_fetcher/internal/dedup"
	"job_fetcher/internal/domain"
	"job_fetcher/internal/remote"
	"job_fetcher/internal/source"
)

const (
	SourceID       = "google_jobs"
	SourceName     = "Google Jobs"
	DefaultBaseURL = "https://serpapi.com/search"
)

type Config struct {
	APIKey   string
	BaseURL  string
	Num      int
	MaxPages int
	Timeout  time.Duration
	Retry    source.RetryConfig
}

// Source implements aggregator.Source for Google Jobs through SerpAPI.
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
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
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

// Search follows next-page tokens up to MaxPages. A page failure after the
// first keeps what was already fetched.
func (s *Source) Search(ctx context.Context, query, location string, remoteOnly bool) ([]domain.Listing, error) {
	if s.cfg.APIKey == "" {
		s.logger.Warn("serpapi key not configured, skipping")
		return nil, nil
	}

	q := query
	if remoteOnly {
		q = query + " remote"
	}

	var all []Job
	token := ""

	for page := 0; page < s.cfg.MaxPages; page++ {
		resp, err := s.fetchPage(ctx, q, location, token)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("fetch page %d: %w", page, err)
			}
			s.logger.Warn("stopping pagination", zap.Int("page", page), zap.Error(err))
			break
		}

		all = append(all, resp.JobsResults...)

		s.logger.Debug("fetched page",
			zap.Int("page", page),
			zap.Int("jobs", len(resp.JobsResults)),
			zap.Int("total", len(all)),
		)

		if resp.Pagination == nil || resp.Pagination.NextPageToken == "" {
			break
		}
		token = resp.Pagination.NextPageToken
	}

	listings := dedup.WithinSource(s.transform(all))
	s.logger.Info("mapped google jobs", zap.String("query", q), zap.Int("count", len(listings)))

	return listings, nil
}

func (s *Source) fetchPage(ctx context.Context, q, location, token string) (*APIResponse, error) {
	params := url.Values{}
	params.Set("engine", "google_jobs")
	params.Set("q", q)
	if location != "" {
		params.Set("location", location)
	}
	params.Set("api_key", s.cfg.APIKey)
	if s.cfg.Num > 0 {
		params.Set("num", strconv.Itoa(s.cfg.Num))
	}
	if token != "" {
		params.Set("next_page_token", token)
	}

	var resp APIResponse
	if err := s.client.GetJSON(ctx, s.cfg.BaseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	// SerpAPI reports "no results" as an error string on a 200.
	if resp.Error != "" && len(resp.JobsResults) == 0 {
		if strings.Contains(strings.ToLower(resp.Error), "hasn't returned any results") {
			return &resp, nil
		}
		return nil, apperr.Unavailable("serpapi error", errors.New(resp.Error))
	}

	return &resp, nil
}

func (s *Source) transform(jobs []Job) []domain.Listing {
	fetchedAt := s.now().UTC()
	listings := make([]domain.Listing, 0, len(jobs))

	for _, j := range jobs {
		var links []domain.ApplyLink
		for _, opt := range j.ApplyOptions {
			if opt.Link == "" {
				continue
			}
			links = append(links, domain.ApplyLink{Title: opt.Title, URL: opt.Link})
		}

		canonicalURL := j.ShareLink
		if canonicalURL == "" && len(links) > 0 {
			canonicalURL = links[0].URL
		}

		var postedAt string
		var salary *string
		workFromHome := false
		if ext := j.DetectedExtensions; ext != nil {
			postedAt = ext.PostedAt
			if ext.Salary != "" {
				salary = &ext.Salary
			}
			workFromHome = ext.WorkFromHome
		}

		externalID := j.JobID
		if externalID == "" {
			externalID = source.FallbackID(canonicalURL, j.Title, j.CompanyName)
		}

		listings = append(listings, domain.Listing{
			ExternalID:  externalID,
			Source:      SourceName,
			Title:       j.Title,
			Company:     j.CompanyName,
			Location:    j.Location,
			Description: j.Description,
			URL:         canonicalURL,
			ApplyLinks:  links,
			Salary:      salary,
			IsRemote:    workFromHome || remote.Classify(j.Location, j.Description, j.Title),
			PostedAt:    ParseRelativeDate(postedAt, fetchedAt),
			FetchedAt:   fetchedAt,
		})
	}

	return listings
}

// ParseRelativeDate turns strings like "3 days ago" into a time before now.
// Anything it cannot read is treated as posted now.
func ParseRelativeDate(relative string, now time.Time) time.Time {
	lower := strings.ToLower(strings.TrimSpace(relative))
	if lower == "" {
		return now
	}

	if strings.Contains(lower, "yesterday") {
		return now.AddDate(0, 0, -1)
	}

	if strings.Contains(lower, "hour") || strings.Contains(lower, "minute") || strings.Contains(lower, "just") || strings.Contains(lower, "today") {
		return now
	}

	n, ok := leadingCount(lower)
	if !ok {
		return now
	}

	switch {
	case strings.Contains(lower, "day"):
		return now.AddDate(0, 0, -n)
	case strings.Contains(lower, "week"):
		return now.AddDate(0, 0, -7*n)
	case strings.Contains(lower, "month"):
		return now.AddDate(0, 0, -30*n)
	}

	return now
}

// leadingCount reads "3 days", "30+ days" or "a day" style prefixes.
func leadingCount(s string) (int, bool) {
	if strings.HasPrefix(s, "a ") || strings.HasPrefix(s, "an ") {
		return 1, true
	}

	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == 0 {
		return 0, false
	}
	if end < 0 {
		end = len(s)
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
