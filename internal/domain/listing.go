package domain

import (
	"fmt"
	"strings"
	"time"
)

type Status int

const (
	StatusNew Status = iota
	StatusViewed
	StatusApplied
	StatusDismissed
)

var statusNames = map[Status]string{
	StatusNew:       "new",
	StatusViewed:    "viewed",
	StatusApplied:   "applied",
	StatusDismissed: "dismissed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus converts a case-insensitive status name into a Status.
func ParseStatus(raw string) (Status, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	for status, name := range statusNames {
		if name == value {
			return status, nil
		}
	}
	return StatusNew, fmt.Errorf("unknown status %q", raw)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type ApplyLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Listing is a single job posting. (ExternalID, Source) is its natural key;
// ID is assigned by the store on first save.
type Listing struct {
	ID          int64       `json:"id"`
	ExternalID  string      `json:"external_id"`
	Source      string      `json:"source"`
	Title       string      `json:"title"`
	Company     string      `json:"company"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
	ApplyLinks  []ApplyLink `json:"apply_links,omitempty"`
	Salary      *string     `json:"salary,omitempty"`

	RelevanceScore float64  `json:"relevance_score"`
	MatchedSkills  []string `json:"matched_skills"`
	MissingSkills  []string `json:"missing_skills"`
	IsRemote       bool     `json:"is_remote"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`

	PostedAt  time.Time `json:"posted_at"`
	FetchedAt time.Time `json:"fetched_at"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (l *Listing) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}
