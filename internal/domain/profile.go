package domain

// SearchProfile drives scoring. Empty keyword lists fall back to the scorer defaults.
type SearchProfile struct {
	ID                    int64    `json:"id" yaml:"-"`
	Name                  string   `json:"name" yaml:"name"`
	RequiredSkills        []string `json:"required_skills" yaml:"required_skills"`
	PreferredSkills       []string `json:"preferred_skills" yaml:"preferred_skills"`
	TitleKeywords         []string `json:"title_keywords" yaml:"title_keywords"`
	NegativeTitleKeywords []string `json:"negative_title_keywords" yaml:"negative_title_keywords"`
	Query                 string   `json:"query" yaml:"query"`
	PreferredLocation     string   `json:"preferred_location" yaml:"preferred_location"`
	RemoteOnly            bool     `json:"remote_only" yaml:"remote_only"`
	RadiusMiles           int      `json:"radius_miles" yaml:"radius_miles"`
	HomeLatitude          *float64 `json:"home_latitude,omitempty" yaml:"home_latitude"`
	HomeLongitude         *float64 `json:"home_longitude,omitempty" yaml:"home_longitude"`
}

type GeocodeResult struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
}
