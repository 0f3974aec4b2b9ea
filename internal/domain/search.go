package domain

import "time"

const (
	SortByScore = "score"
	SortByDate  = "date"
)

// SearchRequest holds the optional overrides for one orchestration pass.
type SearchRequest struct {
	Query      *string
	Location   *string
	RemoteOnly *bool
}

// LocationFilter keeps listings within RadiusMiles of the home point,
// plus every remote listing when IncludeRemote is set.
type LocationFilter struct {
	Latitude      float64
	Longitude     float64
	RadiusMiles   float64
	IncludeRemote bool
}

// ListQuery describes a paged read of persisted listings. Page is 1-based.
type ListQuery struct {
	Page              int
	PageSize          int
	Status            *Status
	SortBy            string
	PostedWithinHours *int
	Location          *LocationFilter
}

// SearchStats holds statistics about a search pass.
type SearchStats struct {
	Fetched      int
	Deduplicated int
	Geocoded     int
	New          int
	Updated      int
	Published    int
	Errors       int
	Duration     time.Duration
}

// UpsertResult is the stored form of a listing and whether the upsert created it.
type UpsertResult struct {
	Listing Listing
	Created bool
}

// DedupResult reports an admin collapse of persisted duplicates.
type DedupResult struct {
	Removed int
	Groups  int
}

// ListingPage is one page of persisted listings plus the total match count.
type ListingPage struct {
	Items    []Listing
	Total    int
	Page     int
	PageSize int
}

type DashboardStats struct {
	Total        int
	New          int
	Applied      int
	Dismissed    int
	AverageScore float64
}

// Dashboard summarizes recently posted listings.
type Dashboard struct {
	Stats  DashboardStats
	Top    []Listing
	Recent []Listing
}

// BackfillResult reports a reclassify-and-geocode pass over stored listings.
type BackfillResult struct {
	Processed    int
	Reclassified int
	Geocoded     int
}
