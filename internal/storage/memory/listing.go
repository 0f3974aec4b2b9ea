// Package memory keeps listings and the search profile in process memory.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"job_fetcher/internal/apperr"
	"job_fetcher/internal/domain"
	"job_fetcher/internal/geo"
)

type sourceKey struct {
	source     string
	externalID string
}

type ListingStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*domain.Listing
	byKey  map[sourceKey]int64
	now    func() time.Time
}

func NewListingStore() *ListingStore {
	return &ListingStore{
		byID:  make(map[int64]*domain.Listing),
		byKey: make(map[sourceKey]int64),
		now:   time.Now,
	}
}

func (s *ListingStore) Upsert(_ context.Context, listing domain.Listing) (domain.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(listing), nil
}

func (s *ListingStore) UpsertMany(_ context.Context, listings []domain.Listing) ([]domain.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]domain.UpsertResult, 0, len(listings))
	for _, listing := range listings {
		results = append(results, s.upsertLocked(listing))
	}
	return results, nil
}

func (s *ListingStore) upsertLocked(listing domain.Listing) domain.UpsertResult {
	now := s.now()
	key := sourceKey{source: listing.Source, externalID: listing.ExternalID}

	if id, ok := s.byKey[key]; ok {
		existing := s.byID[id]
		listing.ID = existing.ID
		listing.Status = existing.Status
		listing.CreatedAt = existing.CreatedAt
		listing.UpdatedAt = now

		stored := clone(listing)
		s.byID[id] = &stored
		return domain.UpsertResult{Listing: clone(stored), Created: false}
	}

	s.nextID++
	listing.ID = s.nextID
	listing.Status = domain.StatusNew
	listing.CreatedAt = now
	listing.UpdatedAt = now

	stored := clone(listing)
	s.byID[listing.ID] = &stored
	s.byKey[key] = listing.ID
	return domain.UpsertResult{Listing: clone(stored), Created: true}
}

func (s *ListingStore) GetByID(_ context.Context, id int64) (*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.byID[id]
	if !ok {
		return nil, apperr.NotFound("listing not found", nil)
	}
	listing := clone(*stored)
	return &listing, nil
}

func (s *ListingStore) GetByExternalID(ctx context.Context, externalID, source string) (*domain.Listing, error) {
	s.mu.RLock()
	id, ok := s.byKey[sourceKey{source: source, externalID: externalID}]
	s.mu.RUnlock()

	if !ok {
		return nil, apperr.NotFound("listing not found", nil)
	}
	return s.GetByID(ctx, id)
}

func (s *ListingStore) List(_ context.Context, q domain.ListQuery) ([]domain.Listing, error) {
	matched := s.filter(q)

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if q.SortBy == domain.SortByDate {
			if !a.PostedAt.Equal(b.PostedAt) {
				return a.PostedAt.After(b.PostedAt)
			}
		} else if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		return a.ID < b.ID
	})

	page, pageSize := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []domain.Listing{}, nil
	}
	return matched[start:min(start+pageSize, len(matched))], nil
}

func (s *ListingStore) Count(_ context.Context, q domain.ListQuery) (int, error) {
	return len(s.filter(q)), nil
}

func (s *ListingStore) UpdateStatus(_ context.Context, id int64, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok {
		return apperr.NotFound(fmt.Sprintf("listing %d not found", id), nil)
	}
	stored.Status = status
	stored.UpdatedAt = s.now()
	return nil
}

func (s *ListingStore) AverageScore(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.byID) == 0 {
		return 0, nil
	}

	var sum float64
	for _, l := range s.byID {
		sum += l.RelevanceScore
	}
	return sum / float64(len(s.byID)), nil
}

// DeleteDuplicates keeps one listing per exact (title, company): the one with
// the most apply links, then the lowest id.
func (s *ListingStore) DeleteDuplicates(_ context.Context) (domain.DedupResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type group struct{ title, company string }
	groups := make(map[group][]*domain.Listing)
	for _, l := range s.byID {
		g := group{l.Title, l.Company}
		groups[g] = append(groups[g], l)
	}

	var result domain.DedupResult
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		result.Groups++

		sort.Slice(members, func(i, j int) bool {
			if len(members[i].ApplyLinks) != len(members[j].ApplyLinks) {
				return len(members[i].ApplyLinks) > len(members[j].ApplyLinks)
			}
			return members[i].ID < members[j].ID
		})

		for _, dupe := range members[1:] {
			delete(s.byID, dupe.ID)
			delete(s.byKey, sourceKey{source: dupe.Source, externalID: dupe.ExternalID})
			result.Removed++
		}
	}

	return result, nil
}

func (s *ListingStore) filter(q domain.ListQuery) []domain.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cutoff time.Time
	if q.PostedWithinHours != nil {
		cutoff = s.now().Add(-time.Duration(*q.PostedWithinHours) * time.Hour)
	}

	matched := make([]domain.Listing, 0, len(s.byID))
	for _, l := range s.byID {
		if q.Status != nil && l.Status != *q.Status {
			continue
		}
		if q.PostedWithinHours != nil && l.PostedAt.Before(cutoff) {
			continue
		}
		if q.Location != nil && !withinFilter(l, *q.Location) {
			continue
		}
		matched = append(matched, clone(*l))
	}
	return matched
}

func withinFilter(l *domain.Listing, filter domain.LocationFilter) bool {
	if filter.IncludeRemote && l.IsRemote {
		return true
	}
	if !l.HasCoordinates() {
		return false
	}
	return geo.DistanceMiles(filter.Latitude, filter.Longitude, *l.Latitude, *l.Longitude) <= filter.RadiusMiles
}

// clone detaches slices and pointers so callers cannot mutate stored state.
func clone(l domain.Listing) domain.Listing {
	l.ApplyLinks = slices.Clone(l.ApplyLinks)
	l.MatchedSkills = slices.Clone(l.MatchedSkills)
	l.MissingSkills = slices.Clone(l.MissingSkills)
	if l.Salary != nil {
		salary := *l.Salary
		l.Salary = &salary
	}
	if l.Latitude != nil {
		lat := *l.Latitude
		l.Latitude = &lat
	}
	if l.Longitude != nil {
		lon := *l.Longitude
		l.Longitude = &lon
	}
	return l
}
