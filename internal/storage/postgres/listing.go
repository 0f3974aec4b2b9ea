package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"job_fetcher/internal/apperr"
	"job_fetcher/internal/domain"
	"job_fetcher/internal/geo"
)

const listingColumns = `
	id, external_id, source, title, company, location, description, url,
	apply_links, salary, relevance_score, matched_skills, missing_skills,
	is_remote, latitude, longitude, posted_at, fetched_at, status,
	created_at, updated_at`

type ListingStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewListingStore(db *sqlx.DB) *ListingStore {
	return &ListingStore{db: db, now: time.Now}
}

// applyLinks is stored as a JSONB array.
type applyLinks []domain.ApplyLink

func (a applyLinks) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (a *applyLinks) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("apply_links: unsupported type %T", src)
	}
	return json.Unmarshal(raw, a)
}

type listingRow struct {
	ID             int64          `db:"id"`
	ExternalID     string         `db:"external_id"`
	Source         string         `db:"source"`
	Title          string         `db:"title"`
	Company        string         `db:"company"`
	Location       string         `db:"location"`
	Description    string         `db:"description"`
	URL            string         `db:"url"`
	ApplyLinks     applyLinks     `db:"apply_links"`
	Salary         *string        `db:"salary"`
	RelevanceScore float64        `db:"relevance_score"`
	MatchedSkills  pq.StringArray `db:"matched_skills"`
	MissingSkills  pq.StringArray `db:"missing_skills"`
	IsRemote       bool           `db:"is_remote"`
	Latitude       *float64       `db:"latitude"`
	Longitude      *float64       `db:"longitude"`
	PostedAt       time.Time      `db:"posted_at"`
	FetchedAt      time.Time      `db:"fetched_at"`
	Status         string         `db:"status"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r *listingRow) toDomain() (domain.Listing, error) {
	status, err := domain.ParseStatus(r.Status)
	if err != nil {
		return domain.Listing{}, err
	}

	return domain.Listing{
		ID:             r.ID,
		ExternalID:     r.ExternalID,
		Source:         r.Source,
		Title:          r.Title,
		Company:        r.Company,
		Location:       r.Location,
		Description:    r.Description,
		URL:            r.URL,
		ApplyLinks:     []domain.ApplyLink(r.ApplyLinks),
		Salary:         r.Salary,
		RelevanceScore: r.RelevanceScore,
		MatchedSkills:  []string(r.MatchedSkills),
		MissingSkills:  []string(r.MissingSkills),
		IsRemote:       r.IsRemote,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		PostedAt:       r.PostedAt,
		FetchedAt:      r.FetchedAt,
		Status:         status,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}

func toDomainList(rows []listingRow) ([]domain.Listing, error) {
	listings := make([]domain.Listing, 0, len(rows))
	for i := range rows {
		listing, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// Upsert inserts a listing or refreshes every mutable field of the existing
// row with the same (source, external_id). Id, status and created_at survive.
func (s *ListingStore) Upsert(ctx context.Context, listing domain.Listing) (domain.UpsertResult, error) {
	query := `
		INSERT INTO listings (
			external_id, source, title, company, location, description, url,
			apply_links, salary, relevance_score, matched_skills, missing_skills,
			is_remote, latitude, longitude, posted_at, fetched_at, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, 'new'
		)
		ON CONFLICT (source, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			company = EXCLUDED.company,
			location = EXCLUDED.location,
			description = EXCLUDED.description,
			url = EXCLUDED.url,
			apply_links = EXCLUDED.apply_links,
			salary = EXCLUDED.salary,
			relevance_score = EXCLUDED.relevance_score,
			matched_skills = EXCLUDED.matched_skills,
			missing_skills = EXCLUDED.missing_skills,
			is_remote = EXCLUDED.is_remote,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			posted_at = EXCLUDED.posted_at,
			fetched_at = EXCLUDED.fetched_at,
			updated_at = NOW()
		RETURNING ` + listingColumns + `, (xmax = 0) AS created`

	var row struct {
		listingRow
		Created bool `db:"created"`
	}

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query,
		listing.ExternalID,
		listing.Source,
		listing.Title,
		listing.Company,
		listing.Location,
		listing.Description,
		listing.URL,
		applyLinks(listing.ApplyLinks),
		listing.Salary,
		listing.RelevanceScore,
		pq.Array(nonNil(listing.MatchedSkills)),
		pq.Array(nonNil(listing.MissingSkills)),
		listing.IsRemote,
		listing.Latitude,
		listing.Longitude,
		listing.PostedAt,
		listing.FetchedAt,
	)
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("upsert listing %s/%s: %w", listing.Source, listing.ExternalID, err)
	}

	stored, err := row.toDomain()
	if err != nil {
		return domain.UpsertResult{}, err
	}
	return domain.UpsertResult{Listing: stored, Created: row.Created}, nil
}

// UpsertMany upserts in order. Callers wanting atomicity wrap it in a transaction.
func (s *ListingStore) UpsertMany(ctx context.Context, listings []domain.Listing) ([]domain.UpsertResult, error) {
	results := make([]domain.UpsertResult, 0, len(listings))
	for _, listing := range listings {
		result, err := s.Upsert(ctx, listing)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *ListingStore) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	return s.getOne(ctx, query, id)
}

func (s *ListingStore) GetByExternalID(ctx context.Context, externalID, source string) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE external_id = $1 AND source = $2`
	return s.getOne(ctx, query, externalID, source)
}

func (s *ListingStore) getOne(ctx context.Context, query string, args ...any) (*domain.Listing, error) {
	var row listingRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("listing not found", err)
	}
	if err != nil {
		return nil, err
	}

	listing, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// List applies status and age filters in SQL. With a location filter the
// distance check runs in Go over the full match set before paging.
func (s *ListingStore) List(ctx context.Context, q domain.ListQuery) ([]domain.Listing, error) {
	where, args := s.buildFilter(q)

	order := "relevance_score DESC, id ASC"
	if q.SortBy == domain.SortByDate {
		order = "posted_at DESC, id ASC"
	}

	query := `SELECT ` + listingColumns + ` FROM listings` + where + ` ORDER BY ` + order

	page, pageSize := pageBounds(q)
	if q.Location == nil {
		args = append(args, pageSize, (page-1)*pageSize)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	var rows []listingRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, args...); err != nil {
		return nil, err
	}

	listings, err := toDomainList(rows)
	if err != nil {
		return nil, err
	}

	if q.Location == nil {
		return listings, nil
	}

	filtered := filterByLocation(listings, *q.Location)
	start := (page - 1) * pageSize
	if start >= len(filtered) {
		return []domain.Listing{}, nil
	}
	end := min(start+pageSize, len(filtered))
	return filtered[start:end], nil
}

func (s *ListingStore) Count(ctx context.Context, q domain.ListQuery) (int, error) {
	where, args := s.buildFilter(q)
	exec := GetExecutor(ctx, s.db)

	if q.Location == nil {
		var count int
		err := sqlx.GetContext(ctx, exec, &count, `SELECT COUNT(*) FROM listings`+where, args...)
		return count, err
	}

	var rows []struct {
		IsRemote  bool     `db:"is_remote"`
		Latitude  *float64 `db:"latitude"`
		Longitude *float64 `db:"longitude"`
	}
	query := `SELECT is_remote, latitude, longitude FROM listings` + where
	if err := sqlx.SelectContext(ctx, exec, &rows, query, args...); err != nil {
		return 0, err
	}

	count := 0
	for _, r := range rows {
		if withinFilter(r.IsRemote, r.Latitude, r.Longitude, *q.Location) {
			count++
		}
	}
	return count, nil
}

func (s *ListingStore) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	query := `UPDATE listings SET status = $1, updated_at = NOW() WHERE id = $2`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, status.String(), id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFound(fmt.Sprintf("listing %d not found", id), nil)
	}
	return nil
}

// AverageScore is 0 for an empty table.
func (s *ListingStore) AverageScore(ctx context.Context) (float64, error) {
	var avg float64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &avg,
		`SELECT COALESCE(AVG(relevance_score), 0) FROM listings`)
	return avg, err
}

// DeleteDuplicates keeps one row per exact (title, company): the one with the
// most apply links, then the lowest id.
func (s *ListingStore) DeleteDuplicates(ctx context.Context) (domain.DedupResult, error) {
	exec := GetExecutor(ctx, s.db)

	var groups int
	err := sqlx.GetContext(ctx, exec, &groups, `
		SELECT COUNT(*) FROM (
			SELECT 1 FROM listings GROUP BY title, company HAVING COUNT(*) > 1
		) dup`)
	if err != nil {
		return domain.DedupResult{}, fmt.Errorf("count duplicate groups: %w", err)
	}

	res, err := exec.ExecContext(ctx, `
		DELETE FROM listings WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY title, company
					ORDER BY jsonb_array_length(apply_links) DESC, id ASC
				) AS rn
				FROM listings
			) ranked
			WHERE rn > 1
		)`)
	if err != nil {
		return domain.DedupResult{}, fmt.Errorf("delete duplicates: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return domain.DedupResult{}, err
	}

	return domain.DedupResult{Removed: int(removed), Groups: groups}, nil
}

func (s *ListingStore) buildFilter(q domain.ListQuery) (string, []any) {
	var conds []string
	var args []any

	if q.Status != nil {
		args = append(args, q.Status.String())
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.PostedWithinHours != nil {
		args = append(args, s.now().Add(-time.Duration(*q.PostedWithinHours)*time.Hour))
		conds = append(conds, fmt.Sprintf("posted_at >= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func pageBounds(q domain.ListQuery) (int, int) {
	page, pageSize := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}

func filterByLocation(listings []domain.Listing, filter domain.LocationFilter) []domain.Listing {
	filtered := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if withinFilter(l.IsRemote, l.Latitude, l.Longitude, filter) {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

func withinFilter(isRemote bool, lat, lon *float64, filter domain.LocationFilter) bool {
	if filter.IncludeRemote && isRemote {
		return true
	}
	if lat == nil || lon == nil {
		return false
	}
	return geo.DistanceMiles(filter.Latitude, filter.Longitude, *lat, *lon) <= filter.RadiusMiles
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
