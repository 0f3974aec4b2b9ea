package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"job_fetcher/internal/domain"
)

const profileColumns = `
	id, name, query, preferred_location, remote_only, radius_miles,
	required_skills, preferred_skills, title_keywords, negative_title_keywords,
	home_latitude, home_longitude, created_at, updated_at`

type ProfileStore struct {
	db *sqlx.DB
}

func NewProfileStore(db *sqlx.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

type profileRow struct {
	ID                    int64          `db:"id"`
	Name                  string         `db:"name"`
	Query                 string         `db:"query"`
	PreferredLocation     string         `db:"preferred_location"`
	RemoteOnly            bool           `db:"remote_only"`
	RadiusMiles           int            `db:"radius_miles"`
	RequiredSkills        pq.StringArray `db:"required_skills"`
	PreferredSkills       pq.StringArray `db:"preferred_skills"`
	TitleKeywords         pq.StringArray `db:"title_keywords"`
	NegativeTitleKeywords pq.StringArray `db:"negative_title_keywords"`
	HomeLatitude          *float64       `db:"home_latitude"`
	HomeLongitude         *float64       `db:"home_longitude"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

func (r *profileRow) toDomain() *domain.SearchProfile {
	return &domain.SearchProfile{
		ID:                    r.ID,
		Name:                  r.Name,
		RequiredSkills:        []string(r.RequiredSkills),
		PreferredSkills:       []string(r.PreferredSkills),
		TitleKeywords:         []string(r.TitleKeywords),
		NegativeTitleKeywords: []string(r.NegativeTitleKeywords),
		Query:                 r.Query,
		PreferredLocation:     r.PreferredLocation,
		RemoteOnly:            r.RemoteOnly,
		RadiusMiles:           r.RadiusMiles,
		HomeLatitude:          r.HomeLatitude,
		HomeLongitude:         r.HomeLongitude,
	}
}

// Get returns the single stored profile, or nil when none has been saved.
func (s *ProfileStore) Get(ctx context.Context) (*domain.SearchProfile, error) {
	var row profileRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row,
		`SELECT `+profileColumns+` FROM search_profiles WHERE singleton`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// Upsert replaces the single stored profile.
func (s *ProfileStore) Upsert(ctx context.Context, profile *domain.SearchProfile) (*domain.SearchProfile, error) {
	query := `
		INSERT INTO search_profiles (
			name, query, preferred_location, remote_only, radius_miles,
			required_skills, preferred_skills, title_keywords, negative_title_keywords,
			home_latitude, home_longitude
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (singleton) DO UPDATE SET
			name = EXCLUDED.name,
			query = EXCLUDED.query,
			preferred_location = EXCLUDED.preferred_location,
			remote_only = EXCLUDED.remote_only,
			radius_miles = EXCLUDED.radius_miles,
			required_skills = EXCLUDED.required_skills,
			preferred_skills = EXCLUDED.preferred_skills,
			title_keywords = EXCLUDED.title_keywords,
			negative_title_keywords = EXCLUDED.negative_title_keywords,
			home_latitude = EXCLUDED.home_latitude,
			home_longitude = EXCLUDED.home_longitude,
			updated_at = NOW()
		RETURNING ` + profileColumns

	var row profileRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query,
		profile.Name,
		profile.Query,
		profile.PreferredLocation,
		profile.RemoteOnly,
		profile.RadiusMiles,
		pq.Array(nonNil(profile.RequiredSkills)),
		pq.Array(nonNil(profile.PreferredSkills)),
		pq.Array(nonNil(profile.TitleKeywords)),
		pq.Array(nonNil(profile.NegativeTitleKeywords)),
		profile.HomeLatitude,
		profile.HomeLongitude,
	)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}
