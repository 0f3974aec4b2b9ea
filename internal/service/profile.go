package service

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"job_fetcher/internal/apperr"
	"job_fetcher/internal/config"
	"job_fetcher/internal/domain"
	"job_fetcher/internal/scoring"
	"job_fetcher/internal/skills"
)

const defaultProfileName = "Default"

type ProfileService struct {
	profiles ProfileStore
	logger   *zap.Logger
	config   config.SearchConfig
}

func NewProfileService(profiles ProfileStore, logger *zap.Logger, cfg config.SearchConfig) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		logger:   logger.Named("profile"),
		config:   cfg,
	}
}

// Get returns the stored profile, seeding and saving a default one when none exists.
func (s *ProfileService) Get(ctx context.Context) (*domain.SearchProfile, error) {
	profile, err := s.profiles.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile != nil {
		return profile, nil
	}

	s.logger.Info("seeding default search profile")
	return s.Save(ctx, s.defaultProfile())
}

// Save validates and stores the profile, replacing any existing one.
func (s *ProfileService) Save(ctx context.Context, profile *domain.SearchProfile) (*domain.SearchProfile, error) {
	if profile == nil {
		return nil, apperr.InvalidInput("profile is required", nil)
	}
	if profile.RadiusMiles < 0 {
		return nil, apperr.InvalidInput("radius_miles must not be negative", nil)
	}
	if (profile.HomeLatitude == nil) != (profile.HomeLongitude == nil) {
		return nil, apperr.InvalidInput("home_latitude and home_longitude must be set together", nil)
	}
	if profile.Name == "" {
		profile.Name = defaultProfileName
	}

	saved, err := s.profiles.Upsert(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return saved, nil
}

func (s *ProfileService) defaultProfile() *domain.SearchProfile {
	return &domain.SearchProfile{
		Name:                  defaultProfileName,
		Query:                 s.config.DefaultQuery,
		PreferredLocation:     s.config.DefaultLocation,
		RadiusMiles:           s.config.DefaultRadiusMiles,
		RequiredSkills:        slices.Clone(skills.Core),
		PreferredSkills:       slices.Clone(skills.Strong),
		TitleKeywords:         slices.Clone(scoring.DefaultTitleKeywords),
		NegativeTitleKeywords: slices.Clone(scoring.DefaultNegativeKeywords),
	}
}
