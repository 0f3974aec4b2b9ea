package memory

import (
	"context"
	"slices"
	"sync"

	"job_fetcher/internal/domain"
)

type ProfileStore struct {
	mu      sync.RWMutex
	profile *domain.SearchProfile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{}
}

// Get returns nil when no profile has been saved.
func (s *ProfileStore) Get(_ context.Context) (*domain.SearchProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile == nil {
		return nil, nil
	}
	return cloneProfile(s.profile), nil
}

func (s *ProfileStore) Upsert(_ context.Context, profile *domain.SearchProfile) (*domain.SearchProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneProfile(profile)
	stored.ID = 1
	s.profile = stored
	return cloneProfile(stored), nil
}

func cloneProfile(p *domain.SearchProfile) *domain.SearchProfile {
	c := *p
	c.RequiredSkills = slices.Clone(p.RequiredSkills)
	c.PreferredSkills = slices.Clone(p.PreferredSkills)
	c.TitleKeywords = slices.Clone(p.TitleKeywords)
	c.NegativeTitleKeywords = slices.Clone(p.NegativeTitleKeywords)
	return &c
}

// TransactionManager runs fn directly. The memory stores apply each call atomically.
type TransactionManager struct{}

func NewTransactionManager() *TransactionManager {
	return &TransactionManager{}
}

func (TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
