package concept

import (
	"context"
	"fmt"

	"github.com/carepath/carepath/internal/platform/terminology"
)

// Service maintains the local append-only cache of terminology
// concepts. Cached terms are immutable: term drift on the remote
// service is deliberately not propagated.
type Service struct {
	repo   Repository
	lookup terminology.Lookup
}

func NewService(repo Repository, lookup terminology.Lookup) *Service {
	return &Service{repo: repo, lookup: lookup}
}

// Ensure caches the concept with the supplied term unless it is already
// present.
func (s *Service) Ensure(ctx context.Context, conceptID, term string) error {
	if conceptID == "" {
		return fmt.Errorf("concept id is required")
	}
	return s.repo.InsertIfAbsent(ctx, conceptID, term)
}

// EnsureFromLookup caches the concept, resolving the preferred term via
// the terminology service when the cache has no entry yet.
func (s *Service) EnsureFromLookup(ctx context.Context, conceptID string) (*CacheEntry, error) {
	if entry, err := s.repo.Get(ctx, conceptID); err == nil {
		return entry, nil
	}
	if s.lookup == nil {
		return nil, fmt.Errorf("concept %s not cached and no terminology service configured", conceptID)
	}
	remote, err := s.lookup.Concept(ctx, conceptID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.InsertIfAbsent(ctx, conceptID, remote.PreferredTerm); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, conceptID)
}

func (s *Service) Get(ctx context.Context, conceptID string) (*CacheEntry, error) {
	return s.repo.Get(ctx, conceptID)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*CacheEntry, int, error) {
	return s.repo.List(ctx, limit, offset)
}
