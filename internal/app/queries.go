package app

import (
	"context"
	"time"

	"place_extractor/internal/domain"
)

type QueryService struct {
	repo     domain.ExtractionRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.ExtractionRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) Get(ctx context.Context, id string) (domain.Envelope, error) {
	return s.cached(ctx, idKey(id), func() (domain.Envelope, error) { return s.repo.Get(ctx, id) })
}

// LatestByURL shares its cache entry with ExtractionService so a fresh
// extraction is visible here right away.
func (s *QueryService) LatestByURL(ctx context.Context, rawURL string) (domain.Envelope, error) {
	u, err := ValidatePlaceURL(rawURL)
	if err != nil {
		return domain.Envelope{}, err
	}
	return s.cached(ctx, urlKey(u), func() (domain.Envelope, error) { return s.repo.LatestByURL(ctx, u) })
}

func (s *QueryService) cached(ctx context.Context, key string, load func() (domain.Envelope, error)) (domain.Envelope, error) {
	var env domain.Envelope
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &env); ok {
			return env, nil
		}
	}
	env, err := load()
	if err != nil {
		return domain.Envelope{}, err
	}
	if s.cache != nil && !env.Results.Failed() {
		_ = s.cache.Set(ctx, key, env, int(s.cacheTTL.Seconds()))
	}
	return env, nil
}
