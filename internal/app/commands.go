package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"place_extractor/internal/domain"
)

// Runner runs the extraction pipeline on a fresh session; *extract.Extractor satisfies it.
type Runner interface {
	Run(ctx context.Context, opener domain.SessionOpener, url string) domain.Result
}

type ExtractionService struct {
	opener   domain.SessionOpener
	runner   Runner
	repo     domain.ExtractionRepository
	cache    domain.Cache
	cacheTTL time.Duration

	now     func() time.Time
	newID   func() string
	observe func(failed bool, d time.Duration)
}

// NewExtractionService wires the pipeline to optional storage; repo and cache may be nil.
func NewExtractionService(o domain.SessionOpener, r Runner, repo domain.ExtractionRepository, cache domain.Cache, ttl time.Duration) *ExtractionService {
	return &ExtractionService{
		opener: o, runner: r, repo: repo, cache: cache, cacheTTL: ttl,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func (s *ExtractionService) WithClock(now func() time.Time) *ExtractionService {
	s.now = now
	return s
}

func (s *ExtractionService) WithObserver(f func(failed bool, d time.Duration)) *ExtractionService {
	s.observe = f
	return s
}

// Extract validates rawURL, serves a cached envelope unless refresh is set,
// and otherwise runs the pipeline. Pipeline failures come back inside the
// envelope; the returned error covers validation and storage only.
func (s *ExtractionService) Extract(ctx context.Context, rawURL string, refresh bool) (domain.Envelope, error) {
	u, err := ValidatePlaceURL(rawURL)
	if err != nil {
		return domain.Envelope{}, err
	}

	key := urlKey(u)
	if !refresh && s.cache != nil {
		var cached domain.Envelope
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			log.Debug().Str("url", u).Msg("extraction served from cache")
			return cached, nil
		}
	}

	start := time.Now()
	res := s.runner.Run(ctx, s.opener, u)
	if s.observe != nil {
		s.observe(res.Failed(), time.Since(start))
	}

	env := domain.Envelope{
		ID:             s.newID(),
		ExtractionDate: s.now(),
		SourceURL:      u,
		Results:        res,
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, env); err != nil {
			// do not swallow: the caller still gets the envelope to show
			return env, fmt.Errorf("save extraction %s: %w", env.ID, err)
		}
	}
	// error records are never cached so a retry gets a fresh session
	if s.cache != nil && !res.Failed() {
		_ = s.cache.Set(ctx, key, env, int(s.cacheTTL.Seconds()))
	}
	return env, nil
}

var placeHosts = []string{"google.com/maps", "maps.google.com", "goo.gl/maps", "maps.app.goo.gl"}

// ValidatePlaceURL trims rawURL and accepts only http(s) map place links.
func ValidatePlaceURL(rawURL string) (string, error) {
	raw := strings.TrimSpace(rawURL)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%q: %w", rawURL, domain.ErrInvalidURL)
	}
	hostPath := strings.ToLower(strings.TrimPrefix(u.Host, "www.") + u.Path)
	for _, h := range placeHosts {
		if strings.HasPrefix(hostPath, h) || strings.Contains(hostPath, "."+h) {
			return raw, nil
		}
	}
	return "", fmt.Errorf("%q: %w", rawURL, domain.ErrInvalidURL)
}

func urlKey(u string) string { return "extraction:url:" + u }
func idKey(id string) string { return "extraction:id:" + id }
