package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"place_extractor/internal/app"
	"place_extractor/internal/domain"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestExtract_RunsSavesAndCaches(t *testing.T) {
	runner := &fakeRunner{res: domain.Succeeded(domain.PlaceRecord{Name: ptr("Cafe Test"), TotalReviewCount: 89})}
	repo := &fakeRepo{}
	cache := &fakeCache{}
	var observed []bool
	svc := app.NewExtractionService(nil, runner, repo, cache, time.Minute).
		WithClock(func() time.Time { return fixedNow }).
		WithObserver(func(failed bool, _ time.Duration) { observed = append(observed, failed) })

	env, err := svc.Extract(context.Background(), cafeURL, false)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if env.ID == "" || env.SourceURL != cafeURL || !env.ExtractionDate.Equal(fixedNow) {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if len(repo.saved) != 1 || repo.saved[0].ID != env.ID {
		t.Fatalf("expected envelope saved, got %+v", repo.saved)
	}

	// second call is served from cache
	again, err := svc.Extract(context.Background(), cafeURL, false)
	if err != nil || again.ID != env.ID || runner.calls != 1 {
		t.Fatalf("expected cached envelope: %+v calls=%d err=%v", again, runner.calls, err)
	}

	// refresh bypasses the cache
	fresh, err := svc.Extract(context.Background(), cafeURL, true)
	if err != nil || fresh.ID == env.ID || runner.calls != 2 {
		t.Fatalf("expected fresh run: %+v calls=%d err=%v", fresh, runner.calls, err)
	}
	if len(observed) != 2 || observed[0] {
		t.Fatalf("observer calls: %v", observed)
	}
}

func TestExtract_ErrorRecordSavedButNotCached(t *testing.T) {
	runner := &fakeRunner{res: domain.Failed("Extraction failed: navigate: timeout")}
	repo := &fakeRepo{}
	cache := &fakeCache{}
	svc := app.NewExtractionService(nil, runner, repo, cache, time.Minute)

	env, err := svc.Extract(context.Background(), cafeURL, false)
	if err != nil || !env.Results.Failed() {
		t.Fatalf("unexpected: %+v %v", env, err)
	}
	if cache.sets != 0 || len(repo.saved) != 1 {
		t.Fatalf("sets=%d saved=%d", cache.sets, len(repo.saved))
	}
	_, _ = svc.Extract(context.Background(), cafeURL, false)
	if runner.calls != 2 {
		t.Fatalf("failed extraction must be retried, calls=%d", runner.calls)
	}
}

func TestExtract_InvalidURLNeverRuns(t *testing.T) {
	runner := &fakeRunner{}
	svc := app.NewExtractionService(nil, runner, nil, nil, time.Minute)
	for _, u := range []string{"", "not a url", "https://example.com/maps", "ftp://maps.google.com/x"} {
		if _, err := svc.Extract(context.Background(), u, false); !errors.Is(err, domain.ErrInvalidURL) {
			t.Fatalf("%q: expected ErrInvalidURL, got %v", u, err)
		}
	}
	if runner.calls != 0 {
		t.Fatalf("runner should not be called")
	}
}

func TestExtract_SaveErrorSurfaces(t *testing.T) {
	runner := &fakeRunner{res: domain.Succeeded(domain.PlaceRecord{})}
	cache := &fakeCache{}
	svc := app.NewExtractionService(nil, runner, &fakeRepo{saveErr: errDB}, cache, time.Minute)

	env, err := svc.Extract(context.Background(), cafeURL, false)
	if !errors.Is(err, errDB) || env.ID == "" {
		t.Fatalf("expected save error with envelope, got %+v %v", env, err)
	}
	if cache.sets != 0 {
		t.Fatalf("unsaved envelope must not be cached")
	}
}

func TestValidatePlaceURL(t *testing.T) {
	ok := []string{
		"https://www.google.com/maps/place/Cafe",
		"https://maps.google.com/?cid=123",
		"https://goo.gl/maps/abc",
		"https://maps.app.goo.gl/xyz",
		"https://www.google.com/maps/@52.52,13.40,15z",
	}
	for _, u := range ok {
		if _, err := app.ValidatePlaceURL(u); err != nil {
			t.Errorf("%s rejected: %v", u, err)
		}
	}
	for _, u := range []string{"https://www.google.com/search?q=maps", "https://evilgoogle.com/maps"} {
		if _, err := app.ValidatePlaceURL(u); err == nil {
			t.Errorf("%s accepted", u)
		}
	}
}
