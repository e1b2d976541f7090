package app_test

import (
	"context"
	"encoding/json"
	"errors"

	"place_extractor/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	saved   []domain.Envelope
	byID    map[string]domain.Envelope
	latest  map[string]domain.Envelope
	saveErr error
	reads   int
}

func (f *fakeRepo) Save(ctx context.Context, e domain.Envelope) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, e)
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, id string) (domain.Envelope, error) {
	f.reads++
	e, ok := f.byID[id]
	if !ok {
		return domain.Envelope{}, domain.ErrNotFound
	}
	return e, nil
}

func (f *fakeRepo) LatestByURL(ctx context.Context, url string) (domain.Envelope, error) {
	f.reads++
	e, ok := f.latest[url]
	if !ok {
		return domain.Envelope{}, domain.ErrNotFound
	}
	return e, nil
}

// fakeCache stores JSON like the redis adapter so values never alias.
type fakeCache struct {
	store map[string][]byte
	sets  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	c.sets++
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

type fakeRunner struct {
	res   domain.Result
	calls int
	urls  []string
}

func (r *fakeRunner) Run(ctx context.Context, opener domain.SessionOpener, url string) domain.Result {
	r.calls++
	r.urls = append(r.urls, url)
	return r.res
}

var errDB = errors.New("db down")

func ptr[T any](v T) *T { return &v }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
