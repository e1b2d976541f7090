package domain

import "context"

type ExtractionRepository interface {
	Save(ctx context.Context, e Envelope) error
	Get(ctx context.Context, id string) (Envelope, error)
	LatestByURL(ctx context.Context, url string) (Envelope, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// EnvelopeWriter persists an envelope outside the database, returning where it went.
type EnvelopeWriter interface {
	Write(e Envelope) (string, error)
}
