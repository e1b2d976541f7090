package htmlpage

import (
	"context"

	"place_extractor/internal/domain"
)

// FileOpener opens a fresh static session over a saved snapshot each time.
type FileOpener struct {
	Path string
}

func (o FileOpener) Open(ctx context.Context) (domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(o.Path)
}

// StringOpener serves the same markup to every session.
type StringOpener struct {
	HTML string
	// Last is the most recently opened page.
	Last *Page
}

func (o *StringOpener) Open(ctx context.Context) (domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := FromString(o.HTML)
	if err != nil {
		return nil, err
	}
	o.Last = p
	return p, nil
}
