package extract

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"place_extractor/internal/domain"
)

// ParseRule turns a matched node into a value, or reports that it does not qualify.
type ParseRule[T any] func(ctx context.Context, n domain.Node) Outcome[T]

// Candidate pairs a locator with the rule applied to what it matches.
type Candidate[T any] struct {
	Locator domain.Locator
	Parse   ParseRule[T]
}

// Candidates builds one candidate per locator, all sharing the same rule.
func Candidates[T any](locs domain.SelectorCandidateList, rule ParseRule[T]) []Candidate[T] {
	out := make([]Candidate[T], 0, len(locs))
	for _, l := range locs {
		out = append(out, Candidate[T]{Locator: l, Parse: rule})
	}
	return out
}

type Resolver[T any] interface {
	TryResolve(ctx context.Context, list []Candidate[T]) Outcome[T]
}

// PageResolver walks candidates in order against a page and stops at the first
// one whose parse rule yields a value. Later candidates are never touched.
type PageResolver[T any] struct {
	Page domain.Page
	// Wait bounds each presence check.
	Wait      time.Duration
	Clickable bool
	Log       zerolog.Logger
}

func (r PageResolver[T]) TryResolve(ctx context.Context, list []Candidate[T]) Outcome[T] {
	var lastFault error
	for _, c := range list {
		if err := ctx.Err(); err != nil {
			return Fault[T](err)
		}
		node, err := r.lookup(ctx, c.Locator)
		if err != nil {
			if !absent(err) {
				lastFault = err
				r.Log.Debug().Err(err).Str("locator", c.Locator.String()).Msg("lookup fault")
			}
			continue
		}
		out := c.Parse(ctx, node)
		switch out.Status {
		case StatusFound:
			return out
		case StatusFault:
			lastFault = out.Reason
		}
	}
	if lastFault != nil {
		return Fault[T](lastFault)
	}
	return NotFound[T]()
}

func (r PageResolver[T]) lookup(ctx context.Context, loc domain.Locator) (domain.Node, error) {
	if r.Clickable {
		return r.Page.WaitClickable(ctx, loc, r.Wait)
	}
	return r.Page.WaitPresent(ctx, loc, r.Wait)
}

// absent reports whether err only means the locator matched nothing usable.
func absent(err error) bool {
	return errors.Is(err, domain.ErrNoNode) ||
		errors.Is(err, domain.ErrUnsupportedLocator) ||
		errors.Is(err, context.DeadlineExceeded)
}

// NodeRule accepts any matched node as is.
func NodeRule(_ context.Context, n domain.Node) Outcome[domain.Node] { return Found(n) }
