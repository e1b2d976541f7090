package extract_test

import (
	"context"
	"errors"
	"time"

	"place_extractor/internal/domain"
)

// ---- fakes ----

// countingPage answers lookups from a fixed table and records every locator asked for.
type countingPage struct {
	nodes  map[string]domain.Node
	faults map[string]error
	calls  []string
}

func (p *countingPage) Navigate(context.Context, string) error { return nil }
func (p *countingPage) Title(context.Context) (string, error)  { return "", nil }
func (p *countingPage) Source(context.Context) (string, error) { return "", nil }
func (p *countingPage) Close() error                           { return nil }
func (p *countingPage) FindAll(context.Context, domain.Locator) ([]domain.Node, error) {
	return nil, nil
}

func (p *countingPage) WaitPresent(_ context.Context, loc domain.Locator, _ time.Duration) (domain.Node, error) {
	p.calls = append(p.calls, loc.Value)
	if err, ok := p.faults[loc.Value]; ok {
		return nil, err
	}
	if n, ok := p.nodes[loc.Value]; ok {
		return n, nil
	}
	return nil, domain.ErrNoNode
}

func (p *countingPage) WaitClickable(ctx context.Context, loc domain.Locator, d time.Duration) (domain.Node, error) {
	return p.WaitPresent(ctx, loc, d)
}

type textNode struct {
	text  string
	attrs map[string]string
}

func (n textNode) Text(context.Context) (string, error) { return n.text, nil }
func (n textNode) Attr(_ context.Context, k string) (string, error) {
	return n.attrs[k], nil
}
func (n textNode) FindAll(context.Context, string) ([]domain.Node, error) { return nil, nil }
func (n textNode) Displayed(context.Context) (bool, error)                { return true, nil }
func (n textNode) Click(context.Context) error                            { return nil }
func (n textNode) ScrollToBottom(context.Context) error                   { return nil }

type failingOpener struct{ err error }

func (o failingOpener) Open(context.Context) (domain.Page, error) { return nil, o.err }

var errBoom = errors.New("boom")

// panickingPage blows up on navigation and remembers whether it was closed.
type panickingPage struct {
	countingPage
	closed bool
}

func (p *panickingPage) Navigate(context.Context, string) error { panic("selector engine exploded") }
func (p *panickingPage) Close() error                           { p.closed = true; return nil }

type pageOpener struct{ page domain.Page }

func (o pageOpener) Open(context.Context) (domain.Page, error) { return o.page, nil }
