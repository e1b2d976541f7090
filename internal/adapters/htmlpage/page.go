// Package htmlpage serves a saved place page through the same session ports a
// live browser offers, so the pipeline can run offline.
package htmlpage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"place_extractor/internal/domain"
)

// Page is a static, parsed document. Clicks and scrolls are recorded but do
// not change the markup. XPath locators are not supported.
type Page struct {
	doc *goquery.Document
	raw string

	mu      sync.Mutex
	url     string
	clicks  []string
	scrolls int
	closed  bool
	lookups []domain.Locator
}

func Parse(r io.Reader) (*Page, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{doc: doc, raw: string(b)}, nil
}

func FromString(s string) (*Page, error) { return Parse(strings.NewReader(s)) }

func Load(path string) (*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func (p *Page) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("navigate: session closed")
	}
	p.url = url
	return nil
}

func (p *Page) Title(context.Context) (string, error) {
	return strings.TrimSpace(p.doc.Find("title").First().Text()), nil
}

func (p *Page) Source(context.Context) (string, error) { return p.raw, nil }

func (p *Page) WaitPresent(ctx context.Context, loc domain.Locator, _ time.Duration) (domain.Node, error) {
	nodes, err := p.FindAll(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", loc, domain.ErrNoNode)
	}
	return nodes[0], nil
}

func (p *Page) WaitClickable(ctx context.Context, loc domain.Locator, timeout time.Duration) (domain.Node, error) {
	nodes, err := p.FindAll(ctx, loc)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if ok, _ := n.Displayed(ctx); ok && !n.(*Node).disabled() {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%s clickable: %w", loc, domain.ErrNoNode)
}

func (p *Page) FindAll(ctx context.Context, loc domain.Locator) ([]domain.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.lookups = append(p.lookups, loc)
	p.mu.Unlock()

	var sel *goquery.Selection
	switch loc.By {
	case domain.ByCSS, "":
		sel = p.doc.Find(loc.Value)
	case domain.ByText:
		sel = p.doc.Find(loc.Value).FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(s.Text(), loc.Contains)
		})
	default:
		return nil, fmt.Errorf("%s: %w", loc, domain.ErrUnsupportedLocator)
	}
	return p.wrap(sel), nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// Clicks lists the outer tag summary of every clicked node, in order.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

func (p *Page) Scrolls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrolls
}

func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Lookups lists every page-level locator queried, in order.
func (p *Page) Lookups() []domain.Locator {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Locator(nil), p.lookups...)
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) wrap(sel *goquery.Selection) []domain.Node {
	out := make([]domain.Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Node{page: p, sel: s})
	})
	return out
}
