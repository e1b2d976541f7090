package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"place_extractor/internal/domain"
)

const pollInterval = 250 * time.Millisecond

// Session is one tab. Calls are serialized by the caller; the session itself
// holds no per-call state besides the tab context.
type Session struct {
	tab   context.Context
	close func()
	once  sync.Once
	log   zerolog.Logger
}

// run executes actions on the tab, bounded by ctx's cancellation and deadline.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	c, cancel := context.WithCancel(s.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if d, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		c, cancelDeadline = context.WithDeadline(c, d)
		defer cancelDeadline()
	}
	if err := chromedp.Run(c, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *Session) Title(ctx context.Context) (string, error) {
	var t string
	err := s.run(ctx, chromedp.Title(&t))
	return t, err
}

func (s *Session) Source(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("page source: %w", err)
	}
	return html, nil
}

func (s *Session) WaitPresent(ctx context.Context, loc domain.Locator, timeout time.Duration) (domain.Node, error) {
	return s.poll(ctx, loc, timeout, nil)
}

func (s *Session) WaitClickable(ctx context.Context, loc domain.Locator, timeout time.Duration) (domain.Node, error) {
	return s.poll(ctx, loc, timeout, func(n *Node) bool {
		ok, err := n.callBool(ctx, clickableJS)
		return err == nil && ok
	})
}

func (s *Session) FindAll(ctx context.Context, loc domain.Locator) ([]domain.Node, error) {
	nodes, err := s.query(ctx, loc)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	return out, nil
}

func (s *Session) Close() error {
	s.once.Do(func() {
		s.close()
		s.log.Debug().Msg("browser session closed")
	})
	return nil
}

// poll re-queries loc until a node passes accept or timeout elapses.
func (s *Session) poll(ctx context.Context, loc domain.Locator, timeout time.Duration, accept func(*Node) bool) (domain.Node, error) {
	deadline := time.Now().Add(timeout)
	for {
		nodes, err := s.query(ctx, loc)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			if accept == nil || accept(n) {
				return n, nil
			}
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%s: %w", loc, domain.ErrNoNode)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// query looks loc up once without waiting.
func (s *Session) query(ctx context.Context, loc domain.Locator) ([]*Node, error) {
	var raw []*cdp.Node
	var by chromedp.QueryOption
	switch loc.By {
	case domain.ByCSS, domain.ByText, "":
		by = chromedp.ByQueryAll
	case domain.ByXPath:
		by = chromedp.BySearch
	default:
		return nil, fmt.Errorf("%s: %w", loc, domain.ErrUnsupportedLocator)
	}
	if err := s.run(ctx, chromedp.Nodes(loc.Value, &raw, by, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("query %s: %w", loc, err)
	}
	out := make([]*Node, 0, len(raw))
	for _, r := range raw {
		n := &Node{s: s, n: r}
		if loc.By == domain.ByText {
			t, err := n.Text(ctx)
			if err != nil || !strings.Contains(t, loc.Contains) {
				continue
			}
		}
		out = append(out, n)
	}
	return out, nil
}
