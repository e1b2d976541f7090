package extract

import (
	"context"
	"errors"
	"strconv"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"place_extractor/internal/domain"
)

const (
	maxNegativeRating = 2
	defaultRating     = 1
	minReviewText     = 15
	dedupPrefix       = 80
	undatedReview     = "Recent"
)

var (
	errAboveThreshold = errors.New("rating above negative threshold")
	errShortText      = errors.New("review text missing or too short")
)

// Collector gathers low-rated reviews from the open review panel.
type Collector struct {
	page  domain.Page
	sel   Selectors
	t     Timings
	limit int
	pool  int
	log   zerolog.Logger
	rec   Recorder
}

func NewCollector(p domain.Page, sel Selectors, t Timings, limit, pool int, log zerolog.Logger, rec Recorder) *Collector {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Collector{page: p, sel: sel, t: t, limit: limit, pool: pool, log: log, rec: rec}
}

// Collect returns at most limit negative reviews in DOM order, looking at no
// more than pool candidate nodes.
func (c *Collector) Collect(ctx context.Context) []domain.ReviewSample {
	c.scroll(ctx)

	nodes := c.reviewNodes(ctx)
	if len(nodes) > c.pool {
		nodes = nodes[:c.pool]
	}

	out := make([]domain.ReviewSample, 0, c.limit)
	seen := make(map[string]struct{}, len(nodes))
	for i, n := range nodes {
		if len(out) >= c.limit || ctx.Err() != nil {
			break
		}
		s, ok := c.sample(ctx, n).Get()
		if !ok {
			continue
		}
		key := dedupKey(s)
		if _, dup := seen[key]; dup {
			c.log.Debug().Int("node", i).Msg("duplicate review skipped")
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	c.rec.Reviews(len(nodes), len(out))
	c.log.Debug().Int("candidates", len(nodes)).Int("kept", len(out)).Msg("negative reviews collected")
	return out
}

// scroll pushes the first matching container to the bottom a fixed number of
// times so more reviews load. There is no end-of-list detection.
func (c *Collector) scroll(ctx context.Context) {
	var box domain.Node
	for _, loc := range c.sel.Scrollable {
		nodes, err := c.page.FindAll(ctx, loc)
		if err == nil && len(nodes) > 0 {
			box = nodes[0]
			break
		}
	}
	if box == nil {
		c.rec.Step("scroll", false)
		return
	}
	for i := 0; i < c.t.ScrollAttempts; i++ {
		if err := box.ScrollToBottom(ctx); err != nil {
			c.log.Debug().Err(err).Int("attempt", i).Msg("scroll failed")
			break
		}
		if sleepCtx(ctx, c.t.ScrollDelay) != nil {
			break
		}
	}
	c.rec.Step("scroll", true)
}

// reviewNodes returns the matches of whichever review selector matches most.
// Ties keep the earlier selector.
func (c *Collector) reviewNodes(ctx context.Context) []domain.Node {
	var best []domain.Node
	for _, loc := range c.sel.ReviewNodes {
		nodes, err := c.page.FindAll(ctx, loc)
		if err != nil {
			continue
		}
		if len(nodes) > len(best) {
			best = nodes
		}
	}
	return best
}

func (c *Collector) sample(ctx context.Context, n domain.Node) Outcome[domain.ReviewSample] {
	rating := c.rating(ctx, n)
	if rating > maxNegativeRating {
		return Outcome[domain.ReviewSample]{Status: StatusNotFound, Reason: errAboveThreshold}
	}

	c.expand(ctx, n)

	text := c.firstText(ctx, n, c.sel.ReviewText)
	if utf8.RuneCountInString(text) < minReviewText {
		return Outcome[domain.ReviewSample]{Status: StatusNotFound, Reason: errShortText}
	}
	date := c.firstText(ctx, n, c.sel.ReviewDate)
	if date == "" {
		date = undatedReview
	}
	return Found(domain.ReviewSample{Text: text, Rating: rating, Date: date})
}

// rating reads the star icon label, falling back to the lowest rating when no
// icon can be read.
func (c *Collector) rating(ctx context.Context, n domain.Node) int {
	for _, css := range c.sel.RatingIcon {
		icons, err := n.FindAll(ctx, css)
		if err != nil {
			continue
		}
		for _, ic := range icons {
			label, err := ic.Attr(ctx, "aria-label")
			if err != nil {
				continue
			}
			if r, ok := ParseStars(label); ok {
				return r
			}
		}
	}
	return defaultRating
}

func (c *Collector) expand(ctx context.Context, n domain.Node) {
	for _, css := range c.sel.ExpandButton {
		buttons, err := n.FindAll(ctx, css)
		if err != nil {
			continue
		}
		for _, b := range buttons {
			if shown, err := b.Displayed(ctx); err != nil || !shown {
				continue
			}
			if err := b.Click(ctx); err != nil {
				c.log.Debug().Err(err).Msg("expand click failed")
				continue
			}
			_ = sleepCtx(ctx, c.t.ExpandSettle)
			return
		}
	}
}

func (c *Collector) firstText(ctx context.Context, n domain.Node, selectors []string) string {
	for _, css := range selectors {
		found, err := n.FindAll(ctx, css)
		if err != nil {
			continue
		}
		for _, f := range found {
			if t, ok := TextRule(ctx, f).Get(); ok {
				return t
			}
		}
	}
	return ""
}

func dedupKey(s domain.ReviewSample) string {
	prefix := s.Text
	if utf8.RuneCountInString(prefix) > dedupPrefix {
		prefix = string([]rune(prefix)[:dedupPrefix])
	}
	return prefix + "\x00" + strconv.Itoa(s.Rating)
}
