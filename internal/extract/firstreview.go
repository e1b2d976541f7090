package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"place_extractor/internal/domain"
)

// UnknownFirstReview is reported when no tier produces an estimate.
const UnknownFirstReview = "Several years ago"

var (
	agoPatterns = []struct {
		unit string
		re   *regexp.Regexp
	}{
		{"year", regexp.MustCompile(`(?i)(\d+)\s+years?\s+ago`)},
		{"month", regexp.MustCompile(`(?i)(\d+)\s+months?\s+ago`)},
		{"week", regexp.MustCompile(`(?i)(\d+)\s+weeks?\s+ago`)},
	}
	yearsLabelRe = regexp.MustCompile(`(?i)(\d+)\s+years?`)

	publishedLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	}
)

// DateEstimator guesses how long ago the oldest review was written without
// paging through the whole review list.
type DateEstimator struct {
	page domain.Page
	sel  Selectors
	now  func() time.Time
	log  zerolog.Logger
	rec  Recorder
}

func NewDateEstimator(p domain.Page, sel Selectors, now func() time.Time, log zerolog.Logger, rec Recorder) *DateEstimator {
	if rec == nil {
		rec = nopRecorder{}
	}
	if now == nil {
		now = time.Now
	}
	return &DateEstimator{page: p, sel: sel, now: now, log: log, rec: rec}
}

// Estimate tries structured data, then a scan of the page source, then the
// visible date labels. The first tier that answers wins.
func (e *DateEstimator) Estimate(ctx context.Context) string {
	src, err := e.page.Source(ctx)
	if err != nil {
		e.log.Debug().Err(err).Msg("page source unavailable")
	}
	tiers := []struct {
		name string
		run  func() Outcome[string]
	}{
		{"structured_data", func() Outcome[string] { return FromStructuredData(src, e.now()) }},
		{"pattern_scan", func() Outcome[string] { return FromPatternScan(src) }},
		{"visible_labels", func() Outcome[string] { return e.fromVisibleLabels(ctx) }},
	}
	for _, t := range tiers {
		if v, ok := t.run().Get(); ok {
			e.rec.DateTier(t.name)
			return v
		}
	}
	e.rec.DateTier("fallback")
	return UnknownFirstReview
}

// FromStructuredData reads review publication dates out of JSON-LD blocks and
// renders the age of the earliest one.
func FromStructuredData(src string, now time.Time) Outcome[string] {
	if src == "" {
		return NotFound[string]()
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return Fault[string](err)
	}
	var earliest time.Time
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if !strings.EqualFold(strings.TrimSpace(s.AttrOr("type", "")), "application/ld+json") {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		for _, d := range publishedDates(data) {
			if earliest.IsZero() || d.Before(earliest) {
				earliest = d
			}
		}
	})
	if earliest.IsZero() {
		return NotFound[string]()
	}
	return Found(RenderAge(now.Sub(earliest)))
}

// publishedDates collects datePublished values of the "review" entries found
// in a JSON-LD object, a list of objects or an @graph.
func publishedDates(v any) []time.Time {
	var out []time.Time
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			out = append(out, publishedDates(item)...)
		}
	case map[string]any:
		if g, ok := t["@graph"]; ok {
			out = append(out, publishedDates(g)...)
		}
		var reviews []any
		switch r := t["review"].(type) {
		case []any:
			reviews = r
		case map[string]any:
			reviews = []any{r}
		}
		for _, r := range reviews {
			m, ok := r.(map[string]any)
			if !ok {
				continue
			}
			s, _ := m["datePublished"].(string)
			if d, ok := parsePublished(s); ok {
				out = append(out, d)
			}
		}
	}
	return out
}

func parsePublished(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// RenderAge formats an elapsed duration as whole years, else whole months,
// else "Recently". A year is 365 days and a month 30.
func RenderAge(elapsed time.Duration) string {
	days := int(elapsed.Hours() / 24)
	if days < 0 {
		days = 0
	}
	if years := days / 365; years >= 1 {
		return ago(years, "year")
	}
	if months := (days % 365) / 30; months >= 1 {
		return ago(months, "month")
	}
	return "Recently"
}

// FromPatternScan takes the largest "N years ago" anywhere in the markup,
// then months, then weeks.
func FromPatternScan(src string) Outcome[string] {
	for _, p := range agoPatterns {
		best := -1
		for _, m := range p.re.FindAllStringSubmatch(src, -1) {
			if n, err := strconv.Atoi(m[1]); err == nil && n > best {
				best = n
			}
		}
		if best >= 0 {
			return Found(ago(best, p.unit))
		}
	}
	return NotFound[string]()
}

// fromVisibleLabels returns, verbatim, the rendered date label with the most years.
func (e *DateEstimator) fromVisibleLabels(ctx context.Context) Outcome[string] {
	var nodes []domain.Node
	for _, loc := range e.sel.DateLabels {
		found, err := e.page.FindAll(ctx, loc)
		if err == nil && len(found) > 0 {
			nodes = found
			break
		}
	}
	best, bestText := 0, ""
	for _, n := range nodes {
		t, ok := TextRule(ctx, n).Get()
		if !ok {
			continue
		}
		m := yearsLabelRe.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		if y, err := strconv.Atoi(m[1]); err == nil && y > best {
			best, bestText = y, t
		}
	}
	if best == 0 {
		return NotFound[string]()
	}
	return Found(bestText)
}

func ago(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s ago", n, unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
