package extract

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"place_extractor/internal/domain"
)

const maxPlausibleReviews = 1_000_000

var (
	ratingRe     = regexp.MustCompile(`^\d+(\.\d+)?$`)
	reviewWordRe = regexp.MustCompile(`(?i)([\d,]+)\s*review`)
	parenCountRe = regexp.MustCompile(`\(([\d,.\s\x{a0}]+)\)`)
	starsRe      = regexp.MustCompile(`(?i)(\d+)\s*star`)
	digitsRe     = regexp.MustCompile(`[\d,]+`)
	labelPrefix  = regexp.MustCompile(`(?i)^\s*(address|phone|website)\s*:\s*`)
)

// ParseRating reads a short numeric rating such as "4.5" or "4,5".
func ParseRating(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if !ratingRe.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 5 {
		return 0, false
	}
	return v, true
}

// ParseReviewCount reads the number in front of "review(s)", e.g. "1,234 reviews".
func ParseReviewCount(s string) (int, bool) {
	m := reviewWordRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, ok := atoiGrouped(m[1])
	if !ok || n < 1 || n > maxPlausibleReviews {
		return 0, false
	}
	return n, true
}

// ParseParenCount reads a bracketed count such as "(1,234)".
func ParseParenCount(s string) (int, bool) {
	m := parenCountRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	return atoiGrouped(m[1])
}

// ParseBareCount reads the first digit group in s and keeps it only within a
// plausible range for a review total.
func ParseBareCount(s string) (int, bool) {
	n, ok := atoiGrouped(digitsRe.FindString(s))
	if !ok || n < 1 || n > maxPlausibleReviews {
		return 0, false
	}
	return n, true
}

// ParseStars reads a star rating out of an icon label like "2 stars".
func ParseStars(s string) (int, bool) {
	m := starsRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}

func atoiGrouped(s string) (int, bool) {
	s = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// CleanLabel drops accessibility decorations around a contact value.
func CleanLabel(s string) string {
	s = strings.ReplaceAll(s, "Copy phone number", "")
	s = labelPrefix.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// NormalizeWebsite unwraps google redirect links to their target.
func NormalizeWebsite(href string) string {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Hostname(), "google.com") && u.Path == "/url" {
		for _, k := range []string{"q", "url"} {
			if t := u.Query().Get(k); t != "" {
				return t
			}
		}
	}
	return href
}

// TextRule accepts a node whose visible text is non-empty.
func TextRule(ctx context.Context, n domain.Node) Outcome[string] {
	t, err := n.Text(ctx)
	if err != nil {
		return Fault[string](err)
	}
	if t = strings.TrimSpace(t); t == "" {
		return NotFound[string]()
	}
	return Found(t)
}

// RatingRule accepts a node whose text is a plain rating.
func RatingRule(ctx context.Context, n domain.Node) Outcome[float64] {
	t, err := n.Text(ctx)
	if err != nil {
		return Fault[float64](err)
	}
	if v, ok := ParseRating(t); ok {
		return Found(v)
	}
	return NotFound[float64]()
}

// AttrRule reads attr and passes it through clean; an empty result does not qualify.
func AttrRule(attr string, clean func(string) string) ParseRule[string] {
	return func(ctx context.Context, n domain.Node) Outcome[string] {
		v, err := n.Attr(ctx, attr)
		if err != nil {
			return Fault[string](err)
		}
		if clean != nil {
			v = clean(v)
		}
		if v = strings.TrimSpace(v); v == "" {
			return NotFound[string]()
		}
		return Found(v)
	}
}

// ReviewCountRule reads a count from the node's aria-label.
func ReviewCountRule(ctx context.Context, n domain.Node) Outcome[int] {
	v, err := n.Attr(ctx, "aria-label")
	if err != nil {
		return Fault[int](err)
	}
	if c, ok := ParseReviewCount(v); ok {
		return Found(c)
	}
	return NotFound[int]()
}
