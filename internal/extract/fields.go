package extract

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"place_extractor/internal/domain"
)

// FieldSpec names a field and the candidates that can produce it.
type FieldSpec[T any] struct {
	Name       string
	Candidates []Candidate[T]
}

// ExtractField resolves one field and reports its outcome.
func ExtractField[T any](ctx context.Context, r Resolver[T], field FieldSpec[T], rec Recorder) Outcome[T] {
	out := r.TryResolve(ctx, field.Candidates)
	rec.Field(field.Name, out.Status.String())
	return out
}

// Fields holds the place attributes read from the overview panel.
type Fields struct {
	Name        *string
	Rating      *float64
	ReviewCount int
	Address     *string
	Phone       *string
	Website     *string
}

type FieldExtractor struct {
	page domain.Page
	sel  Selectors
	wait time.Duration
	log  zerolog.Logger
	rec  Recorder
}

func NewFieldExtractor(p domain.Page, sel Selectors, wait time.Duration, log zerolog.Logger, rec Recorder) *FieldExtractor {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &FieldExtractor{page: p, sel: sel, wait: wait, log: log, rec: rec}
}

func (f *FieldExtractor) textResolver() PageResolver[string] {
	return PageResolver[string]{Page: f.page, Wait: f.wait, Log: f.log}
}

func (f *FieldExtractor) Extract(ctx context.Context) Fields {
	var out Fields

	name := ExtractField(ctx, f.textResolver(), FieldSpec[string]{"name", Candidates(f.sel.Name, TextRule)}, f.rec)
	if !name.Ok() {
		name = f.nameFromTitle(ctx)
	}
	out.Name = name.Ptr()

	rating := ExtractField(ctx, PageResolver[float64]{Page: f.page, Wait: f.wait, Log: f.log},
		FieldSpec[float64]{"rating", Candidates(f.sel.Rating, RatingRule)}, f.rec)
	out.Rating = rating.Ptr()

	if n, ok := f.reviewCount(ctx).Get(); ok {
		out.ReviewCount = n
	}

	out.Address = ExtractField(ctx, f.textResolver(),
		FieldSpec[string]{"address", Candidates(f.sel.Address, AttrRule("aria-label", CleanLabel))}, f.rec).Ptr()
	out.Phone = ExtractField(ctx, f.textResolver(),
		FieldSpec[string]{"phone", Candidates(f.sel.Phone, AttrRule("aria-label", CleanLabel))}, f.rec).Ptr()
	out.Website = ExtractField(ctx, f.textResolver(),
		FieldSpec[string]{"website", Candidates(f.sel.Website, AttrRule("href", NormalizeWebsite))}, f.rec).Ptr()

	f.log.Debug().
		Bool("name", out.Name != nil).
		Bool("rating", out.Rating != nil).
		Int("review_count", out.ReviewCount).
		Bool("address", out.Address != nil).
		Bool("phone", out.Phone != nil).
		Bool("website", out.Website != nil).
		Msg("overview fields")
	return out
}

const titleSuffix = " - Google Maps"

func (f *FieldExtractor) nameFromTitle(ctx context.Context) Outcome[string] {
	t, err := f.page.Title(ctx)
	if err != nil {
		return Fault[string](err)
	}
	t = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), titleSuffix))
	if t == "" || t == "Google Maps" {
		return NotFound[string]()
	}
	f.rec.Field("name_title", StatusFound.String())
	return Found(t)
}

var (
	sourceCountRes = []*regexp.Regexp{
		regexp.MustCompile(`"userReviewCount"\s*:\s*"?(\d+)`),
		regexp.MustCompile(`"reviewCount"\s*:\s*"?(\d+)`),
		regexp.MustCompile(`(?i)([\d,]+)\s+reviews\b`),
	}
)

// reviewCount tries the aria labels first, then progressively looser readings
// of the rating block and finally the raw page source.
func (f *FieldExtractor) reviewCount(ctx context.Context) Outcome[int] {
	ints := PageResolver[int]{Page: f.page, Wait: f.wait, Log: f.log}
	if out := ExtractField(ctx, ints, FieldSpec[int]{"review_count", Candidates(f.sel.ReviewCount, ReviewCountRule)}, f.rec); out.Ok() {
		return out
	}

	blockText := func(parse func(string) (int, bool), css string) ParseRule[int] {
		return func(ctx context.Context, n domain.Node) Outcome[int] {
			nodes := []domain.Node{n}
			if css != "" {
				var err error
				if nodes, err = n.FindAll(ctx, css); err != nil {
					return Fault[int](err)
				}
			}
			for _, c := range nodes {
				t, err := c.Text(ctx)
				if err != nil {
					continue
				}
				if v, ok := parse(t); ok {
					return Found(v)
				}
			}
			return NotFound[int]()
		}
	}
	tiers := []FieldSpec[int]{
		{"review_count_block", Candidates(f.sel.RatingBlock, blockText(ParseParenCount, ""))},
		{"review_count_span", Candidates(f.sel.RatingBlock, blockText(ParseParenCount, "span"))},
		{"review_count_button", Candidates(f.sel.RatingBlock, blockText(ParseBareCount, "button"))},
	}
	for _, t := range tiers {
		if out := ExtractField(ctx, ints, t, f.rec); out.Ok() {
			return out
		}
	}

	src, err := f.page.Source(ctx)
	if err != nil {
		return Fault[int](err)
	}
	for _, re := range sourceCountRes {
		for _, m := range re.FindAllStringSubmatch(src, -1) {
			if n, ok := ParseBareCount(m[1]); ok {
				f.rec.Field("review_count_source", StatusFound.String())
				return Found(n)
			}
		}
	}
	f.rec.Field("review_count_source", StatusNotFound.String())
	return NotFound[int]()
}
