package extract_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"place_extractor/internal/adapters/htmlpage"
	"place_extractor/internal/extract"
)

type reviewFixture struct {
	stars string // aria label of the star icon; empty omits the icon
	text  string
	date  string
}

func reviewPanel(t *testing.T, class string, rs []reviewFixture) *htmlpage.Page {
	t.Helper()
	var b strings.Builder
	b.WriteString(`<html><body><div class="m6QErb">`)
	for i, r := range rs {
		fmt.Fprintf(&b, `<div class="%s" data-review-id="r%d">`, class, i)
		if r.stars != "" {
			fmt.Fprintf(&b, `<span role="img" aria-label="%s"></span>`, r.stars)
		}
		if r.date != "" {
			fmt.Fprintf(&b, `<span class="rsqaWe">%s</span>`, r.date)
		}
		fmt.Fprintf(&b, `<span class="wiI7pd">%s</span></div>`, r.text)
	}
	b.WriteString(`</div></body></html>`)
	p, err := htmlpage.FromString(b.String())
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return p
}

func collect(p *htmlpage.Page) []reviewSampleView {
	c := extract.NewCollector(p, extract.DefaultSelectors(), extract.Timings{ScrollAttempts: 3}, 10, 30, zerolog.Nop(), nil)
	var out []reviewSampleView
	for _, s := range c.Collect(context.Background()) {
		out = append(out, reviewSampleView{s.Text, s.Rating, s.Date})
	}
	return out
}

type reviewSampleView struct {
	text   string
	rating int
	date   string
}

func TestCollect_FiltersAndDefaults(t *testing.T) {
	p := reviewPanel(t, "jftiEf", []reviewFixture{
		{stars: "3 stars", text: "Average experience, nothing special here.", date: "a week ago"},
		{stars: "", text: "No icon on this one but it was awful.", date: ""},
		{stars: "2 stars", text: "Too short"},
		{stars: "2 stars", text: "Overpriced and the staff ignored us.", date: "3 months ago"},
	})
	got := collect(p)
	want := []reviewSampleView{
		{"No icon on this one but it was awful.", 1, "Recent"},
		{"Overpriced and the staff ignored us.", 2, "3 months ago"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d samples: %+v", len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %+v want %+v", i, got[i], want[i])
		}
	}
	if p.Scrolls() != 3 {
		t.Fatalf("expected 3 scrolls, got %d", p.Scrolls())
	}
}

func TestCollect_DeduplicatesOnPrefixAndRating(t *testing.T) {
	long := strings.Repeat("terrible service ", 6) // 102 chars
	p := reviewPanel(t, "jftiEf", []reviewFixture{
		{stars: "1 star", text: long + "first ending"},
		{stars: "1 star", text: long + "second ending"},
		{stars: "2 stars", text: long + "third ending"},
	})
	got := collect(p)
	if len(got) != 2 {
		t.Fatalf("expected 2 samples after dedup, got %d: %+v", len(got), got)
	}
	if !strings.HasSuffix(got[0].text, "first ending") || got[1].rating != 2 {
		t.Fatalf("unexpected samples: %+v", got)
	}
}

func TestCollect_CapsInDomOrder(t *testing.T) {
	var rs []reviewFixture
	for i := 0; i < 30; i++ {
		rs = append(rs, reviewFixture{stars: "1 star", text: fmt.Sprintf("Negative review number %02d here", i)})
	}
	got := collect(reviewPanel(t, "jftiEf", rs))
	if len(got) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(got))
	}
	for i, s := range got {
		if want := fmt.Sprintf("Negative review number %02d here", i); s.text != want {
			t.Fatalf("sample %d out of order: %q", i, s.text)
		}
	}
}

func TestCollect_PoolBoundsCandidates(t *testing.T) {
	var rs []reviewFixture
	for i := 0; i < 35; i++ {
		stars := "5 stars"
		if i >= 30 {
			stars = "1 star"
		}
		rs = append(rs, reviewFixture{stars: stars, text: fmt.Sprintf("Review body long enough %02d", i)})
	}
	if got := collect(reviewPanel(t, "jftiEf", rs)); len(got) != 0 {
		t.Fatalf("nodes past the candidate pool must be ignored, got %+v", got)
	}
}

func TestCollect_UsesSelectorWithMostMatches(t *testing.T) {
	p := reviewPanel(t, "WMbnJf", []reviewFixture{
		{stars: "1 star", text: "Matched through the second selector."},
	})
	got := collect(p)
	// data-review-id matches as many nodes as WMbnJf; the earlier selector wins the tie.
	if len(got) != 1 || got[0].rating != 1 {
		t.Fatalf("unexpected samples: %+v", got)
	}
}

func TestCollect_ExpandsTruncatedText(t *testing.T) {
	p, err := htmlpage.FromString(`<html><body><div class="jftiEf">
		<span role="img" aria-label="1 star"></span>
		<span class="wiI7pd">Truncated but long enough text</span>
		<button class="w8nwRe" style="display:none">Hidden more</button>
		<button class="w8nwRe">More</button>
	</div></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	if got := collect(p); len(got) != 1 {
		t.Fatalf("expected one sample, got %+v", got)
	}
	clicks := p.Clicks()
	if len(clicks) != 1 || clicks[0] != "button.w8nwRe" {
		t.Fatalf("expected one click on the visible expand button, got %v", clicks)
	}
}
