package extract

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"place_extractor/internal/domain"
)

// PanelState is where the review panel interaction ended up.
type PanelState int

const (
	Overview PanelState = iota
	ReviewsOpen
	SortedByLowest
)

func (s PanelState) String() string {
	switch s {
	case ReviewsOpen:
		return "reviews_open"
	case SortedByLowest:
		return "sorted_by_lowest"
	default:
		return "overview"
	}
}

// Navigator drives the place panel from the overview to a lowest-first review list.
// Every transition is optional; a failed step leaves the state where it was.
type Navigator struct {
	page domain.Page
	sel  Selectors
	t    Timings
	log  zerolog.Logger
	rec  Recorder
}

func NewNavigator(p domain.Page, sel Selectors, t Timings, log zerolog.Logger, rec Recorder) *Navigator {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Navigator{page: p, sel: sel, t: t, log: log, rec: rec}
}

// DismissConsent clicks the first consent button already on screen, if any.
func (n *Navigator) DismissConsent(ctx context.Context) bool {
	return n.click(ctx, "consent", n.sel.Consent, 0, n.t.ConsentSettle, nil)
}

// OpenReviews moves Overview to ReviewsOpen. The count parsed from the
// clicked tab's label is returned as a late fallback for the review total.
func (n *Navigator) OpenReviews(ctx context.Context) (PanelState, int) {
	var tabCount int
	ok := n.click(ctx, "open_reviews", n.sel.ReviewsTab, n.t.Lookup, n.t.PanelSettle, func(node domain.Node) {
		if label, err := node.Attr(ctx, "aria-label"); err == nil {
			tabCount, _ = ParseReviewCount(label)
		}
	})
	if !ok {
		n.log.Info().Msg("reviews panel unavailable")
		return Overview, 0
	}
	return ReviewsOpen, tabCount
}

// SortLowest moves ReviewsOpen to SortedByLowest. Only the first sort button
// that opens is used; if no lowest option follows, the list stays unsorted.
func (n *Navigator) SortLowest(ctx context.Context) PanelState {
	if !n.click(ctx, "open_sort", n.sel.SortButton, n.t.Lookup, n.t.SortSettle, nil) {
		return ReviewsOpen
	}
	if !n.click(ctx, "sort_lowest", n.sel.LowestOption, n.t.Lookup, n.t.SortSettle, nil) {
		n.log.Debug().Msg("lowest rating option not found; reviews stay unsorted")
		return ReviewsOpen
	}
	return SortedByLowest
}

// Navigate runs both transitions in order.
func (n *Navigator) Navigate(ctx context.Context) (PanelState, int) {
	state, count := n.OpenReviews(ctx)
	if state != ReviewsOpen {
		return state, count
	}
	return n.SortLowest(ctx), count
}

// click dispatches a script click on the first clickable candidate and waits
// for the page to settle. A candidate whose click fails hands over to the next.
func (n *Navigator) click(ctx context.Context, step string, locs domain.SelectorCandidateList, wait, settle time.Duration, clicked func(domain.Node)) bool {
	rule := func(ctx context.Context, node domain.Node) Outcome[domain.Node] {
		if err := node.Click(ctx); err != nil {
			return Fault[domain.Node](err)
		}
		return Found(node)
	}
	r := PageResolver[domain.Node]{Page: n.page, Wait: wait, Clickable: true, Log: n.log}
	out := r.TryResolve(ctx, Candidates(locs, rule))
	n.rec.Step(step, out.Ok())
	if !out.Ok() {
		if out.Status == StatusFault {
			n.log.Debug().Err(out.Reason).Str("step", step).Msg("click failed")
		}
		return false
	}
	if clicked != nil {
		clicked(out.Value)
	}
	_ = sleepCtx(ctx, settle)
	return true
}
