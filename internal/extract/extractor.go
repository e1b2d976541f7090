package extract

import (
	"context"
	"fmt"

	"place_extractor/internal/domain"
)

// Extractor runs the full place page pipeline on one session at a time.
type Extractor struct {
	opts Options
}

func New(opts Options) *Extractor {
	return &Extractor{opts: opts.withDefaults()}
}

// Run opens a session, extracts url and always closes the session. Failures
// that stop the whole pipeline come back as an error record.
func (e *Extractor) Run(ctx context.Context, opener domain.SessionOpener, url string) (res domain.Result) {
	log := e.opts.Logger.With().Str("url", url).Logger()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("extraction panicked")
			res = domain.Failed(fmt.Sprintf("Extraction failed: %v", r))
		}
	}()

	page, err := opener.Open(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("session bootstrap failed")
		return domain.Failed(fmt.Sprintf("Extraction failed: %v", err))
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Debug().Err(cerr).Msg("session teardown")
		}
	}()

	rec, err := e.ExtractPage(ctx, page, url)
	if err != nil {
		log.Warn().Err(err).Msg("extraction failed")
		return domain.Failed(fmt.Sprintf("Extraction failed: %v", err))
	}
	return domain.Succeeded(rec)
}

// ExtractPage drives an already open page. Only navigation and cancellation
// are fatal; every other step degrades to an absent value.
func (e *Extractor) ExtractPage(ctx context.Context, page domain.Page, url string) (domain.PlaceRecord, error) {
	o := e.opts
	log := o.Logger.With().Str("url", url).Logger()

	if err := page.Navigate(ctx, url); err != nil {
		return domain.PlaceRecord{}, fmt.Errorf("navigate: %w", err)
	}
	if err := sleepCtx(ctx, o.Timings.InitialSettle); err != nil {
		return domain.PlaceRecord{}, err
	}

	nav := NewNavigator(page, o.Selectors, o.Timings, log, o.Recorder)
	nav.DismissConsent(ctx)

	fields := NewFieldExtractor(page, o.Selectors, o.Timings.Lookup, log, o.Recorder).Extract(ctx)

	state, tabCount := nav.Navigate(ctx)
	log.Debug().Stringer("panel", state).Msg("review panel")

	negatives := []domain.ReviewSample{}
	if state != Overview {
		negatives = NewCollector(page, o.Selectors, o.Timings, o.NegativeLimit, o.CandidatePool, log, o.Recorder).Collect(ctx)
	}

	first := NewDateEstimator(page, o.Selectors, o.Now, log, o.Recorder).Estimate(ctx)

	if err := ctx.Err(); err != nil {
		return domain.PlaceRecord{}, err
	}

	count := fields.ReviewCount
	if count == 0 {
		count = tabCount
	}
	if count == 0 {
		count = len(negatives)
	}

	rec := domain.PlaceRecord{
		Name:             fields.Name,
		Address:          fields.Address,
		Rating:           fields.Rating,
		TotalReviewCount: count,
		Phone:            fields.Phone,
		Website:          fields.Website,
		FirstReviewDate:  &first,
		NegativeReviews:  negatives,
	}
	log.Info().
		Bool("has_name", rec.Name != nil).
		Int("reviews", rec.TotalReviewCount).
		Int("negative", len(negatives)).
		Str("first_review", first).
		Msg("place extracted")
	return rec, nil
}
