package extract

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Timings groups every fixed wait the pipeline performs.
type Timings struct {
	InitialSettle  time.Duration
	Lookup         time.Duration
	ConsentSettle  time.Duration
	PanelSettle    time.Duration
	SortSettle     time.Duration
	ExpandSettle   time.Duration
	ScrollDelay    time.Duration
	ScrollAttempts int
}

func DefaultTimings() Timings {
	return Timings{
		InitialSettle:  4 * time.Second,
		Lookup:         3 * time.Second,
		ConsentSettle:  time.Second,
		PanelSettle:    3 * time.Second,
		SortSettle:     2 * time.Second,
		ExpandSettle:   300 * time.Millisecond,
		ScrollDelay:    1500 * time.Millisecond,
		ScrollAttempts: 3,
	}
}

// Recorder receives per-step outcomes so selector drift can be watched.
type Recorder interface {
	Field(field, outcome string)
	Step(step string, ok bool)
	Reviews(candidates, kept int)
	DateTier(tier string)
}

type nopRecorder struct{}

func (nopRecorder) Field(string, string) {}
func (nopRecorder) Step(string, bool)    {}
func (nopRecorder) Reviews(int, int)     {}
func (nopRecorder) DateTier(string)      {}

type Options struct {
	Selectors Selectors
	Timings   Timings
	// Logger defaults to zerolog.Nop().
	Logger   *zerolog.Logger
	Recorder Recorder
	Now      func() time.Time

	NegativeLimit int
	CandidatePool int
}

func (o Options) withDefaults() Options {
	if o.Selectors.Name == nil {
		o.Selectors = DefaultSelectors()
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NegativeLimit <= 0 {
		o.NegativeLimit = 10
	}
	if o.CandidatePool <= 0 {
		o.CandidatePool = 30
	}
	return o
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
