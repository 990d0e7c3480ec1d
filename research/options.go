package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smallnest/researchdeck/log"
)

// Defaults for Runner options.
const (
	DefaultMaxIterations = 2
	DefaultQuotaBackoff  = 2 * time.Second
	MaxObjectives        = 5
)

// DefaultSpeakerPersona is the narration style used when none is configured.
const DefaultSpeakerPersona = "How a renowned YouTuber would speak with high energy, vibe, and hype, BUT keeping all the technical details and authenticity. Never hallucinate or invent baseless points; stay strictly grounded in the research while making it sound legendary."

// DefaultVisualPersona is the illustration style used when none is configured.
const DefaultVisualPersona = "A renowned illustrator who uses visual storytelling to bring users through a captivating narrative. The tone is artistic, evocative, and educational, focusing on how each fact fits into a larger story."

// CritiqueFailurePolicy decides what a failed critique call means.
type CritiqueFailurePolicy int

const (
	// CritiqueFailureFatal routes critique failures like search failures:
	// quota errors consume an iteration and retry, others fail the objective.
	CritiqueFailureFatal CritiqueFailurePolicy = iota
	// CritiqueFailureAccept treats a failed critique as a sufficient verdict.
	CritiqueFailureAccept
)

func (p CritiqueFailurePolicy) String() string {
	if p == CritiqueFailureAccept {
		return "accept"
	}
	return "fatal"
}

// ParseCritiqueFailurePolicy parses "fatal" or "accept". The empty string is
// the default, fatal.
func ParseCritiqueFailurePolicy(s string) (CritiqueFailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fatal":
		return CritiqueFailureFatal, nil
	case "accept":
		return CritiqueFailureAccept, nil
	}
	return CritiqueFailureFatal, fmt.Errorf("unknown critique failure policy %q", s)
}

type options struct {
	maxIterations    int
	quotaBackoff     time.Duration
	objectiveTimeout time.Duration
	concurrency      int
	critiquePolicy   CritiqueFailurePolicy
	speakerPersona   string
	visualPersona    string
	logger           log.Logger
	observers        []Observer
	now              func() time.Time
	sleep            func(ctx context.Context, d time.Duration) error
}

func defaultOptions() options {
	return options{
		maxIterations:  DefaultMaxIterations,
		quotaBackoff:   DefaultQuotaBackoff,
		concurrency:    1,
		critiquePolicy: CritiqueFailureFatal,
		speakerPersona: DefaultSpeakerPersona,
		visualPersona:  DefaultVisualPersona,
		logger:         log.GetDefaultLogger(),
		now:            time.Now,
		sleep:          sleepContext,
	}
}

// Option configures a Runner.
type Option func(*options)

// WithMaxIterations bounds search and critique rounds per objective.
// Values below 1 are ignored.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.maxIterations = n
		}
	}
}

// WithQuotaBackoff sets the wait before retrying after a quota failure.
func WithQuotaBackoff(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.quotaBackoff = d
		}
	}
}

// WithObjectiveTimeout bounds the wall-clock time spent on one objective,
// including its asset synthesis. Zero disables the deadline.
func WithObjectiveTimeout(d time.Duration) Option {
	return func(o *options) {
		o.objectiveTimeout = d
	}
}

// WithConcurrency sets how many objectives are investigated at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.concurrency = n
		}
	}
}

// WithCritiqueFailurePolicy chooses how critique failures are handled.
func WithCritiqueFailurePolicy(p CritiqueFailurePolicy) Option {
	return func(o *options) {
		o.critiquePolicy = p
	}
}

// WithPersonas overrides the speaker and visual personas. Empty values keep the defaults.
func WithPersonas(speaker, visual string) Option {
	return func(o *options) {
		if speaker != "" {
			o.speakerPersona = speaker
		}
		if visual != "" {
			o.visualPersona = visual
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers an observer on every board the runner creates.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithClock replaces time.Now for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
