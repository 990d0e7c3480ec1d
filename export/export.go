// Package export turns a research project into shareable artifacts: a JSON
// manifest, a 1920x1080 slide deck PDF, an HTML report and a ZIP bundle
// holding all of them plus the slide images.
package export

import (
	"time"

	"github.com/smallnest/researchdeck/log"
	"github.com/smallnest/researchdeck/research"
)

// Exporter renders project artifacts.
type Exporter struct {
	logger log.Logger
	now    func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger used for non-fatal rendering problems.
func WithLogger(l log.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the export timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{logger: log.GetDefaultLogger(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// slideDesign returns the design to render for o. Objectives without assets
// get a bare title slide.
func slideDesign(o research.Objective) research.SlideDesign {
	if o.SlideDesign != nil {
		return *o.SlideDesign
	}
	return research.SlideDesign{Title: o.Title, Layout: research.LayoutCentered}
}
