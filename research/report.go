package research

import (
	"context"
	"fmt"
)

// SynthesizeReport asks the text model for one report over all objectives,
// whatever their status, and attaches the deduplicated union of their sources.
// Any failure is wrapped in ErrReportSynthesis.
func (r *Runner) SynthesizeReport(ctx context.Context, topic string, objectives []Objective) (*Report, error) {
	r.opts.logger.Info("synthesizing report for %q over %d objectives", topic, len(objectives))

	rep, err := r.text.WriteReport(ctx, topic, cloneAll(objectives))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReportSynthesis, err)
	}
	if err := rep.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReportSynthesis, err)
	}

	rep.Sources = DedupeSources(objectives)
	return &rep, nil
}

// DedupeSources returns the union of all objective sources without repeated
// title and URI pairs, in first-seen order.
func DedupeSources(objectives []Objective) []Source {
	seen := make(map[Source]struct{})
	out := make([]Source, 0)
	for _, o := range objectives {
		for _, s := range o.Sources {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
