package research

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Assets are the derived presentation fields of an objective. Any of them may
// be missing when a stage degraded.
type Assets struct {
	Design   *SlideDesign
	Script   string
	ImageURL string
	Audit    *QualityAudit
}

// Complete reports whether the script and audit stages both succeeded.
func (a Assets) Complete() bool {
	return a.Design != nil && a.Script != "" && a.Audit != nil
}

// SynthesizeAssets runs design, then script and image concurrently, then the
// audit, for obj's current findings. A failed design falls back to
// DefaultDesign and a failed image leaves ImageURL empty; neither is an error.
// A script or audit failure is returned as a *StageError together with the
// assets produced so far.
func (r *Runner) SynthesizeAssets(ctx context.Context, obj Objective) (Assets, error) {
	return r.synthesize(ctx, obj, func(string, ...any) {})
}

func (r *Runner) synthesize(ctx context.Context, obj Objective, note func(format string, v ...any)) (Assets, error) {
	var a Assets

	note("Designing slide layout & visual concepts...")
	design, err := r.text.DesignSlide(ctx, DesignRequest{
		Title:          obj.Title,
		Findings:       obj.Findings,
		SpeakerPersona: r.opts.speakerPersona,
		VisualPersona:  r.opts.visualPersona,
	})
	if err == nil {
		err = design.Validate()
	}
	if err != nil {
		r.opts.logger.Warn("slide design failed for %q, using default design: %v", obj.Title, err)
		design = DefaultDesign(obj.Title)
	}
	a.Design = &design

	note("Synthesizing script & cinematic background...")
	var (
		script   string
		imageURL string
		g        errgroup.Group
	)
	g.Go(func() error {
		s, err := r.text.WriteScript(ctx, design, r.opts.speakerPersona)
		if err != nil {
			return &StageError{Stage: StageScript, Err: err}
		}
		if s == "" {
			return &StageError{Stage: StageScript, Err: fmt.Errorf("%w: empty script", ErrMalformedResponse)}
		}
		script = s
		return nil
	})
	g.Go(func() error {
		if r.image == nil {
			return nil
		}
		url, err := r.image.GenerateImage(ctx, design.VisualPrompt, r.opts.visualPersona)
		if err != nil {
			if IsQuotaError(err) {
				r.opts.logger.Warn("image quota reached for %q, continuing without background", obj.Title)
			} else {
				r.opts.logger.Error("image generation failed for %q: %v", obj.Title, err)
			}
			return nil
		}
		imageURL = url
		return nil
	})
	err = g.Wait()
	a.ImageURL = imageURL
	if err != nil {
		return a, err
	}
	a.Script = script

	note("Running quality audit (Authenticity & Hallucination check)...")
	audit, err := r.text.AuditScript(ctx, script, obj.Findings)
	if err == nil {
		err = audit.Validate()
	}
	if err != nil {
		return a, &StageError{Stage: StageAudit, Err: err}
	}
	a.Audit = &audit
	return a, nil
}
