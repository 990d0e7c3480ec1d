package prompt

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/smallnest/researchdeck/research"
)

// CleanJSON strips markdown code fences models like to wrap JSON in.
func CleanJSON(completion string) string {
	completion = strings.TrimSpace(completion)
	completion = strings.TrimPrefix(completion, "```json")
	completion = strings.TrimPrefix(completion, "```")
	completion = strings.TrimSuffix(completion, "```")
	return strings.TrimSpace(completion)
}

func decode(completion string, v any) error {
	text := CleanJSON(completion)
	if text == "" {
		return fmt.Errorf("%w: empty response", research.ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("%w: %v", research.ErrMalformedResponse, err)
	}
	return nil
}

// DecodePlan parses a planner answer. A wrapping object with an
// "objectives" list is accepted as well as a bare list.
func DecodePlan(completion string) ([]research.PlannedObjective, error) {
	var list []research.PlannedObjective
	if err := decode(completion, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Objectives []research.PlannedObjective `json:"objectives"`
	}
	if err := decode(completion, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Objectives, nil
}

// DecodeCritique parses a critique verdict.
func DecodeCritique(completion string) (research.CritiqueResult, error) {
	var raw struct {
		Sufficient   *bool  `json:"sufficient"`
		Feedback     string `json:"feedback"`
		RefinedQuery string `json:"refinedQuery"`
	}
	if err := decode(completion, &raw); err != nil {
		return research.CritiqueResult{}, err
	}
	if raw.Sufficient == nil {
		return research.CritiqueResult{}, fmt.Errorf("%w: critique without verdict", research.ErrMalformedResponse)
	}
	return research.CritiqueResult{
		Sufficient:   *raw.Sufficient,
		Feedback:     raw.Feedback,
		RefinedQuery: raw.RefinedQuery,
	}, nil
}

// DecodeDesign parses and validates a slide design.
func DecodeDesign(completion string) (research.SlideDesign, error) {
	var d research.SlideDesign
	if err := decode(completion, &d); err != nil {
		return research.SlideDesign{}, err
	}
	d.Layout = research.Layout(strings.ToLower(strings.TrimSpace(string(d.Layout))))
	if err := d.Validate(); err != nil {
		return research.SlideDesign{}, err
	}
	return d, nil
}

// DecodeAudit parses and validates a quality audit. Fractional scores are rounded.
func DecodeAudit(completion string) (research.QualityAudit, error) {
	var raw struct {
		AuthenticityScore *float64 `json:"authenticityScore"`
		HallucinationRisk string   `json:"hallucinationRisk"`
		Critique          string   `json:"critique"`
	}
	if err := decode(completion, &raw); err != nil {
		return research.QualityAudit{}, err
	}
	if raw.AuthenticityScore == nil {
		return research.QualityAudit{}, fmt.Errorf("%w: audit without score", research.ErrMalformedResponse)
	}
	a := research.QualityAudit{
		AuthenticityScore: int(math.Round(*raw.AuthenticityScore)),
		HallucinationRisk: research.Risk(strings.ToLower(strings.TrimSpace(raw.HallucinationRisk))),
		Critique:          raw.Critique,
	}
	if err := a.Validate(); err != nil {
		return research.QualityAudit{}, err
	}
	return a, nil
}

// DecodeReport parses and validates a report. Sources are left empty; the
// runner fills them from the objectives.
func DecodeReport(completion string) (research.Report, error) {
	var r research.Report
	if err := decode(completion, &r); err != nil {
		return research.Report{}, err
	}
	r.Sources = nil
	if err := r.Validate(); err != nil {
		return research.Report{}, err
	}
	return r, nil
}
