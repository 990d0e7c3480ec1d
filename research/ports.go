package research

import "context"

// PlannedObjective is a raw objective proposed by a Planner.
type PlannedObjective struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ResearchPlan string `json:"researchPlan"`
}

// SearchRequest describes one grounded search pass.
type SearchRequest struct {
	Title string
	// Iteration is the 0-based pass number.
	Iteration int
	// Feedback and PriorFindings are only set on refinement passes.
	Feedback      string
	PriorFindings string
}

// Refinement reports whether the request carries refinement context.
func (r SearchRequest) Refinement() bool {
	return r.Iteration > 0 && (r.Feedback != "" || r.PriorFindings != "")
}

// SearchResult is what a search pass produced.
type SearchResult struct {
	Findings string   `json:"findings"`
	Sources  []Source `json:"sources"`
}

// DesignRequest is the input of slide design.
type DesignRequest struct {
	Title          string
	Findings       string
	SpeakerPersona string
	VisualPersona  string
}

// Planner breaks a topic into objectives.
type Planner interface {
	Plan(ctx context.Context, topic string) ([]PlannedObjective, error)
}

// Searcher runs a grounded web search for an objective.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (SearchResult, error)
}

// Critic judges whether findings answer an objective.
type Critic interface {
	Critique(ctx context.Context, title, findings string) (CritiqueResult, error)
}

// Designer lays out a slide from findings.
type Designer interface {
	DesignSlide(ctx context.Context, req DesignRequest) (SlideDesign, error)
}

// Scripter writes the narration of a slide.
type Scripter interface {
	WriteScript(ctx context.Context, design SlideDesign, persona string) (string, error)
}

// Illustrator renders a slide background and returns an image reference,
// typically a data URI.
type Illustrator interface {
	GenerateImage(ctx context.Context, visualPrompt, persona string) (string, error)
}

// Auditor scores a script against the findings it came from.
type Auditor interface {
	AuditScript(ctx context.Context, script, findings string) (QualityAudit, error)
}

// ReportWriter synthesizes the final report across objectives.
type ReportWriter interface {
	WriteReport(ctx context.Context, topic string, objectives []Objective) (Report, error)
}

// TextModel bundles every text capability. A single backend instance
// usually implements all of them.
type TextModel interface {
	Planner
	Searcher
	Critic
	Designer
	Scripter
	Auditor
	ReportWriter
}

// ImageModel is the image capability. It is injected separately from the
// TextModel so it can use its own credentials and quota.
type ImageModel interface {
	Illustrator
}
