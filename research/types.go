package research

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an objective.
type Status string

const (
	StatusPending    Status = "pending"
	StatusSearching  Status = "searching"
	StatusCritiquing Status = "critiquing"
	StatusRefining   Status = "refining"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether no further investigation happens in this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Role attributes a log entry to a stage of the pipeline.
type Role string

const (
	RoleInvestigator Role = "Investigator"
	RoleCritic       Role = "Critic"
	RolePresenter    Role = "Presenter"
)

// Source is a cited web page.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// LogEntry is one line of an objective's activity log.
type LogEntry struct {
	Role      Role      `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Layout is the slide composition chosen by the designer.
type Layout string

const (
	LayoutSplitLeft     Layout = "split-left"
	LayoutSplitRight    Layout = "split-right"
	LayoutBottomOverlay Layout = "bottom-overlay"
	LayoutCentered      Layout = "centered"
)

// Layouts lists every valid layout.
var Layouts = []Layout{LayoutSplitLeft, LayoutSplitRight, LayoutBottomOverlay, LayoutCentered}

// Valid reports whether l is one of Layouts.
func (l Layout) Valid() bool {
	for _, v := range Layouts {
		if l == v {
			return true
		}
	}
	return false
}

// SlideDesign is the visual and textual plan of one slide.
type SlideDesign struct {
	Title        string   `json:"title"`
	Points       []string `json:"points"`
	VisualPrompt string   `json:"visualPrompt"`
	Layout       Layout   `json:"layout"`
}

// Validate checks that the design is renderable.
func (d SlideDesign) Validate() error {
	if d.Title == "" {
		return fmt.Errorf("%w: slide design has no title", ErrMalformedResponse)
	}
	if !d.Layout.Valid() {
		return fmt.Errorf("%w: unknown layout %q", ErrMalformedResponse, d.Layout)
	}
	return nil
}

func (d *SlideDesign) clone() *SlideDesign {
	if d == nil {
		return nil
	}
	c := *d
	c.Points = append([]string(nil), d.Points...)
	return &c
}

// DefaultDesign is used when the designer fails.
func DefaultDesign(title string) SlideDesign {
	return SlideDesign{
		Title:        title,
		Points:       []string{"Findings synthesis failed."},
		VisualPrompt: "Clean minimal technology background.",
		Layout:       LayoutCentered,
	}
}

// Risk grades how likely a script is to contain unsupported claims.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// QualityAudit scores a script against the findings it was derived from.
type QualityAudit struct {
	AuthenticityScore int    `json:"authenticityScore"`
	HallucinationRisk Risk   `json:"hallucinationRisk"`
	Critique          string `json:"critique"`
}

// Validate checks score range and risk enum.
func (a QualityAudit) Validate() error {
	if a.AuthenticityScore < 0 || a.AuthenticityScore > 100 {
		return fmt.Errorf("%w: authenticity score %d out of range", ErrMalformedResponse, a.AuthenticityScore)
	}
	switch a.HallucinationRisk {
	case RiskLow, RiskMedium, RiskHigh:
		return nil
	default:
		return fmt.Errorf("%w: unknown hallucination risk %q", ErrMalformedResponse, a.HallucinationRisk)
	}
}

// CritiqueResult is the critic's verdict on a set of findings.
type CritiqueResult struct {
	Sufficient   bool   `json:"sufficient"`
	Feedback     string `json:"feedback"`
	RefinedQuery string `json:"refinedQuery,omitempty"`
}

// Guidance returns the text to steer the next search with.
func (c CritiqueResult) Guidance() string {
	if c.RefinedQuery != "" {
		return c.RefinedQuery
	}
	return c.Feedback
}

// DataPoint is a labelled number in the report.
type DataPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Report is the cross-objective synthesis of a run.
type Report struct {
	Summary          string      `json:"summary"`
	DetailedAnalysis string      `json:"detailedAnalysis"`
	KeyFindings      []string    `json:"keyFindings"`
	DataPoints       []DataPoint `json:"dataPoints"`
	Sources          []Source    `json:"sources"`
}

// Validate checks the fields the exporters rely on.
func (r Report) Validate() error {
	if r.Summary == "" {
		return fmt.Errorf("%w: report has no summary", ErrMalformedResponse)
	}
	return nil
}

// Objective is one research sub-question tracked through investigation and
// asset synthesis.
type Objective struct {
	ID                 string        `json:"id"`
	Title              string        `json:"title"`
	ResearchPlan       string        `json:"researchPlan"`
	Status             Status        `json:"status"`
	Iteration          int           `json:"iteration"`
	Findings           string        `json:"findings,omitempty"`
	FindingsHistory    []string      `json:"findingsHistory,omitempty"`
	Sources            []Source      `json:"sources,omitempty"`
	Feedback           string        `json:"feedback,omitempty"`
	SlideDesign        *SlideDesign  `json:"slideDesign,omitempty"`
	PresentationScript string        `json:"presentationScript,omitempty"`
	ImageURL           string        `json:"imageUrl,omitempty"`
	QualityAudit       *QualityAudit `json:"qualityAudit,omitempty"`
	Logs               []LogEntry    `json:"logs,omitempty"`
}

// Clone returns a deep copy.
func (o Objective) Clone() Objective {
	c := o
	c.FindingsHistory = append([]string(nil), o.FindingsHistory...)
	c.Sources = append([]Source(nil), o.Sources...)
	c.Logs = append([]LogEntry(nil), o.Logs...)
	c.SlideDesign = o.SlideDesign.clone()
	if o.QualityAudit != nil {
		a := *o.QualityAudit
		c.QualityAudit = &a
	}
	return c
}

// HasAssets reports whether any derived asset field is set.
func (o Objective) HasAssets() bool {
	return o.SlideDesign != nil || o.PresentationScript != "" || o.ImageURL != "" || o.QualityAudit != nil
}

func (o *Objective) clearAssets() {
	o.SlideDesign = nil
	o.PresentationScript = ""
	o.ImageURL = ""
	o.QualityAudit = nil
}

func (o *Objective) applyAssets(a Assets) {
	o.SlideDesign = a.Design.clone()
	o.PresentationScript = a.Script
	o.ImageURL = a.ImageURL
	if a.Audit != nil {
		audit := *a.Audit
		o.QualityAudit = &audit
	} else {
		o.QualityAudit = nil
	}
}

func (o *Objective) log(role Role, at time.Time, format string, v ...any) {
	o.Logs = append(o.Logs, LogEntry{Role: role, Message: fmt.Sprintf(format, v...), Timestamp: at})
}

// Project is a topic together with its objectives and report. It is the unit
// persisted by stores and exported as a bundle.
type Project struct {
	ID         string      `json:"id"`
	Topic      string      `json:"topic"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	Objectives []Objective `json:"objectives"`
	Report     *Report     `json:"report,omitempty"`
}

// Objective returns the objective with id.
func (p *Project) Objective(id string) (Objective, bool) {
	for _, o := range p.Objectives {
		if o.ID == id {
			return o, true
		}
	}
	return Objective{}, false
}

// SlideInput is a pre-researched slide for slide-only generation.
type SlideInput struct {
	Title    string `json:"title"`
	Findings string `json:"findings"`
}
