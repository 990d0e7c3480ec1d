package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/smallnest/researchdeck/research"
)

const (
	noQuery  = "No input provided."
	noScript = "No script generated."
)

// Manifest is the machine-readable description of an exported project.
type Manifest struct {
	ProjectID     string           `json:"projectId,omitempty"`
	OriginalQuery string           `json:"originalQuery"`
	ExportedAt    time.Time        `json:"exportedAt"`
	Slides        []SlideManifest  `json:"slides"`
	Report        *research.Report `json:"report,omitempty"`
}

// SlideManifest describes one slide.
type SlideManifest struct {
	SlideIndex   int                    `json:"slideIndex"`
	ObjectiveID  string                 `json:"objectiveId"`
	Title        string                 `json:"title"`
	Status       research.Status        `json:"status"`
	ResearchPlan string                 `json:"researchPlan,omitempty"`
	Findings     string                 `json:"findings"`
	SpeakerNote  string                 `json:"speakerNote"`
	SlideDesign  *research.SlideDesign  `json:"slideDesign"`
	Sources      []research.Source      `json:"sources"`
	QualityAudit *research.QualityAudit `json:"qualityAudit,omitempty"`
}

// Manifest builds the manifest of p, one slide per objective in order.
func (e *Exporter) Manifest(p *research.Project) Manifest {
	m := Manifest{
		ProjectID:     p.ID,
		OriginalQuery: p.Topic,
		ExportedAt:    e.now().UTC(),
		Slides:        make([]SlideManifest, 0, len(p.Objectives)),
		Report:        p.Report,
	}
	if m.OriginalQuery == "" {
		m.OriginalQuery = noQuery
	}
	for i, o := range p.Objectives {
		s := SlideManifest{
			SlideIndex:   i + 1,
			ObjectiveID:  o.ID,
			Title:        o.Title,
			Status:       o.Status,
			ResearchPlan: o.ResearchPlan,
			Findings:     o.Findings,
			SpeakerNote:  o.PresentationScript,
			SlideDesign:  o.SlideDesign,
			Sources:      o.Sources,
			QualityAudit: o.QualityAudit,
		}
		if s.SpeakerNote == "" {
			s.SpeakerNote = noScript
		}
		if s.Sources == nil {
			s.Sources = []research.Source{}
		}
		m.Slides = append(m.Slides, s)
	}
	return m
}

// ManifestJSON returns the indented manifest document.
func (e *Exporter) ManifestJSON(p *research.Project) ([]byte, error) {
	data, err := json.MarshalIndent(e.Manifest(p), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return data, nil
}
