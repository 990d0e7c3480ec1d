package export

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/smallnest/researchdeck/log"
	"github.com/smallnest/researchdeck/research"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 5, 4, 10, 30, 0, 0, time.UTC)

func newTestExporter() *Exporter {
	return New(WithLogger(log.NoOpLogger{}), WithClock(func() time.Time { return fixedNow }))
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	for x := range 16 {
		for y := range 9 {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func sampleProject(t *testing.T) *research.Project {
	img := pngDataURI(t)
	return &research.Project{
		ID:    "p-1",
		Topic: "Solid-state batteries",
		Objectives: []research.Objective{
			{
				ID: "o-1", Title: "Chemistry", ResearchPlan: "Compare electrolytes", Status: research.StatusCompleted,
				Findings:           "Sulfide electrolytes lead.",
				Sources:            []research.Source{{Title: "Nature", URI: "https://nature.com/x"}},
				SlideDesign:        &research.SlideDesign{Title: "Chemistry", Points: []string{"Sulfides", "Oxides"}, VisualPrompt: "lab", Layout: research.LayoutSplitLeft},
				PresentationScript: "Let's talk chemistry.",
				ImageURL:           img,
				QualityAudit:       &research.QualityAudit{AuthenticityScore: 91, HallucinationRisk: research.RiskLow, Critique: "ok"},
			},
			{
				ID: "o-2", Title: "Manufacturing", Status: research.StatusCompleted,
				SlideDesign: &research.SlideDesign{Title: "Manufacturing", Points: []string{"a", "b", "c"}, Layout: research.LayoutBottomOverlay},
				ImageURL:    img,
			},
			{
				ID: "o-3", Title: "Market", Status: research.StatusCompleted,
				SlideDesign: &research.SlideDesign{Title: "Market", Points: []string{"growth"}, Layout: research.LayoutSplitRight},
				ImageURL:    "https://example.com/remote.png",
			},
			{ID: "o-4", Title: "Policy", Status: research.StatusError},
		},
		Report: &research.Report{
			Summary:          "Promising but early.",
			DetailedAnalysis: "### Outlook\n\nPilot lines in 2026.",
			KeyFindings:      []string{"Energy density up"},
			DataPoints:       []research.DataPoint{{Label: "Wh/kg", Value: 400}},
			Sources:          []research.Source{{Title: "Nature", URI: "https://nature.com/x"}},
		},
	}
}

func TestManifest(t *testing.T) {
	p := sampleProject(t)
	m := newTestExporter().Manifest(p)

	assert.Equal(t, "Solid-state batteries", m.OriginalQuery)
	assert.Equal(t, fixedNow, m.ExportedAt)
	require.Len(t, m.Slides, 4)
	assert.Equal(t, 1, m.Slides[0].SlideIndex)
	assert.Equal(t, "Let's talk chemistry.", m.Slides[0].SpeakerNote)
	assert.Equal(t, "Compare electrolytes", m.Slides[0].ResearchPlan)
	assert.Equal(t, 91, m.Slides[0].QualityAudit.AuthenticityScore)
	assert.Equal(t, noScript, m.Slides[1].SpeakerNote)
	assert.NotNil(t, m.Slides[3].Sources)
	assert.Nil(t, m.Slides[3].SlideDesign)
	assert.Equal(t, research.StatusError, m.Slides[3].Status)
}

func TestManifestJSON_Shape(t *testing.T) {
	data, err := newTestExporter().ManifestJSON(&research.Project{Objectives: []research.Objective{{Title: "Only"}}})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, noQuery, raw["originalQuery"])
	assert.Equal(t, "2025-05-04T10:30:00Z", raw["exportedAt"])
	slides := raw["slides"].([]any)
	slide := slides[0].(map[string]any)
	assert.Equal(t, float64(1), slide["slideIndex"])
	assert.Equal(t, []any{}, slide["sources"])
	assert.Contains(t, slide, "slideDesign")
}

func TestPDF_OnePagePerObjective(t *testing.T) {
	e := newTestExporter()
	p := sampleProject(t)

	d := e.render(p.Objectives)
	require.True(t, d.pdf.Ok(), "%v", d.pdf.Error())
	assert.Equal(t, 4, d.pdf.PageCount())
	w, h := d.pdf.GetPageSize()
	assert.InDelta(t, PageWidth, w, 0.01)
	assert.InDelta(t, PageHeight, h, 0.01)
	assert.Equal(t, 2, d.images)

	data, err := e.PDF(p)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestPDF_EmptyProject(t *testing.T) {
	d := newTestExporter().render(nil)
	assert.Equal(t, 1, d.pdf.PageCount())
}

func TestPDF_BadImageIsSkipped(t *testing.T) {
	p := &research.Project{Objectives: []research.Objective{
		{Title: "Broken", ImageURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not a png"))},
		{Title: "Webp", ImageURL: "data:image/webp;base64,AAAA"},
		{Title: "Fine"},
	}}
	e := newTestExporter()

	d := e.render(p.Objectives)
	assert.True(t, d.pdf.Ok())
	assert.Equal(t, 3, d.pdf.PageCount())

	_, err := e.PDF(p)
	assert.NoError(t, err)
}

func TestDecodeDataURI(t *testing.T) {
	mime, data, err := DecodeDataURI("data:image/jpeg;base64,aW1n")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, []byte("img"), data)

	_, _, err = DecodeDataURI("https://example.com/a.png")
	assert.ErrorIs(t, err, ErrNotDataURI)

	_, _, err = DecodeDataURI("data:image/png,plain")
	assert.ErrorIs(t, err, ErrNotDataURI)

	_, _, err = DecodeDataURI("data:image/png;base64,***")
	assert.Error(t, err)
}

func TestReportHTML(t *testing.T) {
	out, err := newTestExporter().ReportHTML(sampleProject(t))
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "<title>Solid-state batteries</title>")
	assert.Contains(t, html, `href="#summary"`)
	assert.Contains(t, html, `id="summary"`)
	assert.Contains(t, html, `href="#outlook"`)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "https://nature.com/x")
}

func TestReportHTML_Sanitizes(t *testing.T) {
	p := &research.Project{
		Topic:  "<b>x</b>",
		Report: &research.Report{Summary: "hello <script>alert(1)</script> world"},
	}
	out, err := newTestExporter().ReportHTML(p)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script>")
	assert.Contains(t, string(out), "&lt;b&gt;x&lt;/b&gt;</title>")
}

func TestReportMarkdown_WithoutReport(t *testing.T) {
	p := &research.Project{
		Topic: "Grid",
		Objectives: []research.Objective{
			{Title: "Costs", Status: research.StatusCompleted, Findings: "Falling.", Sources: []research.Source{{Title: "A", URI: "https://a"}}},
			{Title: "Risks", Status: research.StatusError},
		},
	}
	md := newTestExporter().ReportMarkdown(p)
	assert.Contains(t, md, "## Costs\n\nFalling.")
	assert.Contains(t, md, "_Investigation failed._")
	assert.Contains(t, md, "- [A](https://a)")
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "key-findings", slug("Key Findings"))
	assert.Equal(t, "section", slug("!!!"))
	assert.Equal(t, "a-b", slug("  a -- b  "))
}

func TestBundle(t *testing.T) {
	e := newTestExporter()
	data, err := e.Bundle(sampleProject(t))
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := map[string]*zip.File{}
	for _, f := range zr.File {
		names[f.Name] = f
	}
	for _, want := range []string{ManifestFile, DeckFile, ReportFile, ReportMarkdown, "images/slide-01.png", "images/slide-02.png"} {
		assert.Contains(t, names, want)
	}
	assert.NotContains(t, names, "images/slide-03.png")

	rc, err := names[ManifestFile].Open()
	require.NoError(t, err)
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `"originalQuery": "Solid-state batteries"`))

	assert.Equal(t, "research_project_1746354600000.zip", e.BundleName(nil))
}

func TestBundleName(t *testing.T) {
	e := newTestExporter()

	assert.Equal(t, "research_project_7f3c-9a_1746354600000.zip", e.BundleName(&research.Project{ID: "7f3c-9a"}))
	assert.Equal(t, "research_project_etcpasswd_1746354600000.zip", e.BundleName(&research.Project{ID: "../etc/passwd"}))
	assert.Equal(t, "research_project_1746354600000.zip", e.BundleName(&research.Project{ID: "/../"}))
	assert.Equal(t, "research_project_1746354600000.zip", e.BundleName(nil))
}
