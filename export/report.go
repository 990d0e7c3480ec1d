package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"github.com/smallnest/researchdeck/research"
)

// ReportMarkdown renders the project report as Markdown. Projects without a
// report get a digest of their objectives instead.
func (e *Exporter) ReportMarkdown(p *research.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", topicOf(p))

	if r := p.Report; r != nil {
		fmt.Fprintf(&b, "## Summary\n\n%s\n\n", r.Summary)
		if len(r.KeyFindings) > 0 {
			b.WriteString("## Key Findings\n\n")
			for _, f := range r.KeyFindings {
				fmt.Fprintf(&b, "- %s\n", f)
			}
			b.WriteString("\n")
		}
		if r.DetailedAnalysis != "" {
			fmt.Fprintf(&b, "## Detailed Analysis\n\n%s\n\n", r.DetailedAnalysis)
		}
		if len(r.DataPoints) > 0 {
			b.WriteString("## Data Points\n\n| Metric | Value |\n|---|---|\n")
			for _, dp := range r.DataPoints {
				fmt.Fprintf(&b, "| %s | %g |\n", escapeCell(dp.Label), dp.Value)
			}
			b.WriteString("\n")
		}
		writeSources(&b, r.Sources)
		return b.String()
	}

	for _, o := range p.Objectives {
		fmt.Fprintf(&b, "## %s\n\n", o.Title)
		if o.Status == research.StatusError {
			b.WriteString("_Investigation failed._\n\n")
			continue
		}
		fmt.Fprintf(&b, "%s\n\n", o.Findings)
	}
	writeSources(&b, research.DedupeSources(p.Objectives))
	return b.String()
}

func writeSources(b *strings.Builder, sources []research.Source) {
	if len(sources) == 0 {
		return
	}
	b.WriteString("## Sources\n\n")
	for _, s := range sources {
		fmt.Fprintf(b, "- [%s](%s)\n", s.Title, s.URI)
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func topicOf(p *research.Project) string {
	if p.Topic == "" {
		return "Research Report"
	}
	return p.Topic
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { background: #020617; color: #e2e8f0; font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; line-height: 1.6; }
a { color: #eab308; }
nav { border-left: 3px solid #eab308; padding-left: 1rem; margin-bottom: 2rem; }
table { border-collapse: collapse; }
td, th { border: 1px solid #334155; padding: .25rem .75rem; }
</style>
</head>
<body>
{{if .TOC}}<nav><strong>Contents</strong>
<ul>
{{range .TOC}}<li class="toc-{{.Level}}"><a href="#{{.ID}}">{{.Text}}</a></li>
{{end}}</ul>
</nav>{{end}}
<main>
{{.Body}}
</main>
</body>
</html>
`))

// TOCEntry is one heading of the report.
type TOCEntry struct {
	Level int
	ID    string
	Text  string
}

// ReportHTML renders the report Markdown to sanitized HTML with a table of
// contents linking to every second and third level heading.
func (e *Exporter) ReportHTML(p *research.Project) ([]byte, error) {
	body, toc, err := renderMarkdown(e.ReportMarkdown(p))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = reportTemplate.Execute(&buf, struct {
		Title string
		TOC   []TOCEntry
		Body  template.HTML
	}{
		Title: topicOf(p),
		TOC:   toc,
		Body:  template.HTML(body), // #nosec G203 -- sanitized by bluemonday
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

func renderMarkdown(md string) (string, []TOCEntry, error) {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	raw := markdown.Render(doc, renderer)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3")
	safe := policy.SanitizeBytes(raw)

	page, err := goquery.NewDocumentFromReader(bytes.NewReader(safe))
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse report html: %w", err)
	}

	var toc []TOCEntry
	seen := map[string]int{}
	page.Find("h2, h3").Each(func(_ int, h *goquery.Selection) {
		text := strings.TrimSpace(h.Text())
		id, ok := h.Attr("id")
		if !ok || id == "" {
			id = slug(text)
		}
		base := id
		if n := seen[base]; n > 0 {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		seen[base]++
		h.SetAttr("id", id)

		level := 2
		if goquery.NodeName(h) == "h3" {
			level = 3
		}
		toc = append(toc, TOCEntry{Level: level, ID: id, Text: text})
	})

	body, err := page.Find("body").Html()
	if err != nil {
		return "", nil, fmt.Errorf("failed to serialize report html: %w", err)
	}
	return body, toc, nil
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "section"
	}
	return out
}
