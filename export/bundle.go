package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/smallnest/researchdeck/research"
)

// Bundle entry names.
const (
	ManifestFile   = "project_data.json"
	DeckFile       = "slides.pdf"
	ReportFile     = "report.html"
	ReportMarkdown = "report.md"
	ImagesDir      = "images/"
)

// BundleName is the suggested download name of a project bundle:
// research_project_<id>_<unix ms>.zip, with the id reduced to file-safe
// characters and left out when p has none.
func (e *Exporter) BundleName(p *research.Project) string {
	ms := e.now().UnixMilli()
	if p == nil {
		return fmt.Sprintf("research_project_%d.zip", ms)
	}
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, p.ID)
	if id == "" {
		return fmt.Sprintf("research_project_%d.zip", ms)
	}
	return fmt.Sprintf("research_project_%s_%d.zip", id, ms)
}

// WriteBundle writes the ZIP bundle of p to w: manifest, deck, report and
// every slide image that is a decodable data URI.
func (e *Exporter) WriteBundle(w io.Writer, p *research.Project) error {
	manifest, err := e.ManifestJSON(p)
	if err != nil {
		return err
	}
	deck, err := e.PDF(p)
	if err != nil {
		return err
	}
	report, err := e.ReportHTML(p)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	files := []struct {
		name string
		data []byte
	}{
		{ManifestFile, manifest},
		{DeckFile, deck},
		{ReportFile, report},
		{ReportMarkdown, []byte(e.ReportMarkdown(p))},
	}
	for i, o := range p.Objectives {
		if o.ImageURL == "" {
			continue
		}
		mime, data, err := DecodeDataURI(o.ImageURL)
		if err != nil {
			e.logger.Warn("bundle: slide %d image skipped: %v", i+1, err)
			continue
		}
		ext, _, ok := imageExt(mime)
		if !ok {
			ext = ".bin"
		}
		files = append(files, struct {
			name string
			data []byte
		}{fmt.Sprintf("%sslide-%02d%s", ImagesDir, i+1, ext), data})
	}

	for _, f := range files {
		fw, err := zw.Create(f.name)
		if err != nil {
			return fmt.Errorf("failed to add %s to bundle: %w", f.name, err)
		}
		if _, err := fw.Write(f.data); err != nil {
			return fmt.Errorf("failed to write %s to bundle: %w", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish bundle: %w", err)
	}
	return nil
}

// Bundle returns the ZIP bundle of p.
func (e *Exporter) Bundle(p *research.Project) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.WriteBundle(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
