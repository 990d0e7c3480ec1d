package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/smallnest/researchdeck/research"
)

// Page geometry in points; one point maps to one pixel of the 1920x1080 canvas.
const (
	PageWidth  = 1920.0
	PageHeight = 1080.0

	half = PageWidth / 2
)

type rgb struct{ r, g, b int }

var (
	colorBackground = rgb{2, 6, 23}
	colorPanel      = rgb{3, 7, 18}
	colorAccent     = rgb{234, 179, 8}
	colorTitle      = rgb{255, 255, 255}
	colorBody       = rgb{226, 232, 240}
)

const fontFamily = "Helvetica"

type deck struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	images int
	warn   func(format string, v ...any)
}

func newDeck(warn func(string, ...any)) *deck {
	// fpdf takes portrait dimensions and swaps them for "L".
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: PageHeight, Ht: PageWidth},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	return &deck{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), warn: warn}
}

// PDF renders one 1920x1080 page per objective. Slide images are drawn when
// they are base64 data URIs in a format fpdf understands; anything else is
// skipped with a warning.
func (e *Exporter) PDF(p *research.Project) ([]byte, error) {
	d := e.render(p.Objectives)
	if err := d.pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render deck: %w", err)
	}
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write deck: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Exporter) render(objectives []research.Objective) *deck {
	d := newDeck(e.logger.Warn)
	if len(objectives) == 0 {
		d.pdf.AddPage()
		d.fill(colorBackground, 0, 0, PageWidth, PageHeight)
		return d
	}
	for i, o := range objectives {
		d.pdf.AddPage()
		design := slideDesign(o)
		switch design.Layout {
		case research.LayoutSplitLeft:
			d.splitLeft(i, design, o.ImageURL)
		case research.LayoutSplitRight:
			d.splitRight(i, design, o.ImageURL)
		case research.LayoutBottomOverlay:
			d.bottomOverlay(i, design, o.ImageURL)
		default:
			d.centered(i, design, o.ImageURL)
		}
	}
	return d
}

func (d *deck) fill(c rgb, x, y, w, h float64) {
	d.pdf.SetFillColor(c.r, c.g, c.b)
	d.pdf.Rect(x, y, w, h, "F")
}

func (d *deck) shade(c rgb, alpha, x, y, w, h float64) {
	d.pdf.SetAlpha(alpha, "Normal")
	d.fill(c, x, y, w, h)
	d.pdf.SetAlpha(1, "Normal")
}

// image draws the slide image scaled to cover the box. It reports whether
// anything was drawn.
func (d *deck) image(slide int, uri string, x, y, w, h float64) bool {
	if uri == "" {
		return false
	}
	mime, data, err := DecodeDataURI(uri)
	if err != nil {
		d.warn("slide %d: image skipped: %v", slide+1, err)
		return false
	}
	_, pdfType, ok := imageExt(mime)
	if !ok {
		d.warn("slide %d: image type %s is not supported in PDF", slide+1, mime)
		return false
	}

	d.images++
	name := fmt.Sprintf("slide-%d-%d", slide+1, d.images)
	opts := fpdf.ImageOptions{ImageType: pdfType}
	info := d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if !d.pdf.Ok() || info == nil {
		d.warn("slide %d: image could not be decoded: %v", slide+1, d.pdf.Error())
		d.pdf.ClearError()
		return false
	}

	iw, ih := info.Width(), info.Height()
	if iw <= 0 || ih <= 0 {
		return false
	}
	scale := max(w/iw, h/ih)
	sw, sh := iw*scale, ih*scale
	d.pdf.ClipRect(x, y, w, h, false)
	d.pdf.ImageOptions(name, x+(w-sw)/2, y+(h-sh)/2, sw, sh, false, opts, 0, "")
	d.pdf.ClipEnd()
	return true
}

// title writes upper-cased, wrapped title lines starting at baseline y and
// returns the baseline below the last line.
func (d *deck) title(text string, size, x, y, width float64, centered bool) float64 {
	d.pdf.SetFont(fontFamily, "B", size)
	d.pdf.SetTextColor(colorTitle.r, colorTitle.g, colorTitle.b)
	lineHeight := size * 1.15
	for _, line := range d.pdf.SplitText(d.tr(strings.ToUpper(text)), width) {
		lx := x
		if centered {
			lx = x - d.pdf.GetStringWidth(line)/2
		}
		d.pdf.Text(lx, y, line)
		y += lineHeight
	}
	return y - lineHeight
}

// bullets writes points with accent dots and returns the next free baseline.
func (d *deck) bullets(points []string, size, x, y, width, lineHeight, gap float64) float64 {
	d.pdf.SetFont(fontFamily, "", size)
	for _, point := range points {
		lines := d.pdf.SplitText(d.tr(point), width)
		if len(lines) == 0 {
			continue
		}
		d.pdf.SetFillColor(colorAccent.r, colorAccent.g, colorAccent.b)
		d.pdf.Circle(x-30, y-size/4, 5, "F")
		d.pdf.SetTextColor(colorBody.r, colorBody.g, colorBody.b)
		for i, line := range lines {
			d.pdf.Text(x, y+float64(i)*lineHeight, line)
		}
		y += float64(len(lines))*lineHeight + gap
	}
	return y
}

func (d *deck) splitLeft(i int, s research.SlideDesign, img string) {
	d.fill(colorBackground, 0, 0, PageWidth, PageHeight)
	d.fill(colorPanel, 0, 0, half, PageHeight)
	y := d.title(s.Title, 60, 80, 200, 800, false)
	d.bullets(s.Points, 28, 120, max(320, y+100), 750, 40, 30)
	d.image(i, img, half, 0, half, PageHeight)
}

func (d *deck) splitRight(i int, s research.SlideDesign, img string) {
	d.fill(colorBackground, 0, 0, PageWidth, PageHeight)
	d.image(i, img, 0, 0, half, PageHeight)
	d.fill(colorPanel, half, 0, half, PageHeight)
	y := d.title(s.Title, 60, half+80, 200, 800, false)
	d.bullets(s.Points, 28, half+120, max(320, y+100), 750, 40, 30)
}

func (d *deck) bottomOverlay(i int, s research.SlideDesign, img string) {
	d.fill(colorBackground, 0, 0, PageWidth, PageHeight)
	if d.image(i, img, 0, 0, PageWidth, PageHeight) {
		d.shade(colorBackground, 0.85, 0, 700, PageWidth, PageHeight-700)
	} else {
		d.fill(colorPanel, 0, 700, PageWidth, PageHeight-700)
	}
	y := d.title(s.Title, 70, 80, 800, 1760, false)
	points := s.Points
	if len(points) > 2 {
		points = points[:2]
	}
	d.bullets(points, 26, 120, max(920, y+90), 1700, 35, 20)
}

func (d *deck) centered(i int, s research.SlideDesign, img string) {
	d.fill(colorBackground, 0, 0, PageWidth, PageHeight)
	if d.image(i, img, 0, 0, PageWidth, PageHeight) {
		d.shade(colorBackground, 0.7, 0, 0, PageWidth, PageHeight)
	}
	y := d.title(s.Title, 70, half, 350, 1600, true)
	divider := max(450, y+80)
	d.fill(colorAccent, half-100, divider, 200, 6)

	d.pdf.SetFont(fontFamily, "", 28)
	by := divider + 90
	for _, point := range s.Points {
		for _, line := range d.pdf.SplitText(d.tr(point), 1400) {
			w := d.pdf.GetStringWidth(line)
			d.pdf.SetTextColor(colorBody.r, colorBody.g, colorBody.b)
			d.pdf.Text(half-w/2, by, line)
			by += 40
		}
		by += 10
	}
}
