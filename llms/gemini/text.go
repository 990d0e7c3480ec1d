// Package gemini implements the research capabilities with Google's Gemini
// models through google.golang.org/genai. Search passes use Google Search
// grounding; JSON answers are requested with response schemas.
package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/smallnest/researchdeck/llms/prompt"
	"github.com/smallnest/researchdeck/log"
	"github.com/smallnest/researchdeck/research"
	"google.golang.org/genai"
)

// Default model names.
const (
	DefaultTextModel  = "gemini-2.5-flash-lite"
	DefaultImageModel = "gemini-2.5-flash-image"
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type config struct {
	model   string
	baseURL string
	logger  log.Logger
}

// Option configures a Text or Image backend.
type Option func(*config)

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(c *config) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(model string, opts []Option) config {
	c := config{model: model, logger: log.GetDefaultLogger()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func newModels(ctx context.Context, apiKey string, c config) (*genai.Models, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cc := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if c.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client.Models, nil
}

// Text implements research.TextModel with a Gemini text model.
type Text struct {
	gen    contentGenerator
	model  string
	logger log.Logger
}

var _ research.TextModel = (*Text)(nil)

// NewText creates a Text backend authenticated with apiKey.
func NewText(ctx context.Context, apiKey string, opts ...Option) (*Text, error) {
	c := newConfig(DefaultTextModel, opts)
	models, err := newModels(ctx, apiKey, c)
	if err != nil {
		return nil, err
	}
	return newText(models, c), nil
}

func newText(gen contentGenerator, c config) *Text {
	return &Text{gen: gen, model: c.model, logger: c.logger}
}

func (t *Text) generate(ctx context.Context, text string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := t.gen.GenerateContent(ctx, t.model, genai.Text(text), cfg)
	if err != nil {
		return nil, classify(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", research.ErrMalformedResponse)
	}
	return resp, nil
}

func classify(err error) error {
	if research.IsQuotaError(err) {
		return fmt.Errorf("%w: %w", research.ErrQuota, err)
	}
	return err
}

// Plan implements research.Planner.
func (t *Text) Plan(ctx context.Context, topic string) ([]research.PlannedObjective, error) {
	resp, err := t.generate(ctx, prompt.Plan(topic), jsonConfig(planSchema))
	if err != nil {
		return nil, err
	}
	return prompt.DecodePlan(resp.Text())
}

// Search implements research.Searcher using Google Search grounding.
func (t *Text) Search(ctx context.Context, req research.SearchRequest) (research.SearchResult, error) {
	resp, err := t.generate(ctx, prompt.Search(req), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return research.SearchResult{}, err
	}

	findings := strings.TrimSpace(resp.Text())
	if findings == "" {
		findings = "No findings retrieved."
	}
	sources := groundingSources(resp.Candidates[0])
	t.logger.Debug("grounded search for %q cited %d sources", req.Title, len(sources))
	return research.SearchResult{Findings: findings, Sources: sources}, nil
}

func groundingSources(c *genai.Candidate) []research.Source {
	if c == nil || c.GroundingMetadata == nil {
		return nil
	}
	var out []research.Source
	for _, chunk := range c.GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		s := research.Source{Title: chunk.Web.Title, URI: chunk.Web.URI}
		if s.Title == "" {
			s.Title = "Source"
		}
		if s.URI == "" {
			s.URI = "#"
		}
		out = append(out, s)
	}
	return out
}

// Critique implements research.Critic.
func (t *Text) Critique(ctx context.Context, title, findings string) (research.CritiqueResult, error) {
	resp, err := t.generate(ctx, prompt.Critique(title, findings), jsonConfig(critiqueSchema))
	if err != nil {
		return research.CritiqueResult{}, err
	}
	return prompt.DecodeCritique(resp.Text())
}

// DesignSlide implements research.Designer.
func (t *Text) DesignSlide(ctx context.Context, req research.DesignRequest) (research.SlideDesign, error) {
	resp, err := t.generate(ctx, prompt.Design(req), jsonConfig(designSchema))
	if err != nil {
		return research.SlideDesign{}, err
	}
	return prompt.DecodeDesign(resp.Text())
}

// WriteScript implements research.Scripter.
func (t *Text) WriteScript(ctx context.Context, design research.SlideDesign, persona string) (string, error) {
	resp, err := t.generate(ctx, prompt.Script(design, persona), nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

// AuditScript implements research.Auditor.
func (t *Text) AuditScript(ctx context.Context, script, findings string) (research.QualityAudit, error) {
	resp, err := t.generate(ctx, prompt.Audit(script, findings), jsonConfig(auditSchema))
	if err != nil {
		return research.QualityAudit{}, err
	}
	return prompt.DecodeAudit(resp.Text())
}

// WriteReport implements research.ReportWriter.
func (t *Text) WriteReport(ctx context.Context, topic string, objectives []research.Objective) (research.Report, error) {
	resp, err := t.generate(ctx, prompt.Report(topic, objectives), jsonConfig(reportSchema))
	if err != nil {
		return research.Report{}, err
	}
	return prompt.DecodeReport(resp.Text())
}

// Image implements research.ImageModel with a Gemini image model. It is
// usually created with its own API key so image quota does not eat into the
// text quota.
type Image struct {
	gen    contentGenerator
	model  string
	logger log.Logger
}

var _ research.ImageModel = (*Image)(nil)

// NewImage creates an Image backend authenticated with apiKey.
func NewImage(ctx context.Context, apiKey string, opts ...Option) (*Image, error) {
	c := newConfig(DefaultImageModel, opts)
	models, err := newModels(ctx, apiKey, c)
	if err != nil {
		return nil, err
	}
	return &Image{gen: models, model: c.model, logger: c.logger}, nil
}

// GenerateImage implements research.Illustrator. It returns the first inline
// image as a data URI, or an empty string when the model answered without one.
func (i *Image) GenerateImage(ctx context.Context, visualPrompt, persona string) (string, error) {
	resp, err := i.gen.GenerateContent(ctx, i.model, genai.Text(prompt.Image(visualPrompt, persona)), nil)
	if err != nil {
		return "", classify(err)
	}
	if resp == nil {
		return "", nil
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
				return DataURI(p.InlineData.MIMEType, p.InlineData.Data), nil
			}
		}
	}
	i.logger.Warn("image model returned no inline image for prompt %q", prompt.Truncate(visualPrompt, 80))
	return "", nil
}

// DataURI encodes data as a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
