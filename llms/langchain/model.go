// Package langchain implements the research text capabilities on top of any
// langchaingo llms.Model. Models without built-in web grounding get their
// evidence from a WebSearcher such as tool.BraveSearch.
package langchain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smallnest/researchdeck/llms/prompt"
	"github.com/smallnest/researchdeck/log"
	"github.com/smallnest/researchdeck/research"
	"github.com/smallnest/researchdeck/tool"
	"github.com/tmc/langchaingo/llms"
)

const systemPrompt = "You are a meticulous research assistant. Answer only with what the task asks for."

// WebSearcher returns web results for a query.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]tool.SearchResult, error)
}

// Model adapts an llms.Model to research.TextModel.
type Model struct {
	llm         llms.Model
	web         WebSearcher
	logger      log.Logger
	callOptions []llms.CallOption
}

var _ research.TextModel = (*Model)(nil)

// Option configures a Model.
type Option func(*Model)

// WithWebSearch grounds search passes on web results.
func WithWebSearch(s WebSearcher) Option {
	return func(m *Model) {
		m.web = s
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithCallOptions adds options passed on every call, e.g. llms.WithTemperature.
func WithCallOptions(opts ...llms.CallOption) Option {
	return func(m *Model) {
		m.callOptions = append(m.callOptions, opts...)
	}
}

// New creates a Model.
func New(llm llms.Model, opts ...Option) *Model {
	m := &Model{llm: llm, logger: log.GetDefaultLogger()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) generate(ctx context.Context, userPrompt string, jsonMode bool) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}
	opts := append([]llms.CallOption(nil), m.callOptions...)
	if jsonMode {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := m.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", classify(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", research.ErrMalformedResponse)
	}
	return resp.Choices[0].Content, nil
}

func classify(err error) error {
	if errors.Is(err, tool.ErrRateLimited) || research.IsQuotaError(err) {
		return fmt.Errorf("%w: %w", research.ErrQuota, err)
	}
	return err
}

// Plan implements research.Planner.
func (m *Model) Plan(ctx context.Context, topic string) ([]research.PlannedObjective, error) {
	out, err := m.generate(ctx, prompt.Plan(topic), false)
	if err != nil {
		return nil, err
	}
	return prompt.DecodePlan(out)
}

// Search implements research.Searcher.
func (m *Model) Search(ctx context.Context, req research.SearchRequest) (research.SearchResult, error) {
	userPrompt := prompt.Search(req)
	var sources []research.Source

	if m.web != nil {
		results, err := m.web.Search(ctx, prompt.SearchQuery(req))
		if err != nil {
			return research.SearchResult{}, classify(err)
		}
		snippets := make([]string, len(results))
		sources = make([]research.Source, len(results))
		for i, r := range results {
			title := r.Title
			if title == "" {
				title = "Source"
			}
			sources[i] = research.Source{Title: title, URI: r.URL}
			snippets[i] = r.Description
		}
		m.logger.Debug("web search for %q returned %d results", req.Title, len(results))
		userPrompt = prompt.SearchWithResults(req, sources, snippets)
	}

	out, err := m.generate(ctx, userPrompt, false)
	if err != nil {
		return research.SearchResult{}, err
	}
	findings := strings.TrimSpace(out)
	if findings == "" {
		findings = "No findings retrieved."
	}
	return research.SearchResult{Findings: findings, Sources: sources}, nil
}

// Critique implements research.Critic.
func (m *Model) Critique(ctx context.Context, title, findings string) (research.CritiqueResult, error) {
	out, err := m.generate(ctx, prompt.Critique(title, findings), true)
	if err != nil {
		return research.CritiqueResult{}, err
	}
	return prompt.DecodeCritique(out)
}

// DesignSlide implements research.Designer.
func (m *Model) DesignSlide(ctx context.Context, req research.DesignRequest) (research.SlideDesign, error) {
	out, err := m.generate(ctx, prompt.Design(req), true)
	if err != nil {
		return research.SlideDesign{}, err
	}
	return prompt.DecodeDesign(out)
}

// WriteScript implements research.Scripter.
func (m *Model) WriteScript(ctx context.Context, design research.SlideDesign, persona string) (string, error) {
	out, err := m.generate(ctx, prompt.Script(design, persona), false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// AuditScript implements research.Auditor.
func (m *Model) AuditScript(ctx context.Context, script, findings string) (research.QualityAudit, error) {
	out, err := m.generate(ctx, prompt.Audit(script, findings), true)
	if err != nil {
		return research.QualityAudit{}, err
	}
	return prompt.DecodeAudit(out)
}

// WriteReport implements research.ReportWriter.
func (m *Model) WriteReport(ctx context.Context, topic string, objectives []research.Objective) (research.Report, error) {
	out, err := m.generate(ctx, prompt.Report(topic, objectives), true)
	if err != nil {
		return research.Report{}, err
	}
	return prompt.DecodeReport(out)
}
