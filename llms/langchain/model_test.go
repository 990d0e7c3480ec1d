package langchain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/smallnest/researchdeck/log"
	"github.com/smallnest/researchdeck/research"
	"github.com/smallnest/researchdeck/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// mockLLM answers with the first response whose key appears in the prompt.
type mockLLM struct {
	responses map[string]string
	err       error
	prompts   []string
	callOpts  []int
}

func (m *mockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var text string
	for _, part := range messages[len(messages)-1].Parts {
		if tp, ok := part.(llms.TextContent); ok {
			text += tp.Text
		}
	}
	m.prompts = append(m.prompts, text)
	m.callOpts = append(m.callOpts, len(options))
	if m.err != nil {
		return nil, m.err
	}
	for key, resp := range m.responses {
		if strings.Contains(text, key) {
			return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: resp}}}, nil
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: ""}}}, nil
}

func (m *mockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type fakeWeb struct {
	results []tool.SearchResult
	err     error
	queries []string
}

func (f *fakeWeb) Search(ctx context.Context, query string) ([]tool.SearchResult, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

func TestModel_PlanAndCritique(t *testing.T) {
	llm := &mockLLM{responses: map[string]string{
		"Plan a deep research":       "```json\n[{\"id\":\"1\",\"title\":\"Costs\",\"researchPlan\":\"Find unit costs\"}]\n```",
		"Research Quality Auditor":   `{"sufficient": false, "feedback": "thin", "refinedQuery": "cost per kWh 2024"}`,
		"Design a high-impact":       `{"title":"Costs","points":["a"],"visualPrompt":"v","layout":"centered"}`,
		"Audit this speaker script":  `{"authenticityScore": 75, "hallucinationRisk": "medium", "critique": "ok"}`,
		"Synthesize a comprehensive": `{"summary":"S","detailedAnalysis":"D","keyFindings":["k"],"dataPoints":[]}`,
		"HIGH-IMPACT speaker script": "  Here is the story.  ",
	}}
	m := New(llm, WithLogger(log.NoOpLogger{}))
	ctx := context.Background()

	plan, err := m.Plan(ctx, "batteries")
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "Costs", plan[0].Title)

	c, err := m.Critique(ctx, "Costs", "some findings")
	require.NoError(t, err)
	assert.Equal(t, "cost per kWh 2024", c.Guidance())

	d, err := m.DesignSlide(ctx, research.DesignRequest{Title: "Costs", Findings: "f"})
	require.NoError(t, err)
	assert.Equal(t, research.LayoutCentered, d.Layout)

	s, err := m.WriteScript(ctx, d, "calm")
	require.NoError(t, err)
	assert.Equal(t, "Here is the story.", s)

	a, err := m.AuditScript(ctx, s, "f")
	require.NoError(t, err)
	assert.Equal(t, research.RiskMedium, a.HallucinationRisk)

	r, err := m.WriteReport(ctx, "batteries", []research.Objective{{Title: "Costs", Findings: "f"}})
	require.NoError(t, err)
	assert.Equal(t, "S", r.Summary)
}

func TestModel_SearchGroundedOnWebResults(t *testing.T) {
	llm := &mockLLM{responses: map[string]string{"Investigate": "Prices fell 20% [1]."}}
	web := &fakeWeb{results: []tool.SearchResult{
		{Title: "BNEF survey", URL: "https://bnef.example", Description: "pack prices"},
		{Title: "", URL: "https://untitled.example"},
	}}
	m := New(llm, WithWebSearch(web), WithLogger(log.NoOpLogger{}))

	res, err := m.Search(context.Background(), research.SearchRequest{Title: "battery prices"})
	require.NoError(t, err)

	assert.Equal(t, "Prices fell 20% [1].", res.Findings)
	assert.Equal(t, []research.Source{
		{Title: "BNEF survey", URI: "https://bnef.example"},
		{Title: "Source", URI: "https://untitled.example"},
	}, res.Sources)
	assert.Equal(t, []string{"battery prices"}, web.queries)
	assert.Contains(t, llm.prompts[0], "[1] BNEF survey (https://bnef.example)\npack prices")
}

func TestModel_SearchErrors(t *testing.T) {
	web := &fakeWeb{err: tool.ErrRateLimited}
	m := New(&mockLLM{}, WithWebSearch(web), WithLogger(log.NoOpLogger{}))

	_, err := m.Search(context.Background(), research.SearchRequest{Title: "x"})
	assert.ErrorIs(t, err, research.ErrQuota)
	assert.True(t, research.IsQuotaError(err))

	llm := &mockLLM{err: errors.New("API returned unexpected status code: 429")}
	m = New(llm, WithLogger(log.NoOpLogger{}))
	_, err = m.Search(context.Background(), research.SearchRequest{Title: "x"})
	assert.ErrorIs(t, err, research.ErrQuota)

	llm = &mockLLM{err: errors.New("invalid api key")}
	m = New(llm, WithLogger(log.NoOpLogger{}))
	_, err = m.Search(context.Background(), research.SearchRequest{Title: "x"})
	require.Error(t, err)
	assert.False(t, research.IsQuotaError(err))
}

func TestModel_EmptySearchAnswer(t *testing.T) {
	m := New(&mockLLM{}, WithLogger(log.NoOpLogger{}))
	res, err := m.Search(context.Background(), research.SearchRequest{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, "No findings retrieved.", res.Findings)
	assert.Empty(t, res.Sources)
}

func TestModel_MalformedDesign(t *testing.T) {
	llm := &mockLLM{responses: map[string]string{"Design a high-impact": "I think a nice slide would be..."}}
	m := New(llm, WithLogger(log.NoOpLogger{}))

	_, err := m.DesignSlide(context.Background(), research.DesignRequest{Title: "x"})
	assert.ErrorIs(t, err, research.ErrMalformedResponse)
}
