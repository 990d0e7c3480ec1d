package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/smallnest/researchdeck/log"
	"github.com/smallnest/researchdeck/research"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type call struct {
	model  string
	text   string
	config *genai.GenerateContentConfig
}

type fakeGenerator struct {
	resp  *genai.GenerateContentResponse
	err   error
	calls []call
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var text string
	for _, c := range contents {
		for _, p := range c.Parts {
			text += p.Text
		}
	}
	f.calls = append(f.calls, call{model: model, text: text, config: config})
	return f.resp, f.err
}

func textResponse(s string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: s}}},
		}},
	}
}

func newTestText(gen contentGenerator) *Text {
	return newText(gen, newConfig(DefaultTextModel, []Option{WithLogger(log.NoOpLogger{})}))
}

func TestText_PlanUsesSchema(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(`[{"id":"1","title":"Market size","researchPlan":"Find TAM"}]`)}
	m := newTestText(gen)

	objs, err := m.Plan(context.Background(), "EV batteries")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "Market size", objs[0].Title)

	require.Len(t, gen.calls, 1)
	assert.Equal(t, DefaultTextModel, gen.calls[0].model)
	assert.Equal(t, "application/json", gen.calls[0].config.ResponseMIMEType)
	assert.Equal(t, genai.TypeArray, gen.calls[0].config.ResponseSchema.Type)
	assert.Contains(t, gen.calls[0].text, "EV batteries")
}

func TestText_SearchCollectsGroundingSources(t *testing.T) {
	resp := textResponse("Solid-state cells are entering pilot production.")
	resp.Candidates[0].GroundingMetadata = &genai.GroundingMetadata{
		GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{Title: "Reuters", URI: "https://reuters.com/a"}},
			{Web: &genai.GroundingChunkWeb{URI: "https://example.com/b"}},
			{},
		},
	}
	gen := &fakeGenerator{resp: resp}
	m := newTestText(gen)

	res, err := m.Search(context.Background(), research.SearchRequest{Title: "Battery tech"})
	require.NoError(t, err)
	assert.Equal(t, "Solid-state cells are entering pilot production.", res.Findings)
	assert.Equal(t, []research.Source{
		{Title: "Reuters", URI: "https://reuters.com/a"},
		{Title: "Source", URI: "https://example.com/b"},
	}, res.Sources)

	cfg := gen.calls[0].config
	require.Len(t, cfg.Tools, 1)
	assert.NotNil(t, cfg.Tools[0].GoogleSearch)
	assert.Empty(t, cfg.ResponseMIMEType)
}

func TestText_SearchEmptyAnswer(t *testing.T) {
	m := newTestText(&fakeGenerator{resp: textResponse("  ")})

	res, err := m.Search(context.Background(), research.SearchRequest{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, "No findings retrieved.", res.Findings)
	assert.Empty(t, res.Sources)
}

func TestText_QuotaErrorsAreWrapped(t *testing.T) {
	m := newTestText(&fakeGenerator{err: errors.New("Error 429, Message: Resource has been exhausted, Status: RESOURCE_EXHAUSTED")})

	_, err := m.Critique(context.Background(), "t", "f")
	require.Error(t, err)
	assert.ErrorIs(t, err, research.ErrQuota)
}

func TestText_OtherErrorsPassThrough(t *testing.T) {
	boom := errors.New("connection reset")
	m := newTestText(&fakeGenerator{err: boom})

	_, err := m.DesignSlide(context.Background(), research.DesignRequest{Title: "t"})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, research.ErrQuota)
}

func TestText_NoCandidates(t *testing.T) {
	m := newTestText(&fakeGenerator{resp: &genai.GenerateContentResponse{}})

	_, err := m.AuditScript(context.Background(), "script", "findings")
	assert.ErrorIs(t, err, research.ErrMalformedResponse)
}

func TestText_DesignAndAudit(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("```json\n{\"title\":\"Growth\",\"points\":[\"a\",\"b\"],\"visualPrompt\":\"city\",\"layout\":\"split-left\"}\n```")}
	m := newTestText(gen)

	d, err := m.DesignSlide(context.Background(), research.DesignRequest{Title: "Growth", Findings: "up"})
	require.NoError(t, err)
	assert.Equal(t, research.LayoutSplitLeft, d.Layout)
	assert.Equal(t, layoutEnum(), gen.calls[0].config.ResponseSchema.Properties["layout"].Enum)

	gen.resp = textResponse(`{"authenticityScore":87.6,"hallucinationRisk":"low","critique":"grounded"}`)
	a, err := m.AuditScript(context.Background(), "script", "findings")
	require.NoError(t, err)
	assert.Equal(t, 88, a.AuthenticityScore)
	assert.Equal(t, research.RiskLow, a.HallucinationRisk)
}

func TestText_WriteScriptTrims(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("\n Welcome to the briefing. \n")}
	m := newTestText(gen)

	s, err := m.WriteScript(context.Background(), research.SlideDesign{Title: "Intro", Points: []string{"p"}}, "a narrator")
	require.NoError(t, err)
	assert.Equal(t, "Welcome to the briefing.", s)
	assert.Nil(t, gen.calls[0].config)
}

func TestImage_ReturnsDataURI(t *testing.T) {
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here you go"},
				{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: []byte("img")}},
			}},
		}},
	}}
	img := &Image{gen: gen, model: DefaultImageModel, logger: log.NoOpLogger{}}

	uri, err := img.GenerateImage(context.Background(), "a skyline", "cinematic")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,aW1n", uri)
	assert.Equal(t, DefaultImageModel, gen.calls[0].model)
	assert.Contains(t, gen.calls[0].text, "a skyline")
}

func TestImage_NoInlineData(t *testing.T) {
	img := &Image{gen: &fakeGenerator{resp: textResponse("sorry")}, model: DefaultImageModel, logger: log.NoOpLogger{}}

	uri, err := img.GenerateImage(context.Background(), "p", "")
	require.NoError(t, err)
	assert.Empty(t, uri)
}

func TestImage_Quota(t *testing.T) {
	img := &Image{gen: &fakeGenerator{err: errors.New("429 Too Many Requests")}, model: DefaultImageModel, logger: log.NoOpLogger{}}

	_, err := img.GenerateImage(context.Background(), "p", "")
	assert.ErrorIs(t, err, research.ErrQuota)
}

func TestNewText_RequiresKey(t *testing.T) {
	_, err := NewText(context.Background(), "")
	assert.Error(t, err)
}

func TestDataURI_DefaultsMIME(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,AQI=", DataURI("", []byte{1, 2}))
}
