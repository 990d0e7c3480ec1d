package research

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/smallnest/researchdeck/log"
)

// fakeText is a scripted TextModel. Zero-value hooks produce successful,
// deterministic answers.
type fakeText struct {
	mu sync.Mutex

	plan    []PlannedObjective
	planErr error

	// search and critique receive the 0-based call count for the title.
	search   func(ctx context.Context, req SearchRequest, call int) (SearchResult, error)
	critique func(title, findings string, call int) (CritiqueResult, error)

	designErr  error
	scriptErr  error
	scriptHook func()
	auditErr   error
	reportErr  error

	searchReqs       map[string][]SearchRequest
	critiqueCalls    map[string]int
	designCalls      map[string]int
	scriptCalls      map[string]int
	auditFindings    map[string]string
	reportObjectives []Objective
}

func newFakeText() *fakeText {
	return &fakeText{
		searchReqs:    make(map[string][]SearchRequest),
		critiqueCalls: make(map[string]int),
		designCalls:   make(map[string]int),
		scriptCalls:   make(map[string]int),
		auditFindings: make(map[string]string),
	}
}

func (f *fakeText) Plan(ctx context.Context, topic string) ([]PlannedObjective, error) {
	if f.planErr != nil {
		return nil, f.planErr
	}
	return f.plan, nil
}

func (f *fakeText) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	f.mu.Lock()
	call := len(f.searchReqs[req.Title])
	f.searchReqs[req.Title] = append(f.searchReqs[req.Title], req)
	hook := f.search
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx, req, call)
	}
	return SearchResult{
		Findings: fmt.Sprintf("findings for %s #%d", req.Title, call),
		Sources:  []Source{{Title: req.Title, URI: fmt.Sprintf("https://example.com/%s/%d", req.Title, call)}},
	}, nil
}

func (f *fakeText) Critique(ctx context.Context, title, findings string) (CritiqueResult, error) {
	f.mu.Lock()
	call := f.critiqueCalls[title]
	f.critiqueCalls[title]++
	hook := f.critique
	f.mu.Unlock()

	if hook != nil {
		return hook(title, findings, call)
	}
	return CritiqueResult{Sufficient: true, Feedback: "Looks complete."}, nil
}

func (f *fakeText) DesignSlide(ctx context.Context, req DesignRequest) (SlideDesign, error) {
	f.mu.Lock()
	f.designCalls[req.Title]++
	f.mu.Unlock()

	if f.designErr != nil {
		return SlideDesign{}, f.designErr
	}
	return SlideDesign{
		Title:        req.Title,
		Points:       []string{"point one", "point two"},
		VisualPrompt: "visual for " + req.Title,
		Layout:       LayoutSplitLeft,
	}, nil
}

func (f *fakeText) WriteScript(ctx context.Context, design SlideDesign, persona string) (string, error) {
	f.mu.Lock()
	f.scriptCalls[design.Title]++
	hook := f.scriptHook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if f.scriptErr != nil {
		return "", f.scriptErr
	}
	return "script for " + design.Title, nil
}

func (f *fakeText) AuditScript(ctx context.Context, script, findings string) (QualityAudit, error) {
	f.mu.Lock()
	f.auditFindings[script] = findings
	f.mu.Unlock()

	if f.auditErr != nil {
		return QualityAudit{}, f.auditErr
	}
	return QualityAudit{AuthenticityScore: 92, HallucinationRisk: RiskLow, Critique: "grounded"}, nil
}

func (f *fakeText) WriteReport(ctx context.Context, topic string, objectives []Objective) (Report, error) {
	f.mu.Lock()
	f.reportObjectives = objectives
	f.mu.Unlock()

	if f.reportErr != nil {
		return Report{}, f.reportErr
	}
	return Report{
		Summary:          "summary of " + topic,
		DetailedAnalysis: "analysis",
		KeyFindings:      []string{"k1"},
		DataPoints:       []DataPoint{{Label: "share", Value: 42}},
		// The runner replaces these with the objectives' sources.
		Sources: []Source{{Title: "model-invented", URI: "https://invalid"}},
	}, nil
}

func (f *fakeText) searches(title string) []SearchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SearchRequest(nil), f.searchReqs[title]...)
}

func (f *fakeText) designs(title string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.designCalls[title]
}

type fakeImage struct {
	mu    sync.Mutex
	url   string
	err   error
	hook  func()
	calls int
}

func (f *fakeImage) GenerateImage(ctx context.Context, visualPrompt, persona string) (string, error) {
	f.mu.Lock()
	f.calls++
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if f.err != nil {
		return "", f.err
	}
	if f.url != "" {
		return f.url, nil
	}
	return "data:image/png;base64,aW1n", nil
}

// sleepRecorder replaces the quota backoff wait.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func newTestRunner(text TextModel, image ImageModel, opts ...Option) (*Runner, *sleepRecorder) {
	rec := &sleepRecorder{}
	opts = append([]Option{WithLogger(log.NoOpLogger{})}, opts...)
	r := NewRunner(text, image, opts...)
	r.opts.sleep = rec.sleep
	return r, rec
}

func plannedTitles(titles ...string) []PlannedObjective {
	out := make([]PlannedObjective, len(titles))
	for i, t := range titles {
		out[i] = PlannedObjective{ID: fmt.Sprintf("obj-%d", i+1), Title: t, ResearchPlan: "plan " + t}
	}
	return out
}

func singleObjectiveBoard(r *Runner, title string) *Board {
	return r.NewBoard([]Objective{{ID: "o1", Title: title, Status: StatusPending}})
}
