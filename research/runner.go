package research

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/smallnest/researchdeck/graph"
	"golang.org/x/sync/errgroup"
)

// Runner executes the research pipeline against a text model and an
// optional image model.
type Runner struct {
	text  TextModel
	image ImageModel
	opts  options

	loopOnce sync.Once
	loopRun  *graph.StateRunnable[loopState]
	loopErr  error
}

// NewRunner creates a Runner. image may be nil, in which case slides carry no
// background image.
func NewRunner(text TextModel, image ImageModel, opts ...Option) *Runner {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Runner{text: text, image: image, opts: o}
}

func (r *Runner) loop() (*graph.StateRunnable[loopState], error) {
	r.loopOnce.Do(func() {
		r.loopRun, r.loopErr = r.buildLoop()
	})
	return r.loopRun, r.loopErr
}

// NewBoard creates a board for objectives with the runner's observers attached.
func (r *Runner) NewBoard(objectives []Objective) *Board {
	return NewBoard(objectives, r.opts.observers...)
}

// Plan asks the planner for objectives and normalizes them: at most
// MaxObjectives, every objective pending with a unique id.
func (r *Runner) Plan(ctx context.Context, topic string) ([]Objective, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: empty topic", ErrInvalidInput)
	}

	planned, err := r.text.Plan(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlanning, err)
	}

	seen := make(map[string]bool)
	objectives := make([]Objective, 0, min(len(planned), MaxObjectives))
	for _, p := range planned {
		if len(objectives) == MaxObjectives {
			break
		}
		title := strings.TrimSpace(p.Title)
		if title == "" {
			continue
		}
		id := strings.TrimSpace(p.ID)
		if id == "" || seen[id] {
			id = uuid.NewString()
		}
		seen[id] = true
		objectives = append(objectives, Objective{
			ID:           id,
			Title:        title,
			ResearchPlan: strings.TrimSpace(p.ResearchPlan),
			Status:       StatusPending,
		})
	}
	if len(objectives) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrPlanning, ErrEmptyPlan)
	}

	r.opts.logger.Info("planned %d objectives for %q", len(objectives), topic)
	return objectives, nil
}

// InvestigateAll investigates every objective on board in order, or up to the
// configured concurrency at once. Per-objective failures are recorded as
// error statuses; only cancellation of ctx is returned.
func (r *Runner) InvestigateAll(ctx context.Context, board *Board) error {
	objectives := board.Snapshot()

	if r.opts.concurrency <= 1 {
		for _, o := range objectives {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := r.Investigate(ctx, board, o.ID); err != nil {
				r.opts.logger.Warn("objective %s ended in error: %v", o.ID, err)
			}
		}
		return ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.concurrency)
	for _, o := range objectives {
		id := o.ID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := r.Investigate(gctx, board, id); err != nil {
				r.opts.logger.Warn("objective %s ended in error: %v", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Run executes the full pipeline for topic: plan, investigate every
// objective, then synthesize the report. Planning and report failures abort
// the run.
func (r *Runner) Run(ctx context.Context, topic string) (*Project, error) {
	objectives, err := r.Plan(ctx, topic)
	if err != nil {
		return nil, err
	}

	board := r.NewBoard(objectives)
	if err := r.InvestigateAll(ctx, board); err != nil {
		return nil, err
	}

	final := board.Snapshot()
	report, err := r.SynthesizeReport(ctx, topic, final)
	if err != nil {
		return nil, err
	}

	now := r.opts.now()
	return &Project{
		ID:         uuid.NewString(),
		Topic:      strings.TrimSpace(topic),
		CreatedAt:  now,
		UpdatedAt:  now,
		Objectives: final,
		Report:     report,
	}, nil
}

// GenerateSlides skips planning and investigation: each slide becomes a
// completed objective whose assets are synthesized from the given findings.
func (r *Runner) GenerateSlides(ctx context.Context, topic string, slides []SlideInput) (*Project, error) {
	if len(slides) == 0 {
		return nil, fmt.Errorf("%w: no slides", ErrInvalidInput)
	}

	objectives := make([]Objective, 0, len(slides))
	for i, s := range slides {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: slide %d has no title", ErrInvalidInput, i+1)
		}
		objectives = append(objectives, Objective{
			ID:       uuid.NewString(),
			Title:    title,
			Status:   StatusCompleted,
			Findings: s.Findings,
		})
	}
	if strings.TrimSpace(topic) == "" {
		topic = objectives[0].Title
	}

	board := r.NewBoard(objectives)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.concurrency)
	for _, o := range objectives {
		obj := o
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			assets, err := r.synthesize(gctx, obj, r.boardNote(board, obj.ID))
			if err != nil {
				r.opts.logger.Warn("asset synthesis degraded for slide %q: %v", obj.Title, err)
			}
			_, uerr := board.Update(obj.ID, func(o *Objective) {
				o.applyAssets(assets)
			})
			return uerr
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := r.opts.now()
	return &Project{
		ID:         uuid.NewString(),
		Topic:      strings.TrimSpace(topic),
		CreatedAt:  now,
		UpdatedAt:  now,
		Objectives: board.Snapshot(),
	}, nil
}
