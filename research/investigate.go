package research

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallnest/researchdeck/graph"
)

const (
	nodeSearch   = "search"
	nodeCritique = "critique"
	nodeRefine   = "refine"
	nodeRecover  = "recover"
	nodeFinalize = "finalize"
)

// loopState is the value threaded through the investigation graph. The board
// stays the source of truth; obj is the latest copy this loop published.
type loopState struct {
	board     *Board
	id        string
	iteration int
	obj       Objective
	verdict   CritiqueResult
	failure   error
	next      string
}

func (r *Runner) buildLoop() (*graph.StateRunnable[loopState], error) {
	g := graph.NewStateGraph[loopState]()

	g.AddNode(nodeSearch, "Grounded search pass for the objective", r.searchNode)
	g.AddNode(nodeCritique, "Quality critique of accumulated findings", r.critiqueNode)
	g.AddNode(nodeRefine, "Carry critique guidance into the next pass", r.refineNode)
	g.AddNode(nodeRecover, "Classify a failed capability call", r.recoverNode)
	g.AddNode(nodeFinalize, "Complete the objective and synthesize assets", r.finalizeNode)

	g.SetEntryPoint(nodeSearch)
	g.AddConditionalEdge(nodeSearch, func(_ context.Context, st loopState) string {
		if st.failure != nil {
			return nodeRecover
		}
		return nodeCritique
	})
	g.AddConditionalEdge(nodeCritique, func(_ context.Context, st loopState) string {
		switch {
		case st.failure != nil:
			return nodeRecover
		case st.verdict.Sufficient || st.iteration >= r.opts.maxIterations-1:
			return nodeFinalize
		default:
			return nodeRefine
		}
	})
	g.AddEdge(nodeRefine, nodeSearch)
	g.AddConditionalEdge(nodeRecover, func(_ context.Context, st loopState) string {
		return st.next
	})
	g.AddEdge(nodeFinalize, graph.END)

	// search and critique run once per iteration; recover and refine at most
	// once in between.
	g.SetMaxSteps(4*r.opts.maxIterations + 2)

	runnable, err := g.Compile()
	if err != nil {
		return nil, err
	}
	runnable.AddListener(graph.NewLoggingListener[loopState](r.opts.logger, "[investigate] "))
	return runnable, nil
}

// Investigate drives one objective on board from its current state to
// completed or error. Asset synthesis runs synchronously on completion. The
// returned error is the cause of an error status, or a context error.
func (r *Runner) Investigate(ctx context.Context, board *Board, id string) (Objective, error) {
	obj, ok := board.Get(id)
	if !ok {
		return Objective{}, fmt.Errorf("%w: %s", ErrObjectiveNotFound, id)
	}

	loop, err := r.loop()
	if err != nil {
		return obj, err
	}

	if r.opts.objectiveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.objectiveTimeout)
		defer cancel()
	}

	r.opts.logger.Info("investigating objective %s: %s", id, obj.Title)
	final, err := loop.Invoke(ctx, loopState{board: board, id: id, obj: obj})
	if err != nil {
		// The loop stopped before reaching a terminal status, e.g. on
		// cancellation. Record that instead of leaving the objective mid-flight.
		cause := err
		updated, uerr := board.Update(id, func(o *Objective) {
			if o.Status.Terminal() {
				return
			}
			o.Status = StatusError
			o.Iteration = r.capIteration(o.Iteration)
			o.log(RoleInvestigator, r.opts.now(), "Investigation aborted: %v", cause)
		})
		if uerr != nil {
			return final.obj, errors.Join(err, uerr)
		}
		return updated, err
	}

	if final.obj.Status == StatusError {
		return final.obj, final.failure
	}
	return final.obj, nil
}

func (r *Runner) searchNode(ctx context.Context, st loopState) (loopState, error) {
	k := st.iteration
	st.failure = nil

	var err error
	if k > 0 {
		st.obj, err = st.board.Update(st.id, func(o *Objective) {
			o.Status = StatusRefining
			o.Iteration = k
			o.log(RoleInvestigator, r.opts.now(), "Attempting refinement pass #%d...", k)
		})
		if err != nil {
			return st, err
		}
	}
	st.obj, err = st.board.Update(st.id, func(o *Objective) {
		o.Status = StatusSearching
		o.Iteration = k
		if k == 0 {
			o.log(RoleInvestigator, r.opts.now(), "Starting deep web investigation...")
		}
	})
	if err != nil {
		return st, err
	}

	req := SearchRequest{Title: st.obj.Title, Iteration: k}
	if k > 0 {
		req.Feedback = st.obj.Feedback
		req.PriorFindings = st.obj.Findings
	}

	res, err := r.text.Search(ctx, req)
	if err != nil {
		r.opts.logger.Warn("search failed for objective %s (iteration %d): %v", st.id, k, err)
		st.failure = err
		return st, nil
	}

	st.obj, err = st.board.Update(st.id, func(o *Objective) {
		if k > 0 && o.Findings != "" {
			o.Findings = fmt.Sprintf("%s\n\n[Refinement %d]:\n%s", o.Findings, k, res.Findings)
		} else {
			o.Findings = res.Findings
		}
		o.FindingsHistory = append(o.FindingsHistory, res.Findings)
		o.Sources = append(o.Sources, res.Sources...)
		o.log(RoleInvestigator, r.opts.now(), "Gathered %d sources.", len(res.Sources))
	})
	return st, err
}

func (r *Runner) critiqueNode(ctx context.Context, st loopState) (loopState, error) {
	var err error
	st.obj, err = st.board.Update(st.id, func(o *Objective) {
		o.Status = StatusCritiquing
		o.log(RoleCritic, r.opts.now(), "Auditing findings for quality...")
	})
	if err != nil {
		return st, err
	}

	verdict, cerr := r.text.Critique(ctx, st.obj.Title, st.obj.Findings)
	if cerr != nil {
		if r.opts.critiquePolicy == CritiqueFailureAccept {
			r.opts.logger.Warn("critique failed for objective %s, accepting findings: %v", st.id, cerr)
			verdict = CritiqueResult{Sufficient: true, Feedback: "Critique unavailable; accepting findings as gathered."}
		} else {
			r.opts.logger.Warn("critique failed for objective %s: %v", st.id, cerr)
			st.failure = cerr
			return st, nil
		}
	}

	st.verdict = verdict
	st.obj, err = st.board.Update(st.id, func(o *Objective) {
		o.log(RoleCritic, r.opts.now(), "%s", verdict.Feedback)
	})
	return st, err
}

func (r *Runner) refineNode(_ context.Context, st loopState) (loopState, error) {
	guidance := st.verdict.Guidance()
	st.iteration++
	var err error
	st.obj, err = st.board.Update(st.id, func(o *Objective) {
		o.Feedback = guidance
		o.log(RoleInvestigator, r.opts.now(), "Refining based on feedback...")
	})
	return st, err
}

func (r *Runner) recoverNode(ctx context.Context, st loopState) (loopState, error) {
	cause := st.failure
	quota := IsQuotaError(cause)

	switch {
	case quota && st.iteration+1 < r.opts.maxIterations:
		var err error
		st.obj, err = st.board.Update(st.id, func(o *Objective) {
			o.log(RoleInvestigator, r.opts.now(), "CRITICAL: Quota reached for text search. Retrying once after delay...")
		})
		if err != nil {
			return st, err
		}
		if err := r.opts.sleep(ctx, r.opts.quotaBackoff); err != nil {
			return st, err
		}
		st.iteration++
		st.failure = nil
		st.next = nodeSearch
		return st, nil

	case quota && len(st.obj.FindingsHistory) > 0:
		var err error
		st.obj, err = st.board.Update(st.id, func(o *Objective) {
			o.log(RoleInvestigator, r.opts.now(), "Quota reached with no refinement budget left. Finalizing with gathered findings.")
		})
		st.failure = nil
		st.next = nodeFinalize
		return st, err
	}

	var err error
	st.obj, err = st.board.Update(st.id, func(o *Objective) {
		o.Status = StatusError
		o.Iteration = r.capIteration(st.iteration)
		o.log(RoleInvestigator, r.opts.now(), "Investigation failed: %v", cause)
	})
	st.next = graph.END
	return st, err
}

func (r *Runner) finalizeNode(ctx context.Context, st loopState) (loopState, error) {
	var err error
	st.obj, err = st.board.Update(st.id, func(o *Objective) {
		o.Status = StatusCompleted
		o.Iteration = r.capIteration(st.iteration)
		o.log(RoleInvestigator, r.opts.now(), "Verification complete.")
	})
	if err != nil {
		return st, err
	}

	assets, aerr := r.synthesize(ctx, st.obj, r.boardNote(st.board, st.id))
	if aerr != nil {
		r.opts.logger.Warn("asset synthesis degraded for objective %s: %v", st.id, aerr)
	}

	st.obj, err = st.board.Update(st.id, func(o *Objective) {
		o.applyAssets(assets)
		if aerr != nil {
			o.log(RolePresenter, r.opts.now(), "[NOTICE] Asset synthesis limited. Using defaults.")
		}
		o.log(RolePresenter, r.opts.now(), "Process finalized. Node ready.")
	})
	return st, err
}

func (r *Runner) capIteration(k int) int {
	if k > r.opts.maxIterations-1 {
		return r.opts.maxIterations - 1
	}
	if k < 0 {
		return 0
	}
	return k
}

// boardNote returns a progress callback appending Presenter log lines to an
// objective on board.
func (r *Runner) boardNote(board *Board, id string) func(format string, v ...any) {
	return func(format string, v ...any) {
		_, _ = board.Update(id, func(o *Objective) {
			o.log(RolePresenter, r.opts.now(), format, v...)
		})
	}
}
