package research

import (
	"context"
	"fmt"
)

// Regenerate reruns asset synthesis for a completed objective against its
// current findings. The four asset fields are cleared first and published, so
// observers can tell regeneration is in progress. On success they are replaced
// together; on failure they stay empty rather than reverting to the old ones.
func (r *Runner) Regenerate(ctx context.Context, board *Board, id string) (Objective, error) {
	obj, ok := board.Get(id)
	if !ok {
		return Objective{}, fmt.Errorf("%w: %s", ErrObjectiveNotFound, id)
	}
	if obj.Status != StatusCompleted {
		return obj, fmt.Errorf("%w: %s is %s", ErrObjectiveNotCompleted, id, obj.Status)
	}

	obj, err := board.Update(id, func(o *Objective) {
		o.clearAssets()
		o.log(RolePresenter, r.opts.now(), "RE-DESIGNING: Crafting new narrative structure...")
	})
	if err != nil {
		return obj, err
	}

	r.opts.logger.Info("regenerating assets for objective %s", id)
	assets, aerr := r.synthesize(ctx, obj, r.boardNote(board, id))
	if aerr != nil {
		r.opts.logger.Error("regeneration failed for objective %s: %v", id, aerr)
		failed, err := board.Update(id, func(o *Objective) {
			o.clearAssets()
			o.log(RolePresenter, r.opts.now(), "CRITICAL: Regeneration failed. Check quotas.")
		})
		if err != nil {
			return failed, err
		}
		return failed, aerr
	}

	return board.Update(id, func(o *Objective) {
		o.applyAssets(assets)
		o.log(RolePresenter, r.opts.now(), "RE-DESIGN COMPLETE: All assets updated.")
	})
}

// RegenerateProject regenerates one objective of a stored project and writes
// the resulting objective list back into p.
func (r *Runner) RegenerateProject(ctx context.Context, p *Project, id string) (Objective, error) {
	board := r.NewBoard(p.Objectives)
	obj, err := r.Regenerate(ctx, board, id)
	p.Objectives = board.Snapshot()
	p.UpdatedAt = r.opts.now()
	return obj, err
}
