package scheduler

import (
	"context"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/model"
)

// worker is the core processing loop for a single concurrent worker.
func (r *run) worker(ctx context.Context, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for inst := range r.readyChan {
		workerLogger := logger.With("workerID", workerID, "instance", inst.inst.ID())

		if ctx.Err() != nil {
			if inst.state.CompareAndSwap(statePending, stateCancelled) {
				workerLogger.Warn("Run cancelled, not starting instance.")
				inst.result = &model.JobResult{Status: model.StatusCancelled}
				r.finish(ctx, inst)
			}
			continue
		}

		// A fail-fast sibling may have skipped this instance while it sat
		// in the queue; that transition already did the accounting.
		if !inst.state.CompareAndSwap(statePending, stateRunning) {
			continue
		}

		workerLogger.Debug("Worker picked up instance for execution.")
		result := r.execute(ctx, inst)
		inst.result = result

		switch result.Status {
		case model.StatusSuccess:
			inst.state.Store(stateSuccess)
		case model.StatusCancelled:
			inst.state.Store(stateCancelled)
		default:
			workerLogger.Error("Instance failed.")
			inst.state.Store(stateFailure)
			inst.group.failed.Store(true)
			if inst.group.spec.FailFast {
				r.skipSiblings(ctx, inst)
			}
		}

		r.finish(ctx, inst)
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// execute prepares the instance workspace and runs its steps. A workspace
// or env-evaluation problem is an infrastructure failure local to this
// instance, never retried here.
func (r *run) execute(ctx context.Context, inst *instance) *model.JobResult {
	ec, err := r.execContext(ctx, inst)
	if err != nil {
		return &model.JobResult{
			Status: model.StatusFailure,
			Steps: []model.StepResult{{
				Name:     "prepare-workspace",
				Status:   model.StatusFailure,
				ExitCode: 1,
				Stderr:   err.Error(),
			}},
		}
	}
	return r.sched.runner.Run(ctx, inst.inst, ec)
}

// finish records a terminal instance exactly once and finalizes the group
// when its last instance lands.
func (r *run) finish(ctx context.Context, inst *instance) {
	if inst.group.remaining.Add(-1) == 0 {
		r.jobDone(ctx, inst.group)
	}
	r.wg.Done()
}

// skipSiblings transitions the not-yet-started members of a fail-fast
// matrix group to skipped. Running siblings are left alone: fail-fast
// never interrupts an instance mid-flight.
func (r *run) skipSiblings(ctx context.Context, failed *instance) {
	logger := ctxlog.FromContext(ctx)
	for _, sibling := range failed.group.instances {
		if sibling == failed {
			continue
		}
		if sibling.state.CompareAndSwap(statePending, stateSkipped) {
			logger.Warn("Skipping matrix sibling after failure.", "instance", sibling.inst.ID(), "failed", failed.inst.ID())
			sibling.result = &model.JobResult{Status: model.StatusSkipped}
			r.finish(ctx, sibling)
		}
	}
}

// skipGroup resolves every pending instance of a group to skipped, used
// when a dependency failed or was never eligible.
func (r *run) skipGroup(ctx context.Context, group *jobGroup) {
	group.skipOnce.Do(func() {
		logger := ctxlog.FromContext(ctx)
		logger.Warn("Skipping job, dependency did not succeed.", "job", group.spec.Name)
		for _, inst := range group.instances {
			if inst.state.CompareAndSwap(statePending, stateSkipped) {
				inst.result = &model.JobResult{Status: model.StatusSkipped}
				r.finish(ctx, inst)
			}
		}
	})
}

// jobDone runs once per group, when its last instance reaches a terminal
// state. Success releases dependents; anything else skips them.
func (r *run) jobDone(ctx context.Context, group *jobGroup) {
	logger := ctxlog.FromContext(ctx)

	group.outcome = groupOutcome(group)
	logger.Info("Job finished.", "job", group.spec.Name, "status", string(group.outcome))

	dependents, err := r.graph.Dependents(group.spec.Name)
	if err != nil {
		logger.Error("Failed to get dependents for finished job.", "job", group.spec.Name, "error", err)
		return
	}

	if group.outcome == model.StatusSuccess {
		for _, depName := range dependents {
			dep, ok := r.groups[depName]
			if !ok {
				continue // dependent not eligible for this event
			}
			if dep.needsLeft.Add(-1) == 0 {
				logger.Debug("Unlocking dependent job.", "job", depName)
				r.enqueueGroup(dep)
			}
		}
		return
	}

	for _, depName := range dependents {
		if dep, ok := r.groups[depName]; ok {
			r.skipGroup(ctx, dep)
		}
	}
}

// groupOutcome folds instance states into the group's terminal status.
func groupOutcome(group *jobGroup) model.Status {
	if group.failed.Load() {
		return model.StatusFailure
	}
	anySuccess := false
	anyCancelled := false
	for _, inst := range group.instances {
		switch inst.state.Load() {
		case stateCancelled:
			anyCancelled = true
		case stateSuccess:
			anySuccess = true
		}
	}
	switch {
	case anyCancelled:
		return model.StatusCancelled
	case anySuccess:
		return model.StatusSuccess
	default:
		return model.StatusSkipped
	}
}
