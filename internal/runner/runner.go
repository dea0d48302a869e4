// Package runner executes the step sequence of one job instance. Steps run
// strictly in declared order; the first failing step stops the instance
// immediately and no step is ever retried here — retries, if any, are a
// whole-instance policy applied above the runner.
package runner

import (
	"context"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/model"
	"github.com/vk/flowgridgo/internal/step"
)

// Runner drives step executors for job instances.
type Runner struct {
	steps *step.Executor
}

// New creates a Runner on top of the given step executor.
func New(steps *step.Executor) *Runner {
	return &Runner{steps: steps}
}

// Run executes all steps of one instance and returns its JobResult. A
// cancelled context yields StatusCancelled rather than StatusFailure, so
// the scheduler can tell an aborted run from a broken one.
func (r *Runner) Run(ctx context.Context, inst *model.JobInstance, ec *step.ExecContext) *model.JobResult {
	logger := ctxlog.FromContext(ctx).With("instance", inst.ID())
	logger.Info("▶️ Starting job instance", "steps", len(inst.Spec.Steps))

	result := &model.JobResult{Status: model.StatusSuccess}
	for _, st := range inst.Spec.Steps {
		if ctx.Err() != nil {
			result.Status = model.StatusCancelled
			logger.Warn("Job instance cancelled.", "completed_steps", len(result.Steps))
			return result
		}

		stepResult := r.steps.Execute(ctx, st, ec)
		result.Steps = append(result.Steps, *stepResult)

		if stepResult.Status != model.StatusSuccess {
			if ctx.Err() != nil {
				result.Status = model.StatusCancelled
			} else {
				result.Status = model.StatusFailure
			}
			logger.Error("Job instance failed.", "failed_step", st.Name)
			return result
		}
	}

	logger.Info("✅ Finished job instance")
	return result
}
