// Package trigger decides which jobs of a workflow are eligible to run for
// an incoming event. Evaluation is a pure predicate over the event record:
// no side effects, no blocking, no ambient state.
package trigger

import (
	"context"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/model"
	"github.com/vk/flowgridgo/internal/wfexpr"
)

// EligibleJobs returns the jobs whose trigger conditions hold for the
// event, in workflow declaration order. A guard expression that references
// anything but the event, or fails to evaluate, is a configuration error —
// never a silent false.
func EligibleJobs(ctx context.Context, ev model.Event, wf *model.Workflow) ([]*model.JobSpec, error) {
	logger := ctxlog.FromContext(ctx)

	var eligible []*model.JobSpec
	for _, job := range wf.Jobs {
		ok, err := Eligible(ev, job)
		if err != nil {
			return nil, err
		}
		if ok {
			eligible = append(eligible, job)
		} else {
			logger.Debug("Job not eligible for event.", "job", job.Name, "event", ev.Kind)
		}
	}
	logger.Info("Trigger evaluation complete.", "eligible", len(eligible), "total", len(wf.Jobs))
	return eligible, nil
}

// Eligible evaluates one job's trigger condition against the event.
func Eligible(ev model.Event, job *model.JobSpec) (bool, error) {
	if len(job.On) > 0 && !kindListed(ev.Kind, job.On) {
		return false, nil
	}
	if job.If == nil {
		return true, nil
	}

	if err := wfexpr.ValidateRoots(job.If, "event"); err != nil {
		return false, &model.ConfigError{Job: job.Name, Field: "if", Reason: err.Error()}
	}
	ok, err := wfexpr.EvalBool(job.If, wfexpr.Context(ev, nil))
	if err != nil {
		return false, &model.ConfigError{Job: job.Name, Field: "if", Reason: err.Error()}
	}
	return ok, nil
}

func kindListed(kind model.EventKind, kinds []model.EventKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
