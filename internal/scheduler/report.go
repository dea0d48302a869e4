package scheduler

import (
	"context"

	"github.com/vk/flowgridgo/internal/model"
	"github.com/vk/flowgridgo/internal/report"
)

// buildReport summarizes the run after every instance reached a terminal
// state. Skipped instances never count against the run; cancellation
// outranks failure so an aborted run is not mistaken for a broken one.
func (r *run) buildReport(ctx context.Context) *report.RunReport {
	rep := &report.RunReport{
		RunID:     NewRunID(),
		Event:     r.event,
		Jobs:      make(map[string]*report.JobReport, len(r.workflow.Jobs)),
		Artifacts: r.artifacts.Handles(),
	}

	anyFailed := false
	for _, job := range r.workflow.Jobs {
		group, eligible := r.groups[job.Name]
		if !eligible {
			rep.Jobs[job.Name] = &report.JobReport{Eligible: false, Status: model.StatusSkipped}
			continue
		}

		jobReport := &report.JobReport{
			Eligible:  true,
			Status:    group.outcome,
			Instances: make(map[string]*report.InstanceReport, len(group.instances)),
		}
		for _, inst := range group.instances {
			ir := &report.InstanceReport{Status: stateStatus(inst.state.Load())}
			if inst.result != nil {
				ir.Steps = inst.result.Steps
			}
			jobReport.Instances[report.InstanceKey(inst.inst.Assignment)] = ir
			if ir.Status == model.StatusFailure {
				anyFailed = true
			}
		}
		rep.Jobs[job.Name] = jobReport
	}

	switch {
	case ctx.Err() != nil:
		rep.Status = model.StatusCancelled
	case anyFailed:
		rep.Status = model.StatusFailure
	default:
		rep.Status = model.StatusSuccess
	}
	return rep
}
