package loader

import (
	"fmt"

	"github.com/vk/flowgridgo/internal/model"
	"github.com/vk/flowgridgo/internal/wfexpr"
)

// Validate checks the structural rules every workflow must satisfy,
// regardless of the document format it was loaded from. All violations are
// ConfigErrors: they abort the run before any job starts.
func Validate(wf *model.Workflow) error {
	for _, job := range wf.Jobs {
		if err := validateJob(wf, job); err != nil {
			return err
		}
	}
	return nil
}

func validateJob(wf *model.Workflow, job *model.JobSpec) error {
	seenNeeds := make(map[string]bool, len(job.Needs))
	for _, need := range job.Needs {
		if need == job.Name {
			return &model.ConfigError{Job: job.Name, Field: "needs", Reason: "job cannot depend on itself"}
		}
		if wf.Job(need) == nil {
			return &model.ConfigError{Job: job.Name, Field: "needs", Reason: fmt.Sprintf("unknown job %q", need)}
		}
		if seenNeeds[need] {
			return &model.ConfigError{Job: job.Name, Field: "needs", Reason: fmt.Sprintf("duplicate needs entry %q", need)}
		}
		seenNeeds[need] = true
	}

	for _, axis := range job.Matrix {
		if len(axis.Values) == 0 {
			return &model.ConfigError{Job: job.Name, Field: "matrix." + axis.Name, Reason: "matrix axis has no values"}
		}
	}

	// Trigger guards see only the event; anything else referenced there is
	// a configuration error, not a silent false.
	if err := wfexpr.ValidateRoots(job.If, "event"); err != nil {
		return &model.ConfigError{Job: job.Name, Field: "if", Reason: err.Error()}
	}
	for name, expr := range job.Env {
		if err := wfexpr.ValidateRoots(expr, "event", "matrix"); err != nil {
			return &model.ConfigError{Job: job.Name, Field: "env." + name, Reason: err.Error()}
		}
	}

	for i, st := range job.Steps {
		if err := validateStep(job, i, st); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(job *model.JobSpec, idx int, st *model.StepSpec) error {
	field := fmt.Sprintf("step[%d]", idx)
	if st.Name != "" {
		field = fmt.Sprintf("step %q", st.Name)
	}

	switch st.Kind {
	case model.StepRun:
		if st.Command == nil {
			return &model.ConfigError{Job: job.Name, Field: field, Reason: "run step has no command"}
		}
		if st.ActionRef != "" {
			return &model.ConfigError{Job: job.Name, Field: field, Reason: "step declares both run and uses"}
		}
	case model.StepUses:
		if st.ActionRef == "" {
			return &model.ConfigError{Job: job.Name, Field: field, Reason: "uses step has no action reference"}
		}
	default:
		return &model.ConfigError{Job: job.Name, Field: field, Reason: "step must declare either run or uses"}
	}

	if err := wfexpr.ValidateRoots(st.Command, "event", "matrix"); err != nil {
		return &model.ConfigError{Job: job.Name, Field: field + ".run", Reason: err.Error()}
	}
	for name, expr := range st.With {
		if err := wfexpr.ValidateRoots(expr, "event", "matrix"); err != nil {
			return &model.ConfigError{Job: job.Name, Field: fmt.Sprintf("%s.with.%s", field, name), Reason: err.Error()}
		}
	}
	for name, expr := range st.Env {
		if err := wfexpr.ValidateRoots(expr, "event", "matrix"); err != nil {
			return &model.ConfigError{Job: job.Name, Field: fmt.Sprintf("%s.env.%s", field, name), Reason: err.Error()}
		}
	}
	return nil
}
