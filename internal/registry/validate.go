package registry

import (
	"fmt"
	"strings"

	"github.com/vk/flowgridgo/internal/model"
)

// ValidateWorkflow performs a strict parity check between the workflow's
// `uses` references and the registered actions, before anything runs. A
// dangling reference fails the whole load, not the step at runtime.
func (r *Registry) ValidateWorkflow(wf *model.Workflow) error {
	var errs []string
	for _, job := range wf.Jobs {
		for _, st := range job.Steps {
			if st.Kind != model.StepUses {
				continue
			}
			if _, ok := r.actions[st.ActionRef]; !ok {
				errs = append(errs, fmt.Sprintf("job '%s': step '%s' uses unregistered action '%s'", job.Name, st.Name, st.ActionRef))
			}
		}
	}
	if len(errs) > 0 {
		return &model.ConfigError{Reason: "action validation failed:\n- " + strings.Join(errs, "\n- ")}
	}
	return nil
}
