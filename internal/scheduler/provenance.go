package scheduler

import (
	"fmt"
	"sort"

	"github.com/vk/flowgridgo/internal/dag"
	"github.com/vk/flowgridgo/internal/model"
	"github.com/vk/flowgridgo/internal/wfexpr"
)

// uploadActionRef is the built-in publishing action the static provenance
// check recognizes. The check only inspects declared literal names; it
// never runs the action.
const uploadActionRef = "upload_artifact"

// checkArtifactProvenance rejects workflows where two jobs publish the
// same artifact name without an ordering dependency between them. With no
// ordering, which publish wins would depend on scheduling — ambiguous
// provenance is a configuration error, not last-write-wins.
//
// Only names given as literals can be resolved statically; a name computed
// from matrix or event values falls back to the store's runtime per-name
// exclusive publish.
func checkArtifactProvenance(wf *model.Workflow, graph *dag.Graph) error {
	producers := make(map[string][]string)
	for _, job := range wf.Jobs {
		seen := make(map[string]bool)
		for _, st := range job.Steps {
			if st.Kind != model.StepUses || st.ActionRef != uploadActionRef {
				continue
			}
			name, ok := wfexpr.StaticString(st.With["name"])
			if !ok || seen[name] {
				continue
			}
			seen[name] = true
			producers[name] = append(producers[name], job.Name)
		}
	}

	names := make([]string, 0, len(producers))
	for name := range producers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		jobs := producers[name]
		for i := 0; i < len(jobs); i++ {
			for j := i + 1; j < len(jobs); j++ {
				if graph.Reachable(jobs[i], jobs[j]) || graph.Reachable(jobs[j], jobs[i]) {
					continue
				}
				return &model.ConfigError{
					Field: "artifact " + name,
					Reason: fmt.Sprintf("jobs %q and %q both publish artifact %q with no ordering dependency between them",
						jobs[i], jobs[j], name),
				}
			}
		}
	}
	return nil
}
