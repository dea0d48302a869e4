package model

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// StepKind distinguishes a shell command step from an external action step.
type StepKind string

const (
	StepRun  StepKind = "run"
	StepUses StepKind = "uses"
)

// Workflow is the unified representation of one workflow document (or
// directory of documents): all jobs, keyed and ordered.
type Workflow struct {
	// Jobs preserves document order for deterministic scheduling output.
	Jobs []*JobSpec
}

// Job looks up a job by name. Returns nil if absent.
func (w *Workflow) Job(name string) *JobSpec {
	for _, j := range w.Jobs {
		if j.Name == name {
			return j
		}
	}
	return nil
}

// JobSpec describes one named job: when it runs, how it fans out, what it
// depends on, and the steps it executes.
type JobSpec struct {
	Name string

	// On lists the event kinds the job reacts to. Empty means every event.
	On []EventKind

	// If is an optional guard expression over the event record. Held
	// unevaluated; the trigger evaluator owns evaluation.
	If hcl.Expression

	// Matrix holds the fan-out axes in declaration order. Empty means the
	// job expands to exactly one instance.
	Matrix []MatrixAxis

	// FailFast controls whether a failing matrix sibling cancels the
	// not-yet-started rest of the group. Defaults to true at load time.
	FailFast bool

	// Needs names the jobs that must succeed before this one starts.
	Needs []string

	// Env is the job-level environment, values held as expressions so they
	// may interpolate event and matrix values.
	Env map[string]hcl.Expression

	Steps []*StepSpec
}

// MatrixAxis is one named axis of a job's matrix, values in declared order.
type MatrixAxis struct {
	Name   string
	Values []cty.Value
}

// StepSpec describes one step of a job: either a shell command or an
// invocation of a registered external action.
type StepSpec struct {
	Name string
	Kind StepKind

	// Command is the shell command template for StepRun steps.
	Command hcl.Expression

	// ActionRef names the registered action for StepUses steps. Resolution
	// happens at load time; the engine core never special-cases any action.
	ActionRef string

	// With holds the action inputs as expressions, keyed by input name.
	With map[string]hcl.Expression

	// Env is the step-level environment, overriding the job environment.
	Env map[string]hcl.Expression
}

// Assignment binds a job's matrix axes to one concrete value each, in axis
// declaration order. The zero-length assignment is the single expansion of
// a job without a matrix.
type Assignment []AxisValue

// AxisValue is one axis binding inside an Assignment.
type AxisValue struct {
	Axis  string
	Value cty.Value
}

// Key renders the assignment as a stable, human-readable identity such as
// "os=linux,python=3.11". Empty for the empty assignment.
func (a Assignment) Key() string {
	if len(a) == 0 {
		return ""
	}
	parts := make([]string, 0, len(a))
	for _, av := range a {
		parts = append(parts, fmt.Sprintf("%s=%s", av.Axis, ValueString(av.Value)))
	}
	return strings.Join(parts, ",")
}

// Values returns the assignment as a cty object for expression evaluation,
// or NilVal for the empty assignment.
func (a Assignment) Values() cty.Value {
	if len(a) == 0 {
		return cty.NilVal
	}
	vals := make(map[string]cty.Value, len(a))
	for _, av := range a {
		vals[av.Axis] = av.Value
	}
	return cty.ObjectVal(vals)
}

// JobInstance is a JobSpec bound to one concrete matrix assignment. Its
// identity is (job name, assignment key).
type JobInstance struct {
	Spec       *JobSpec
	Assignment Assignment
}

// ID renders the instance identity, e.g. `test (os=linux,python=3.11)`.
func (ji *JobInstance) ID() string {
	key := ji.Assignment.Key()
	if key == "" {
		return ji.Spec.Name
	}
	return fmt.Sprintf("%s (%s)", ji.Spec.Name, key)
}

// ValueString renders a primitive cty value the way it should appear in
// instance keys, logs, and environment variables.
func ValueString(v cty.Value) string {
	if v.IsNull() || !v.IsKnown() {
		return ""
	}
	switch v.Type() {
	case cty.String:
		return v.AsString()
	case cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	case cty.Number:
		return v.AsBigFloat().Text('f', -1)
	}
	return v.GoString()
}
