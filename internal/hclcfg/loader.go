// Package hclcfg loads workflow documents written in HCL, the engine's
// primary configuration format. Trigger guards and step templates stay
// unevaluated hcl.Expressions in the model; the trigger evaluator and step
// executor own evaluation against explicit contexts.
package hclcfg

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// Loader implements loader.FileLoader for .hcl documents.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a Loader with a fresh HCL parser.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Extensions implements loader.FileLoader.
func (l *Loader) Extensions() []string {
	return []string{".hcl"}
}

// LoadFile parses one HCL workflow document into job specs.
func (l *Loader) LoadFile(ctx context.Context, path string) ([]*model.JobSpec, error) {
	logger := ctxlog.FromContext(ctx)

	file, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, &model.ConfigError{Reason: fmt.Sprintf("parsing %s: %s", path, diags.Error())}
	}

	var wfFile workflowFile
	if diags := gohcl.DecodeBody(file.Body, nil, &wfFile); diags.HasErrors() {
		return nil, &model.ConfigError{Reason: fmt.Sprintf("decoding %s: %s", path, diags.Error())}
	}

	jobs := make([]*model.JobSpec, 0, len(wfFile.Jobs))
	for _, block := range wfFile.Jobs {
		job, err := translateJob(ctx, block)
		if err != nil {
			return nil, err
		}
		logger.Debug("Loaded job from HCL.", "job", job.Name, "file", path)
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func translateJob(ctx context.Context, block *jobBlock) (*model.JobSpec, error) {
	logger := ctxlog.FromContext(ctx)

	warnUnknownAttributes(ctx, block.Name, block.Remain)

	job := &model.JobSpec{
		Name:     block.Name,
		FailFast: true,
		Needs:    block.Needs,
	}
	// gohcl materializes absent optional expressions as null literals, so
	// presence is checked on the expression, not on nil.
	if !exprIsAbsent(block.If) {
		job.If = block.If
	}
	if block.FailFast != nil {
		job.FailFast = *block.FailFast
	}

	for _, raw := range block.On {
		kind, err := model.ParseEventKind(raw)
		if err != nil {
			return nil, &model.ConfigError{Job: block.Name, Field: "on", Reason: err.Error()}
		}
		job.On = append(job.On, kind)
	}

	if !exprIsAbsent(block.Env) {
		env, err := exprMap(block.Env)
		if err != nil {
			return nil, &model.ConfigError{Job: block.Name, Field: "env", Reason: err.Error()}
		}
		job.Env = env
	}

	if block.Matrix != nil {
		axes, err := translateMatrix(block.Name, block.Matrix)
		if err != nil {
			return nil, err
		}
		job.Matrix = axes
	}

	for _, sb := range block.Steps {
		step, err := translateStep(ctx, block.Name, sb)
		if err != nil {
			return nil, err
		}
		job.Steps = append(job.Steps, step)
	}

	if len(job.Steps) == 0 {
		logger.Warn("Job has no steps.", "job", job.Name)
	}
	return job, nil
}

// translateMatrix recovers the axes in declaration order by sorting the
// block's attributes on their source byte offsets. Deterministic axis order
// is what makes instance expansion reproducible.
func translateMatrix(jobName string, block *matrixBlock) ([]model.MatrixAxis, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, &model.ConfigError{Job: jobName, Field: "matrix", Reason: diags.Error()}
	}

	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		ordered = append(ordered, attr)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Range.Start.Byte < ordered[j].Range.Start.Byte
	})

	axes := make([]model.MatrixAxis, 0, len(ordered))
	for _, attr := range ordered {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, &model.ConfigError{Job: jobName, Field: "matrix." + attr.Name, Reason: "matrix values must be literal: " + diags.Error()}
		}
		if !val.CanIterateElements() {
			return nil, &model.ConfigError{Job: jobName, Field: "matrix." + attr.Name, Reason: "matrix axis must be a list of values"}
		}
		axis := model.MatrixAxis{Name: attr.Name}
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			axis.Values = append(axis.Values, elem)
		}
		axes = append(axes, axis)
	}
	return axes, nil
}

func translateStep(ctx context.Context, jobName string, block *stepBlock) (*model.StepSpec, error) {
	warnUnknownAttributes(ctx, jobName, block.Remain)

	step := &model.StepSpec{Name: block.Name}

	runSet := !exprIsAbsent(block.Run)
	switch {
	case runSet && block.Uses != "":
		return nil, &model.ConfigError{Job: jobName, Field: "step " + block.Name, Reason: "step declares both run and uses"}
	case runSet:
		step.Kind = model.StepRun
		step.Command = block.Run
	case block.Uses != "":
		step.Kind = model.StepUses
		step.ActionRef = block.Uses
	default:
		return nil, &model.ConfigError{Job: jobName, Field: "step " + block.Name, Reason: "step must declare either run or uses"}
	}

	if block.With != nil && !exprIsAbsent(block.With) {
		with, err := exprMap(block.With)
		if err != nil {
			return nil, &model.ConfigError{Job: jobName, Field: "step " + block.Name + ".with", Reason: err.Error()}
		}
		step.With = with
	}
	if block.Env != nil && !exprIsAbsent(block.Env) {
		env, err := exprMap(block.Env)
		if err != nil {
			return nil, &model.ConfigError{Job: jobName, Field: "step " + block.Name + ".env", Reason: err.Error()}
		}
		step.Env = env
	}
	return step, nil
}

// exprMap splits an object-constructor expression into its key/value pairs,
// keeping the values unevaluated.
func exprMap(expr hcl.Expression) (map[string]hcl.Expression, error) {
	pairs, diags := hcl.ExprMap(expr)
	if diags.HasErrors() {
		return nil, fmt.Errorf("expected a map of values: %s", diags.Error())
	}
	out := make(map[string]hcl.Expression, len(pairs))
	for _, pair := range pairs {
		keyVal, diags := pair.Key.Value(nil)
		if diags.HasErrors() || !keyVal.Type().Equals(cty.String) {
			return nil, fmt.Errorf("map keys must be static strings")
		}
		out[keyVal.AsString()] = pair.Value
	}
	return out, nil
}

// exprIsAbsent reports whether an optional expression attribute was left
// out of the document. gohcl represents an absent attribute as a literal
// null expression rather than a nil interface.
func exprIsAbsent(expr hcl.Expression) bool {
	if expr == nil {
		return true
	}
	if len(expr.Variables()) > 0 {
		return false
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return false
	}
	return val.IsNull()
}

// warnUnknownAttributes logs (but does not reject) attributes the schema
// does not recognize. Missing required fields are hard errors elsewhere;
// extra fields only warn.
func warnUnknownAttributes(ctx context.Context, jobName string, remain hcl.Body) {
	if remain == nil {
		return
	}
	logger := ctxlog.FromContext(ctx)
	attrs, _ := remain.JustAttributes()
	for name := range attrs {
		logger.Warn("Ignoring unknown attribute.", "job", jobName, "attribute", name)
	}
}
