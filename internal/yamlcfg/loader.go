// Package yamlcfg loads workflow documents written as YAML
// mapping-of-mappings, the format hosted CI systems use. The documents
// translate into the same model the HCL loader produces: condition strings
// become parsed HCL expressions and plain strings become templates, so
// `${matrix.os}` interpolation behaves identically in both formats.
package yamlcfg

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/model"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Loader implements loader.FileLoader for .yml/.yaml documents.
type Loader struct{}

// NewLoader creates a YAML workflow loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions implements loader.FileLoader.
func (l *Loader) Extensions() []string {
	return []string{".yml", ".yaml"}
}

// LoadFile parses one YAML workflow document into job specs. Unknown keys
// are warnings; missing required keys are configuration errors.
func (l *Loader) LoadFile(ctx context.Context, path string) ([]*model.JobSpec, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.ConfigError{Reason: fmt.Sprintf("reading %s: %v", path, err)}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, &model.ConfigError{Reason: fmt.Sprintf("parsing %s: %v", path, err)}
	}
	if len(doc.Content) == 0 {
		return nil, &model.ConfigError{Reason: fmt.Sprintf("%s: empty document", path)}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &model.ConfigError{Reason: fmt.Sprintf("%s: top level must be a mapping", path)}
	}

	t := &translator{ctx: ctx, path: path}
	var jobsNode *yaml.Node
	for i := 0; i < len(root.Content); i += 2 {
		key := root.Content[i].Value
		if key == "jobs" {
			jobsNode = root.Content[i+1]
			continue
		}
		t.warnUnknown("", key, root.Content[i])
	}
	if jobsNode == nil {
		return nil, &model.ConfigError{Reason: fmt.Sprintf("%s: missing required key \"jobs\"", path)}
	}
	if jobsNode.Kind != yaml.MappingNode {
		return nil, &model.ConfigError{Reason: fmt.Sprintf("%s: \"jobs\" must be a mapping of job names", path)}
	}

	var jobs []*model.JobSpec
	for i := 0; i < len(jobsNode.Content); i += 2 {
		name := jobsNode.Content[i].Value
		job, err := t.translateJob(name, jobsNode.Content[i+1])
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// translator holds per-file state so error messages can cite the document.
type translator struct {
	ctx  context.Context
	path string
}

func (t *translator) warnUnknown(jobName, key string, node *yaml.Node) {
	logger := ctxlog.FromContext(t.ctx)
	logger.Warn("Ignoring unknown key.", "file", t.path, "job", jobName, "key", key, "line", node.Line)
}

func (t *translator) translateJob(name string, node *yaml.Node) (*model.JobSpec, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &model.ConfigError{Job: name, Reason: "job definition must be a mapping"}
	}

	job := &model.JobSpec{Name: name, FailFast: true}

	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		var err error
		switch key {
		case "on":
			err = t.translateOn(job, val)
		case "if":
			job.If, err = t.parseCondition(val)
		case "fail-fast", "fail_fast":
			err = val.Decode(&job.FailFast)
		case "needs":
			err = val.Decode(&job.Needs)
		case "env":
			job.Env, err = t.templateMap(val)
		case "matrix":
			job.Matrix, err = t.translateMatrix(name, val)
		case "steps":
			err = t.translateSteps(job, val)
		default:
			t.warnUnknown(name, key, node.Content[i])
		}
		if err != nil {
			if model.IsConfigError(err) {
				return nil, err
			}
			return nil, &model.ConfigError{Job: name, Field: key, Reason: err.Error()}
		}
	}
	return job, nil
}

func (t *translator) translateOn(job *model.JobSpec, node *yaml.Node) error {
	var raw []string
	if node.Kind == yaml.ScalarNode {
		raw = []string{node.Value}
	} else if err := node.Decode(&raw); err != nil {
		return err
	}
	for _, s := range raw {
		kind, err := model.ParseEventKind(s)
		if err != nil {
			return err
		}
		job.On = append(job.On, kind)
	}
	return nil
}

func (t *translator) translateMatrix(jobName string, node *yaml.Node) ([]model.MatrixAxis, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &model.ConfigError{Job: jobName, Field: "matrix", Reason: "matrix must be a mapping of axes"}
	}
	// yaml.Node preserves source order, which fixes the axis order the
	// expander relies on.
	var axes []model.MatrixAxis
	for i := 0; i < len(node.Content); i += 2 {
		axisName, seq := node.Content[i].Value, node.Content[i+1]
		if seq.Kind != yaml.SequenceNode {
			return nil, &model.ConfigError{Job: jobName, Field: "matrix." + axisName, Reason: "matrix axis must be a sequence"}
		}
		axis := model.MatrixAxis{Name: axisName}
		for _, item := range seq.Content {
			val, err := scalarToCty(item)
			if err != nil {
				return nil, &model.ConfigError{Job: jobName, Field: "matrix." + axisName, Reason: err.Error()}
			}
			axis.Values = append(axis.Values, val)
		}
		axes = append(axes, axis)
	}
	return axes, nil
}

func (t *translator) translateSteps(job *model.JobSpec, node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("steps must be a sequence")
	}
	for idx, stepNode := range node.Content {
		if stepNode.Kind != yaml.MappingNode {
			return fmt.Errorf("step %d must be a mapping", idx)
		}
		step := &model.StepSpec{Name: fmt.Sprintf("step-%d", idx+1)}
		for i := 0; i < len(stepNode.Content); i += 2 {
			key, val := stepNode.Content[i].Value, stepNode.Content[i+1]
			var err error
			switch key {
			case "name":
				step.Name = val.Value
			case "run":
				step.Command, err = t.parseTemplate(val)
			case "uses":
				step.ActionRef = val.Value
			case "with":
				step.With, err = t.templateMap(val)
			case "env":
				step.Env, err = t.templateMap(val)
			default:
				t.warnUnknown(job.Name, key, stepNode.Content[i])
			}
			if err != nil {
				return fmt.Errorf("step %q, key %q: %w", step.Name, key, err)
			}
		}
		switch {
		case step.Command != nil && step.ActionRef != "":
			return fmt.Errorf("step %q declares both run and uses", step.Name)
		case step.Command != nil:
			step.Kind = model.StepRun
		case step.ActionRef != "":
			step.Kind = model.StepUses
		default:
			return fmt.Errorf("step %q must declare either run or uses", step.Name)
		}
		job.Steps = append(job.Steps, step)
	}
	return nil
}

// templateMap turns a YAML mapping of strings into named template
// expressions, so env and with values may interpolate event and matrix.
func (t *translator) templateMap(node *yaml.Node) (map[string]hcl.Expression, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping of string values")
	}
	out := make(map[string]hcl.Expression, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		expr, err := t.parseTemplate(val)
		if err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		out[key] = expr
	}
	return out, nil
}

// parseCondition parses a bare expression string such as
// `event.kind == "push"`.
func (t *translator) parseCondition(node *yaml.Node) (hcl.Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(node.Value), t.path, hcl.Pos{Line: node.Line, Column: node.Column})
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid condition expression: %s", diags.Error())
	}
	return expr, nil
}

// parseTemplate parses a string value as an HCL template, enabling
// `${...}` interpolation.
func (t *translator) parseTemplate(node *yaml.Node) (hcl.Expression, error) {
	expr, diags := hclsyntax.ParseTemplate([]byte(node.Value), t.path, hcl.Pos{Line: node.Line, Column: node.Column})
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid template: %s", diags.Error())
	}
	return expr, nil
}

// scalarToCty converts a YAML scalar into the cty value used for matrix
// axis entries.
func scalarToCty(node *yaml.Node) (cty.Value, error) {
	if node.Kind != yaml.ScalarNode {
		return cty.NilVal, fmt.Errorf("matrix values must be scalars")
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return cty.NilVal, err
	}
	switch tv := v.(type) {
	case string:
		return cty.StringVal(tv), nil
	case int:
		return cty.NumberIntVal(int64(tv)), nil
	case float64:
		return cty.NumberFloatVal(tv), nil
	case bool:
		return cty.BoolVal(tv), nil
	}
	return cty.StringVal(node.Value), nil
}
