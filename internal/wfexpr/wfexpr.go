// Package wfexpr evaluates workflow expressions: trigger guards, step
// command templates, and env/with values. All evaluation happens against an
// explicit context built from the event record and the instance's matrix
// assignment; there is no ambient state to reference.
package wfexpr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/flowgridgo/internal/model"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// EventValue converts an event record into the cty object exposed to
// expressions as `event`.
func EventValue(ev model.Event) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"kind":     cty.StringVal(string(ev.Kind)),
		"branch":   cty.StringVal(ev.Branch),
		"head_sha": cty.StringVal(ev.HeadSHA),
	})
}

// Context builds the evaluation context for one job instance. The matrix
// variable is only present when the assignment is non-empty, so a stray
// `matrix.x` reference in a matrix-less job fails loudly instead of
// resolving to something arbitrary.
func Context(ev model.Event, assignment model.Assignment) *hcl.EvalContext {
	vars := map[string]cty.Value{
		"event": EventValue(ev),
	}
	if mv := assignment.Values(); mv != cty.NilVal {
		vars["matrix"] = mv
	}
	return &hcl.EvalContext{Variables: vars}
}

// ValidateRoots checks that every variable referenced by expr starts from
// one of the allowed root names. Referencing anything else is a
// configuration error, never a silent false.
func ValidateRoots(expr hcl.Expression, allowed ...string) error {
	if expr == nil {
		return nil
	}
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = struct{}{}
	}

	bad := make(map[string]struct{})
	for _, traversal := range expr.Variables() {
		root := traversal.RootName()
		if _, ok := allowedSet[root]; !ok {
			bad[root] = struct{}{}
		}
	}
	if len(bad) == 0 {
		return nil
	}

	names := make([]string, 0, len(bad))
	for name := range bad {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("unknown reference(s) %s (allowed: %s)",
		strings.Join(names, ", "), strings.Join(allowed, ", "))
}

// EvalBool evaluates expr to a boolean.
func EvalBool(expr hcl.Expression, evalCtx *hcl.EvalContext) (bool, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return false, fmt.Errorf("%s", diags.Error())
	}
	conv, err := convert.Convert(val, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("expression is not a boolean: %w", err)
	}
	if conv.IsNull() {
		return false, fmt.Errorf("expression evaluated to null")
	}
	return conv.True(), nil
}

// EvalString evaluates expr to a string.
func EvalString(expr hcl.Expression, evalCtx *hcl.EvalContext) (string, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", fmt.Errorf("%s", diags.Error())
	}
	conv, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("expression is not a string: %w", err)
	}
	if conv.IsNull() {
		return "", fmt.Errorf("expression evaluated to null")
	}
	return conv.AsString(), nil
}

// EvalStringMap evaluates a map of named expressions (env blocks, action
// inputs) to their string values.
func EvalStringMap(exprs map[string]hcl.Expression, evalCtx *hcl.EvalContext) (map[string]string, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(exprs))
	for name, expr := range exprs {
		s, err := EvalString(expr, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("value of %q: %w", name, err)
		}
		out[name] = s
	}
	return out, nil
}

// StaticString attempts to evaluate expr without any context. It returns
// the literal string and true only when the expression has no variable
// references, which is what the scheduler's static artifact-provenance
// check needs.
func StaticString(expr hcl.Expression) (string, bool) {
	if expr == nil || len(expr.Variables()) > 0 {
		return "", false
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() || val.IsNull() || !val.Type().Equals(cty.String) {
		return "", false
	}
	return val.AsString(), true
}
