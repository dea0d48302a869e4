// Package step executes a single workflow step: either a shell command in
// the instance's working directory or an invocation of a registered
// external action. Side effects are confined to what the ExecContext
// grants; there is no ambient access to engine state.
package step

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/flowgridgo/internal/artifact"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/model"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/wfexpr"
)

// ExecContext is the capability set handed to one job instance's steps:
// its working directory, its environment, its expression scope, and the
// run's artifact store. Env is owned by the running instance and mutated
// only by its own sequential steps.
type ExecContext struct {
	InstanceID string
	WorkDir    string
	Env        map[string]string
	EvalCtx    *hcl.EvalContext
	Artifacts  *artifact.Store
}

// Executor runs steps against a registry of external actions.
type Executor struct {
	registry *registry.Registry
}

// NewExecutor creates a step executor.
func NewExecutor(reg *registry.Registry) *Executor {
	return &Executor{registry: reg}
}

// Execute runs one step and returns its result. Failures are reported in
// the result's status, never as a Go error: a failing step is a normal
// outcome for the engine.
func (e *Executor) Execute(ctx context.Context, st *model.StepSpec, ec *ExecContext) *model.StepResult {
	logger := ctxlog.FromContext(ctx).With("instance", ec.InstanceID, "step", st.Name)
	logger.Info("▶️ Starting step")

	result := &model.StepResult{Name: st.Name, Status: model.StatusRunning}

	env, err := e.stepEnv(st, ec)
	if err != nil {
		fail(result, 1, "evaluating step env: "+err.Error())
	} else {
		switch st.Kind {
		case model.StepRun:
			e.executeCommand(ctx, st, ec, env, result)
		case model.StepUses:
			e.executeAction(ctx, st, ec, env, result)
		}
	}

	if result.Status == model.StatusSuccess {
		logger.Info("✅ Finished step")
	} else {
		logger.Error("Step failed.", "exit_code", result.ExitCode, "stderr", result.Stderr)
	}
	return result
}

// executeCommand runs a shell command step via `sh -c` in the instance
// workspace.
func (e *Executor) executeCommand(ctx context.Context, st *model.StepSpec, ec *ExecContext, env map[string]string, result *model.StepResult) {
	logger := ctxlog.FromContext(ctx).With("instance", ec.InstanceID, "step", st.Name)
	command, err := wfexpr.EvalString(st.Command, ec.EvalCtx)
	if err != nil {
		fail(result, 1, "evaluating command: "+err.Error())
		return
	}
	logger.Debug("Running command.", "command", command)

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = ec.WorkDir
	cmd.Env = flattenEnv(env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if runErr == nil {
		result.Status = model.StatusSuccess
		result.ExitCode = 0
		return
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.Status = model.StatusFailure
		result.ExitCode = exitErr.ExitCode()
		return
	}
	fail(result, 1, runErr.Error())
}

// executeAction dispatches a uses-step to its registered collaborator.
func (e *Executor) executeAction(ctx context.Context, st *model.StepSpec, ec *ExecContext, env map[string]string, result *model.StepResult) {
	action, ok := e.registry.Resolve(st.ActionRef)
	if !ok {
		// Load-time validation makes this unreachable for workflows that
		// went through the loader; guard direct library use anyway.
		fail(result, 1, "unregistered action '"+st.ActionRef+"'")
		return
	}

	inputs, err := wfexpr.EvalStringMap(st.With, ec.EvalCtx)
	if err != nil {
		fail(result, 1, "evaluating action inputs: "+err.Error())
		return
	}

	resp, err := action.Invoke(ctx, &registry.Request{
		InstanceID: ec.InstanceID,
		WorkDir:    ec.WorkDir,
		Inputs:     inputs,
		Env:        env,
		Artifacts:  ec.Artifacts,
	})
	if err != nil {
		fail(result, 1, err.Error())
		return
	}

	result.Status = model.StatusSuccess
	result.ExitCode = 0
	if resp != nil {
		result.Stdout = resp.Stdout
		result.Published = resp.Published
		// Env contributed by an action persists for the remaining steps of
		// this instance only.
		for k, v := range resp.Env {
			ec.Env[k] = v
		}
	}
}

// stepEnv merges the instance environment with the step's own env block;
// the step level wins.
func (e *Executor) stepEnv(st *model.StepSpec, ec *ExecContext) (map[string]string, error) {
	merged := make(map[string]string, len(ec.Env)+len(st.Env))
	for k, v := range ec.Env {
		merged[k] = v
	}
	stepEnv, err := wfexpr.EvalStringMap(st.Env, ec.EvalCtx)
	if err != nil {
		return nil, err
	}
	for k, v := range stepEnv {
		merged[k] = v
	}
	return merged, nil
}

func fail(result *model.StepResult, code int, msg string) *model.StepResult {
	result.Status = model.StatusFailure
	result.ExitCode = code
	if result.Stderr == "" {
		result.Stderr = msg
	}
	return result
}

func flattenEnv(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
