// Package task provides the 'task' action, which runs a named task runner
// target inside the instance working directory.
package task

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the action with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("task", &action{})
}

type action struct{}

// Invoke shells out to the task runner named by the 'runner' input (default
// "task") with the 'name' input as its argument, inside the working
// directory with the instance environment.
func (a *action) Invoke(ctx context.Context, req *registry.Request) (*registry.Response, error) {
	logger := ctxlog.FromContext(ctx)

	name := strings.TrimSpace(req.Input("name", ""))
	if name == "" {
		return nil, fmt.Errorf("task requires a 'name' input")
	}
	runnerBin := req.Input("runner", "task")

	cmd := exec.CommandContext(ctx, runnerBin, name)
	cmd.Dir = req.WorkDir
	cmd.Env = flattenEnv(req.Env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Running task.", "runner", runnerBin, "task", name)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("task %q failed: %w\n%s", name, err, stderr.String())
	}

	return &registry.Response{
		Outputs: map[string]string{"task": name},
		Stdout:  stdout.String(),
	}, nil
}

func flattenEnv(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
