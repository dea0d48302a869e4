// Package setup_runtime provides the 'setup_runtime' action, which makes a
// named runtime version available to the remaining steps of the instance.
package setup_runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the action with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("setup_runtime", &action{})
}

type action struct{}

// Invoke records the requested runtime in the instance environment. Later
// steps observe it through FLOWGRID_RUNTIME and FLOWGRID_RUNTIME_VERSION.
// Installing toolchains is out of scope; the action trusts the host to
// already carry the runtime it names.
func (a *action) Invoke(ctx context.Context, req *registry.Request) (*registry.Response, error) {
	logger := ctxlog.FromContext(ctx)

	runtime := strings.TrimSpace(req.Input("runtime", ""))
	if runtime == "" {
		return nil, fmt.Errorf("setup_runtime requires a 'runtime' input")
	}
	version := strings.TrimSpace(req.Input("version", ""))
	if version == "" {
		return nil, fmt.Errorf("setup_runtime requires a 'version' input")
	}

	logger.Debug("Runtime configured for instance.", "runtime", runtime, "version", version)

	return &registry.Response{
		Outputs: map[string]string{
			"runtime": runtime,
			"version": version,
		},
		Env: map[string]string{
			"FLOWGRID_RUNTIME":         runtime,
			"FLOWGRID_RUNTIME_VERSION": version,
		},
		Stdout: fmt.Sprintf("configured %s %s\n", runtime, version),
	}, nil
}
