// Package download_artifact provides the 'download_artifact' action, which
// fetches a previously published artifact into the instance workspace.
package download_artifact

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/flowgridgo/internal/artifact"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the action with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("download_artifact", &action{})
}

type action struct{}

// Invoke fetches the artifact named by the 'name' input into the 'path'
// destination (relative to the working directory, default the working
// directory itself). A missing artifact fails the step.
func (a *action) Invoke(ctx context.Context, req *registry.Request) (*registry.Response, error) {
	logger := ctxlog.FromContext(ctx)

	name := strings.TrimSpace(req.Input("name", ""))
	if name == "" {
		return nil, fmt.Errorf("download_artifact requires a 'name' input")
	}
	dest := req.Input("path", ".")
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(req.WorkDir, dest)
	}

	files, err := req.Artifacts.Fetch(ctx, name, dest)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return nil, fmt.Errorf("artifact %q has not been published by any completed job", name)
		}
		return nil, err
	}
	logger.Debug("Artifact downloaded.", "name", name, "files", len(files), "dest", dest)

	return &registry.Response{
		Outputs: map[string]string{
			"name": name,
			"path": dest,
		},
		Stdout: fmt.Sprintf("fetched artifact %q (%d files)\n", name, len(files)),
	}, nil
}
