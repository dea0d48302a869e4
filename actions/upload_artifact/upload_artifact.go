// Package upload_artifact provides the 'upload_artifact' action, which
// publishes files from the instance workspace into the run's artifact store.
package upload_artifact

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the action with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("upload_artifact", &action{})
}

type action struct{}

// Invoke publishes the files matching the 'path' glob (relative to the
// working directory) under the 'name' input. A glob matching no files fails
// the step; a later attempt never observes a half-written artifact.
func (a *action) Invoke(ctx context.Context, req *registry.Request) (*registry.Response, error) {
	logger := ctxlog.FromContext(ctx)

	name := strings.TrimSpace(req.Input("name", ""))
	if name == "" {
		return nil, fmt.Errorf("upload_artifact requires a 'name' input")
	}
	pattern := strings.TrimSpace(req.Input("path", ""))
	if pattern == "" {
		return nil, fmt.Errorf("upload_artifact requires a 'path' input")
	}
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(req.WorkDir, pattern)
	}

	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad path pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files matched pattern %q for artifact %q", req.Input("path", ""), name)
	}

	handle, err := req.Artifacts.Publish(ctx, name, req.InstanceID, files)
	if err != nil {
		return nil, err
	}
	logger.Debug("Artifact uploaded.", "name", name, "files", len(handle.Files))

	return &registry.Response{
		Outputs:   map[string]string{"name": name},
		Published: []string{name},
		Stdout:    fmt.Sprintf("published artifact %q (%d files)\n", name, len(handle.Files)),
	}, nil
}
