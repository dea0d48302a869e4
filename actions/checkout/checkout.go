// Package checkout provides the 'checkout' action, which copies a source
// tree into the job instance's working directory.
package checkout

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/fsutil"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the action with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("checkout", &action{})
}

type action struct{}

// Invoke copies the tree at the 'path' input into the working directory.
// Version-control metadata is not copied.
func (a *action) Invoke(ctx context.Context, req *registry.Request) (*registry.Response, error) {
	logger := ctxlog.FromContext(ctx)

	src := req.Input("path", ".")
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("checkout source %q: %w", src, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("checkout source %q is not a directory", src)
	}

	if err := fsutil.CopyTree(src, req.WorkDir, ".git"); err != nil {
		return nil, fmt.Errorf("copying source tree: %w", err)
	}
	logger.Debug("Source tree checked out.", "source", src, "dest", req.WorkDir)

	return &registry.Response{
		Outputs: map[string]string{"path": req.WorkDir},
	}, nil
}
