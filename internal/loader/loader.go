// Package loader defines the interface for format-specific workflow
// document loaders and the format-agnostic validation that runs after any
// of them.
package loader

import (
	"context"
	"fmt"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/fsutil"
	"github.com/vk/flowgridgo/internal/model"
)

// FileLoader translates one workflow document into job specs.
type FileLoader interface {
	// Extensions lists the file suffixes this loader claims.
	Extensions() []string

	// LoadFile parses a single document. Errors are ConfigErrors with the
	// offending construct identified.
	LoadFile(ctx context.Context, path string) ([]*model.JobSpec, error)
}

// Loader loads a complete workflow from a file or directory, delegating
// each file to the matching format loader.
type Loader struct {
	files []FileLoader
}

// New builds a Loader over the given format loaders. Later loaders do not
// shadow earlier ones; extensions must not overlap.
func New(files ...FileLoader) *Loader {
	return &Loader{files: files}
}

// Load reads every workflow document under path (or path itself, if it is
// a file), merges the jobs into one Workflow, and validates it.
func (l *Loader) Load(ctx context.Context, path string) (*model.Workflow, error) {
	logger := ctxlog.FromContext(ctx)

	var exts []string
	byExt := make(map[string]FileLoader)
	for _, fl := range l.files {
		for _, ext := range fl.Extensions() {
			exts = append(exts, ext)
			byExt[ext] = fl
		}
	}

	paths, err := fsutil.FindFilesByExtensions(path, exts...)
	if err != nil {
		return nil, &model.ConfigError{Reason: fmt.Sprintf("reading workflow path %s: %v", path, err)}
	}
	if len(paths) == 0 {
		return nil, &model.ConfigError{Reason: fmt.Sprintf("no workflow documents found under %s", path)}
	}
	logger.Debug("Found workflow documents.", "count", len(paths), "files", paths)

	wf := &model.Workflow{}
	for _, p := range paths {
		fl := matchLoader(byExt, p)
		if fl == nil {
			// A direct file path may carry any extension; reject clearly.
			return nil, &model.ConfigError{Reason: fmt.Sprintf("unsupported workflow document format: %s", p)}
		}
		jobs, err := fl.LoadFile(ctx, p)
		if err != nil {
			return nil, err
		}
		for _, job := range jobs {
			if wf.Job(job.Name) != nil {
				return nil, &model.ConfigError{Job: job.Name, Reason: fmt.Sprintf("job defined more than once (second definition in %s)", p)}
			}
			wf.Jobs = append(wf.Jobs, job)
		}
	}

	if err := Validate(wf); err != nil {
		return nil, err
	}
	logger.Info("Workflow loaded.", "jobs", len(wf.Jobs))
	return wf, nil
}

func matchLoader(byExt map[string]FileLoader, path string) FileLoader {
	for ext, fl := range byExt {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return fl
		}
	}
	return nil
}
