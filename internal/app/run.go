package app

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/flowgridgo/internal/artifact"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/report"
	"github.com/vk/flowgridgo/internal/runner"
	"github.com/vk/flowgridgo/internal/scheduler"
	"github.com/vk/flowgridgo/internal/step"
)

// Run loads the workflow, executes it for the configured event, and writes
// the run report. The returned report is non-nil whenever the run itself
// happened; a nil report means the configuration never made it past
// loading.
func (a *App) Run(ctx context.Context, cfg *Config) (*report.RunReport, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	wf, err := a.loader.Load(ctx, cfg.WorkflowPath)
	if err != nil {
		return nil, err
	}
	if err := a.registry.ValidateWorkflow(wf); err != nil {
		return nil, err
	}
	a.logger.Debug("Workflow validated against action registry.")

	workspaceRoot := cfg.WorkspaceRoot
	ephemeral := false
	if workspaceRoot == "" {
		workspaceRoot, err = os.MkdirTemp("", "flowgridgo-run-*")
		if err != nil {
			return nil, fmt.Errorf("creating run workspace: %w", err)
		}
		ephemeral = true
	}

	store, err := artifact.NewStore(workspaceRoot + "/.artifacts")
	if err != nil {
		return nil, err
	}
	// An explicit workspace keeps its artifacts after the run; the
	// ephemeral one is torn down with the report already built.
	defer func() {
		if ephemeral {
			store.Close()
			os.RemoveAll(workspaceRoot)
		}
	}()

	steps := step.NewExecutor(a.registry)
	sched := scheduler.New(scheduler.Config{
		Workers:       cfg.Workers,
		WorkspaceRoot: workspaceRoot,
		BaseEnv:       baseEnv(),
	}, runner.New(steps))

	rep, err := sched.Run(ctx, cfg.Event, wf, store)
	if err != nil {
		return nil, err
	}

	if err := a.writeReport(rep, cfg); err != nil {
		return rep, err
	}
	a.logger.Info("Run report written.", "status", string(rep.Status), "run_id", rep.RunID)
	return rep, nil
}

func (a *App) writeReport(rep *report.RunReport, cfg *Config) error {
	if cfg.ReportPath == "" {
		return rep.Encode(a.outW, cfg.ReportFormat)
	}
	f, err := os.Create(cfg.ReportPath)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()
	return rep.Encode(f, cfg.ReportFormat)
}

// baseEnv seeds instance environments with the minimum a shell step needs.
// Everything else an instance sees comes from its own workflow document.
func baseEnv() map[string]string {
	env := make(map[string]string, 3)
	for _, key := range []string{"PATH", "HOME", "TMPDIR"} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	return env
}
