// Package scheduler orchestrates a workflow run: it builds the job
// dependency graph, expands eligible jobs into matrix instances, dispatches
// them onto a bounded worker pool, applies the two fail-fast scopes
// (within a matrix group, and across dependent jobs), and aggregates the
// run report.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/vk/flowgridgo/internal/artifact"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/dag"
	"github.com/vk/flowgridgo/internal/matrix"
	"github.com/vk/flowgridgo/internal/model"
	"github.com/vk/flowgridgo/internal/report"
	"github.com/vk/flowgridgo/internal/runner"
	"github.com/vk/flowgridgo/internal/step"
	"github.com/vk/flowgridgo/internal/trigger"
	"github.com/vk/flowgridgo/internal/wfexpr"
)

// Instance lifecycle states, stored atomically. Every instance makes
// exactly one transition out of pending accounting-wise; CAS guards the
// race between a worker picking it up and a fail-fast skip.
const (
	statePending int32 = iota
	stateRunning
	stateSuccess
	stateFailure
	stateSkipped
	stateCancelled
)

func stateStatus(s int32) model.Status {
	switch s {
	case statePending:
		return model.StatusPending
	case stateRunning:
		return model.StatusRunning
	case stateSuccess:
		return model.StatusSuccess
	case stateFailure:
		return model.StatusFailure
	case stateSkipped:
		return model.StatusSkipped
	default:
		return model.StatusCancelled
	}
}

// Config carries the knobs a run needs.
type Config struct {
	// Workers is the worker pool size; at most this many job instances run
	// concurrently. Steps inside one instance are always sequential.
	Workers int

	// WorkspaceRoot is where per-instance working directories are created.
	WorkspaceRoot string

	// BaseEnv seeds every instance environment (PATH and friends).
	BaseEnv map[string]string
}

// Scheduler runs workflows. One Scheduler may serve many runs; per-run
// state lives in the run struct.
type Scheduler struct {
	cfg    Config
	runner *runner.Runner
}

// New creates a Scheduler dispatching to the given runner.
func New(cfg Config, r *runner.Runner) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Scheduler{cfg: cfg, runner: r}
}

// instance is one scheduled job instance with its atomic lifecycle state.
type instance struct {
	inst   *model.JobInstance
	group  *jobGroup
	state  atomic.Int32
	result *model.JobResult
}

// jobGroup is the matrix group of one eligible job: its instances plus the
// counters that drive dependency release and group completion.
type jobGroup struct {
	spec      *model.JobSpec
	instances []*instance

	// remaining counts instances not yet terminal; hitting zero finalizes
	// the group outcome.
	remaining atomic.Int32

	// needsLeft counts eligible dependencies that have not yet succeeded.
	needsLeft atomic.Int32

	// failed is set when any instance of the group fails.
	failed atomic.Bool

	// outcome is written once by jobDone.
	outcome model.Status

	skipOnce sync.Once
}

// run is the per-run state shared by the workers.
type run struct {
	sched     *Scheduler
	event     model.Event
	workflow  *model.Workflow
	groups    map[string]*jobGroup // eligible jobs only
	graph     *dag.Graph
	artifacts *artifact.Store
	readyChan chan *instance
	wg        sync.WaitGroup
}

// Run executes the workflow for the event and returns the aggregated
// report. Configuration errors abort before any job starts; job failures
// are reported in the RunReport, not as a Go error.
func (s *Scheduler) Run(ctx context.Context, ev model.Event, wf *model.Workflow, store *artifact.Store) (*report.RunReport, error) {
	logger := ctxlog.FromContext(ctx)

	graph, err := buildGraph(wf)
	if err != nil {
		return nil, err
	}
	if err := checkArtifactProvenance(wf, graph); err != nil {
		return nil, err
	}

	eligible, err := trigger.EligibleJobs(ctx, ev, wf)
	if err != nil {
		return nil, err
	}

	r := &run{
		sched:     s,
		event:     ev,
		workflow:  wf,
		groups:    make(map[string]*jobGroup, len(eligible)),
		graph:     graph,
		artifacts: store,
	}

	total := 0
	for _, job := range eligible {
		instances, err := matrix.Instances(job)
		if err != nil {
			return nil, err
		}
		group := &jobGroup{spec: job, outcome: model.StatusPending}
		for _, ji := range instances {
			group.instances = append(group.instances, &instance{inst: ji, group: group})
		}
		group.remaining.Store(int32(len(group.instances)))
		r.groups[job.Name] = group
		total += len(group.instances)
	}

	// Count only eligible dependencies; a dependency that is not eligible
	// for this event can never succeed, so its dependents resolve to
	// skipped before anything runs.
	var blocked []*jobGroup
	for _, group := range r.groups {
		needs := 0
		hasIneligibleNeed := false
		for _, need := range group.spec.Needs {
			if _, ok := r.groups[need]; ok {
				needs++
			} else {
				hasIneligibleNeed = true
			}
		}
		group.needsLeft.Store(int32(needs))
		if hasIneligibleNeed {
			blocked = append(blocked, group)
		}
	}

	logger.Info("🚀 Starting workflow run.", "jobs", len(eligible), "instances", total, "workers", s.cfg.Workers)

	r.readyChan = make(chan *instance, total)
	r.wg.Add(total)

	for _, group := range blocked {
		r.skipGroup(ctx, group)
	}
	for _, job := range eligible {
		group := r.groups[job.Name]
		if group.needsLeft.Load() == 0 && group.outcome == model.StatusPending {
			r.enqueueGroup(group)
		}
	}

	for i := 0; i < s.cfg.Workers; i++ {
		go r.worker(ctx, i)
	}

	r.wg.Wait()
	close(r.readyChan)
	logger.Info("🏁 Workflow run finished.")

	return r.buildReport(ctx), nil
}

// buildGraph constructs the needs graph over every job and rejects cycles
// before anything is scheduled.
func buildGraph(wf *model.Workflow) (*dag.Graph, error) {
	graph := dag.New()
	for _, job := range wf.Jobs {
		graph.AddNode(job.Name)
	}
	for _, job := range wf.Jobs {
		for _, need := range job.Needs {
			if err := graph.AddEdge(need, job.Name); err != nil {
				return nil, &model.ConfigError{Job: job.Name, Field: "needs", Reason: err.Error()}
			}
		}
	}
	if err := graph.DetectCycles(); err != nil {
		return nil, &model.ConfigError{Field: "needs", Reason: err.Error()}
	}
	return graph, nil
}

func (r *run) enqueueGroup(group *jobGroup) {
	for _, inst := range group.instances {
		r.readyChan <- inst
	}
}

// workspacePath renders a filesystem-safe directory name for an instance.
func (s *Scheduler) workspacePath(id string) string {
	mapped := strings.Map(func(ch rune) rune {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			return ch
		case ch == '.' || ch == '-' || ch == '_':
			return ch
		}
		return '_'
	}, id)
	return filepath.Join(s.cfg.WorkspaceRoot, mapped)
}

// execContext prepares the workspace and capability set for one instance.
func (r *run) execContext(ctx context.Context, inst *instance) (*step.ExecContext, error) {
	spec := inst.inst.Spec
	id := inst.inst.ID()

	workDir := r.sched.workspacePath(id)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace for %s: %w", id, err)
	}

	evalCtx := wfexpr.Context(r.event, inst.inst.Assignment)

	env := make(map[string]string, len(r.sched.cfg.BaseEnv)+len(spec.Env)+2)
	for k, v := range r.sched.cfg.BaseEnv {
		env[k] = v
	}
	env["FLOWGRID_JOB"] = spec.Name
	env["FLOWGRID_INSTANCE"] = id
	jobEnv, err := wfexpr.EvalStringMap(spec.Env, evalCtx)
	if err != nil {
		return nil, fmt.Errorf("evaluating env for %s: %w", id, err)
	}
	for k, v := range jobEnv {
		env[k] = v
	}

	return &step.ExecContext{
		InstanceID: id,
		WorkDir:    workDir,
		Env:        env,
		EvalCtx:    evalCtx,
		Artifacts:  r.artifacts,
	}, nil
}

// NewRunID mints the identifier stamped on a run's report and logs.
func NewRunID() string {
	return uuid.NewString()
}
