package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vk/flowgridgo/internal/registry"
)

// ActionModule registers a single named action. Tests compose a few of
// these to stand in for the built-in action set.
type ActionModule struct {
	Name   string
	Action registry.Action
}

// Register implements registry.Module.
func (m *ActionModule) Register(r *registry.Registry) {
	r.RegisterAction(m.Name, m.Action)
}

// NewActionModule wraps an action so it can be passed to the harness.
func NewActionModule(name string, action registry.Action) *ActionModule {
	return &ActionModule{Name: name, Action: action}
}

// SpyAction is a thread-safe action that records which instances invoked
// it. FailWhen makes chosen invocations fail; Delay slows each invocation
// down, which lets fail-fast tests keep siblings pending long enough to be
// skipped.
type SpyAction struct {
	mu    sync.Mutex
	calls []string

	FailWhen func(req *registry.Request) bool
	Delay    time.Duration
}

// Invoke implements registry.Action.
func (s *SpyAction) Invoke(ctx context.Context, req *registry.Request) (*registry.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req.InstanceID)
	s.mu.Unlock()

	// Failures return immediately so fail-fast tests observe the skip
	// before delayed siblings free up a worker.
	if s.FailWhen != nil && s.FailWhen(req) {
		return nil, fmt.Errorf("induced failure for %s", req.InstanceID)
	}
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &registry.Response{
		Outputs: map[string]string{"instance": req.InstanceID},
	}, nil
}

// Calls returns a copy of the recorded instance IDs.
func (s *SpyAction) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many times the action was invoked.
func (s *SpyAction) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
