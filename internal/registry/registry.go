// Package registry holds the named external actions a workflow may invoke
// through `uses` steps. Actions are registered at startup and resolved at
// workflow load time; the engine core never encodes the behavior of any
// specific action.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/flowgridgo/internal/artifact"
)

// Request carries the capabilities and inputs the engine grants one action
// invocation. An action sees nothing outside this record.
type Request struct {
	// InstanceID identifies the invoking job instance, for logs and
	// artifact provenance.
	InstanceID string

	// WorkDir is the instance's working directory. All of the action's
	// file side effects stay under it.
	WorkDir string

	// Inputs are the evaluated `with` arguments.
	Inputs map[string]string

	// Env is the instance environment at the time of invocation.
	Env map[string]string

	// Artifacts is the run's artifact store.
	Artifacts *artifact.Store
}

// Input returns a named input or its default when absent.
func (r *Request) Input(name, fallback string) string {
	if v, ok := r.Inputs[name]; ok {
		return v
	}
	return fallback
}

// Response is what an action reports back on success.
type Response struct {
	// Outputs are values the action declares for the step result.
	Outputs map[string]string

	// Env entries are merged into the instance environment for the
	// remaining steps (how runtime-setup actions expose themselves).
	Env map[string]string

	// Published lists artifact names the action published.
	Published []string

	// Stdout is free-form output captured into the step result.
	Stdout string
}

// Action is the uniform contract every external collaborator implements.
// A non-nil error marks the invoking step as failed.
type Action interface {
	Invoke(ctx context.Context, req *Request) (*Response, error)
}

// Module is the interface action packages implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry maps action references to their implementations.
type Registry struct {
	actions map[string]Action
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// RegisterAction registers an action under its reference name. Duplicate
// registration is a programmer error.
func (r *Registry) RegisterAction(name string, action Action) {
	if _, exists := r.actions[name]; exists {
		panic(fmt.Sprintf("action with name '%s' already registered", name))
	}
	slog.Debug("Registering action.", "name", name)
	r.actions[name] = action
}

// Resolve looks up an action by reference name.
func (r *Registry) Resolve(name string) (Action, bool) {
	action, ok := r.actions[name]
	return action, ok
}

// Names returns the registered action names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	return names
}
