// Package report defines the run report: the structured document mapping
// every job and matrix instance to its terminal status, plus captured step
// output and the run's artifact inventory.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vk/flowgridgo/internal/artifact"
	"github.com/vk/flowgridgo/internal/model"
	"gopkg.in/yaml.v3"
)

// DefaultKey is the instance key used for jobs without a matrix.
const DefaultKey = "default"

// Exit codes for the overall process, distinct per failure class.
const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitConfigError = 2
	ExitCancelled   = 3
)

// InstanceReport is the terminal record of one job instance.
type InstanceReport struct {
	Status model.Status       `json:"status" yaml:"status"`
	Steps  []model.StepResult `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// JobReport groups the instance reports of one job.
type JobReport struct {
	// Eligible records the trigger evaluator's verdict; ineligible jobs
	// carry no instances.
	Eligible  bool                       `json:"eligible" yaml:"eligible"`
	Status    model.Status               `json:"status" yaml:"status"`
	Instances map[string]*InstanceReport `json:"instances,omitempty" yaml:"instances,omitempty"`
}

// RunReport is the aggregate result of one workflow run.
type RunReport struct {
	RunID     string                `json:"run_id" yaml:"run_id"`
	Event     model.Event           `json:"event" yaml:"event"`
	Status    model.Status          `json:"status" yaml:"status"`
	Jobs      map[string]*JobReport `json:"jobs" yaml:"jobs"`
	Artifacts []*artifact.Handle    `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
}

// InstanceKey maps an assignment to its report key.
func InstanceKey(a model.Assignment) string {
	if key := a.Key(); key != "" {
		return key
	}
	return DefaultKey
}

// ExitCode maps the overall status to the process exit code.
func (r *RunReport) ExitCode() int {
	switch r.Status {
	case model.StatusSuccess:
		return ExitSuccess
	case model.StatusCancelled:
		return ExitCancelled
	default:
		return ExitFailure
	}
}

// Encode writes the report in the requested format ("json" or "yaml").
func (r *RunReport) Encode(w io.Writer, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(r)
	}
	return fmt.Errorf("unknown report format %q", format)
}
