package app

import (
	"errors"

	"github.com/vk/flowgridgo/internal/model"
)

// Config holds everything an App instance needs to run one workflow.
type Config struct {
	// WorkflowPath is a workflow document or a directory of documents.
	WorkflowPath string

	// Event is the trigger the run is evaluated against.
	Event model.Event

	LogFormat string
	LogLevel  string

	// Workers bounds the number of concurrently running job instances.
	Workers int

	// ReportPath receives the run report; empty writes it to the app's
	// output writer.
	ReportPath   string
	ReportFormat string

	// WorkspaceRoot hosts per-instance working directories and the
	// artifact store. Empty means a temporary directory that is removed
	// when the run completes.
	WorkspaceRoot string
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkflowPath == "" {
		return nil, errors.New("WorkflowPath is a required configuration field and cannot be empty")
	}
	if cfg.Event.Kind == "" {
		return nil, errors.New("an event kind is required (push, pull_request, or workflow_dispatch)")
	}
	if _, err := model.ParseEventKind(string(cfg.Event.Kind)); err != nil {
		return nil, err
	}
	if cfg.ReportFormat == "" {
		cfg.ReportFormat = "json"
	}
	if cfg.ReportFormat != "json" && cfg.ReportFormat != "yaml" {
		return nil, errors.New("report format must be 'json' or 'yaml'")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &cfg, nil
}
