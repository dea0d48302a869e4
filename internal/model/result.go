package model

// StepResult captures the outcome of one executed step.
type StepResult struct {
	Name     string `json:"name" yaml:"name"`
	Status   Status `json:"status" yaml:"status"`
	ExitCode int    `json:"exit_code" yaml:"exit_code"`
	Stdout   string `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty" yaml:"stderr,omitempty"`

	// Published lists artifact names this step published, if any.
	Published []string `json:"published,omitempty" yaml:"published,omitempty"`
}

// JobResult is the outcome of one job instance: its terminal status and the
// results of the steps that actually ran.
type JobResult struct {
	Status Status       `json:"status" yaml:"status"`
	Steps  []StepResult `json:"steps,omitempty" yaml:"steps,omitempty"`
}
