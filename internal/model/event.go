package model

import "fmt"

// EventKind identifies the repository event that triggered a run.
type EventKind string

const (
	EventPush             EventKind = "push"
	EventPullRequest      EventKind = "pull_request"
	EventWorkflowDispatch EventKind = "workflow_dispatch"
)

// ParseEventKind validates a raw string against the known event kinds.
func ParseEventKind(s string) (EventKind, error) {
	switch EventKind(s) {
	case EventPush, EventPullRequest, EventWorkflowDispatch:
		return EventKind(s), nil
	}
	return "", fmt.Errorf("unknown event kind %q (expected push, pull_request, or workflow_dispatch)", s)
}

// Event is the immutable record of the incoming trigger. It is the only
// input trigger conditions may observe.
type Event struct {
	Kind    EventKind `json:"kind" yaml:"kind"`
	Branch  string    `json:"branch" yaml:"branch"`
	HeadSHA string    `json:"head_sha,omitempty" yaml:"head_sha,omitempty"`
}
