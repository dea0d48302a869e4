package registry

import (
	"context"
	"testing"

	"github.com/vk/flowgridgo/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopAction struct{}

func (noopAction) Invoke(ctx context.Context, req *Request) (*Response, error) {
	return &Response{}, nil
}

func TestRegisterAction_DuplicatePanics(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterAction("checkout", noopAction{})

	assert.Panics(t, func() {
		r.RegisterAction("checkout", noopAction{})
	})
}

func TestResolve(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterAction("task", noopAction{})

	_, ok := r.Resolve("task")
	assert.True(t, ok)
	_, ok = r.Resolve("missing")
	assert.False(t, ok)
}

func TestRequest_InputFallback(t *testing.T) {
	t.Parallel()

	req := &Request{Inputs: map[string]string{"path": "src"}}
	assert.Equal(t, "src", req.Input("path", "."))
	assert.Equal(t, ".", req.Input("other", "."))
}

func TestValidateWorkflow_DanglingReference(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	r := New()
	r.RegisterAction("checkout", noopAction{})
	wf := &model.Workflow{Jobs: []*model.JobSpec{
		{
			Name: "build",
			Steps: []*model.StepSpec{
				{Name: "fetch", Kind: model.StepUses, ActionRef: "checkout"},
				{Name: "upload", Kind: model.StepUses, ActionRef: "upload_artifact"},
			},
		},
	}}

	// --- Act ---
	err := r.ValidateWorkflow(wf)

	// --- Assert ---
	require.Error(t, err)
	assert.True(t, model.IsConfigError(err))
	assert.Contains(t, err.Error(), "upload_artifact")
	assert.NotContains(t, err.Error(), "'checkout'")
}

func TestValidateWorkflow_RunStepsIgnored(t *testing.T) {
	t.Parallel()

	r := New()
	wf := &model.Workflow{Jobs: []*model.JobSpec{
		{
			Name:  "lint",
			Steps: []*model.StepSpec{{Name: "check", Kind: model.StepRun}},
		},
	}}
	require.NoError(t, r.ValidateWorkflow(wf))
}
