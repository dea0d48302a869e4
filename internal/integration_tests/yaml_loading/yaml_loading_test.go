package integration_tests

import (
	"testing"

	"github.com/vk/flowgridgo/internal/model"
	"github.com/vk/flowgridgo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYAML_WorkflowRunsEndToEnd(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	spy := &testutil.SpyAction{}
	files := map[string]string{"ci.yml": `
jobs:
  lint:
    on: [push]
    steps:
      - name: check
        uses: work
        with:
          job: lint
  test:
    needs: [lint]
    matrix:
      os: [linux, macos]
    steps:
      - name: suite
        uses: work
        with:
          job: test
          os: ${matrix.os}
`}
	ev := model.Event{Kind: model.EventPush, Branch: "main"}

	// --- Act ---
	res := testutil.RunWorkflowTest(t, files, ev, testutil.NewActionModule("work", spy))

	// --- Assert ---
	require.NoError(t, res.Err)
	assert.Equal(t, model.StatusSuccess, res.Report.Status)
	assert.Equal(t, model.StatusSuccess, res.Report.Jobs["lint"].Status)

	testJob := res.Report.Jobs["test"]
	require.Len(t, testJob.Instances, 2, "YAML matrix expands like HCL")
	assert.Contains(t, testJob.Instances, "os=linux")
	assert.Contains(t, testJob.Instances, "os=macos")

	assert.Equal(t, 3, spy.CallCount())
	assert.Equal(t, "lint", spy.Calls()[0], "needs ordering holds across formats")
}

func TestYAML_UnknownKeysWarnButLoad(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{"ci.yaml": `
name: my pipeline
jobs:
  docs:
    timeout: 30
    steps:
      - run: "true"
`}
	ev := model.Event{Kind: model.EventPush, Branch: "main"}

	// --- Act ---
	res := testutil.RunWorkflowTest(t, files, ev)

	// --- Assert ---
	require.NoError(t, res.Err)
	assert.Equal(t, model.StatusSuccess, res.Report.Status)
	assert.Contains(t, res.LogOutput, "Ignoring unknown key.")
	assert.Contains(t, res.LogOutput, "timeout")
}

func TestYAML_MixedFormatsShareOneNamespace(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// An HCL job may depend on a YAML job; the loader merges both into one
	// workflow.
	spy := &testutil.SpyAction{}
	files := map[string]string{
		"base.yml": `
jobs:
  build:
    steps:
      - uses: work
        with:
          job: build
`,
		"extra.hcl": `
job "package" {
  needs = ["build"]
  step "work" {
    uses = "work"
    with = { job = "package" }
  }
}
`,
	}
	ev := model.Event{Kind: model.EventPush, Branch: "main"}

	// --- Act ---
	res := testutil.RunWorkflowTest(t, files, ev, testutil.NewActionModule("work", spy))

	// --- Assert ---
	require.NoError(t, res.Err)
	assert.Equal(t, model.StatusSuccess, res.Report.Status)
	require.Equal(t, 2, spy.CallCount())
	assert.Equal(t, []string{"build", "package"}, spy.Calls())
}
