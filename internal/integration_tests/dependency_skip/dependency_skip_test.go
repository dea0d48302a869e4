package integration_tests

import (
	"testing"

	"github.com/vk/flowgridgo/internal/model"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeeds_FailedDependencySkipsChain(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// build fails; deploy needs build; notify needs deploy. The whole chain
	// downstream of the failure must resolve to skipped without running.
	spy := &testutil.SpyAction{
		FailWhen: func(req *registry.Request) bool {
			return req.Inputs["job"] == "build"
		},
	}
	files := map[string]string{"ci.hcl": `
job "build" {
  step "work" {
    uses = "work"
    with = { job = "build" }
  }
}

job "deploy" {
  needs = ["build"]
  step "work" {
    uses = "work"
    with = { job = "deploy" }
  }
}

job "notify" {
  needs = ["deploy"]
  step "work" {
    uses = "work"
    with = { job = "notify" }
  }
}

job "docs" {
  step "work" {
    uses = "work"
    with = { job = "docs" }
  }
}
`}
	ev := model.Event{Kind: model.EventPush, Branch: "main"}

	// --- Act ---
	res := testutil.RunWorkflowTest(t, files, ev, testutil.NewActionModule("work", spy))

	// --- Assert ---
	require.NoError(t, res.Err)
	assert.Equal(t, model.StatusFailure, res.Report.Status)

	assert.Equal(t, model.StatusFailure, res.Report.Jobs["build"].Status)
	assert.Equal(t, model.StatusSkipped, res.Report.Jobs["deploy"].Status)
	assert.Equal(t, model.StatusSkipped, res.Report.Jobs["notify"].Status, "skips propagate transitively")
	assert.Equal(t, model.StatusSuccess, res.Report.Jobs["docs"].Status, "independent jobs are unaffected")

	calls := spy.Calls()
	assert.NotContains(t, calls, "deploy", "skipped jobs never execute")
	assert.NotContains(t, calls, "notify")
	assert.Len(t, calls, 2, "only build and docs invoke the action")
}

func TestNeeds_SuccessReleasesDependents(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	spy := &testutil.SpyAction{}
	files := map[string]string{"ci.hcl": `
job "lint" {
  step "work" {
    uses = "work"
    with = { job = "lint" }
  }
}

job "test" {
  needs = ["lint"]
  step "work" {
    uses = "work"
    with = { job = "test" }
  }
}

job "package" {
  needs = ["lint", "test"]
  step "work" {
    uses = "work"
    with = { job = "package" }
  }
}
`}
	ev := model.Event{Kind: model.EventPush, Branch: "main"}

	// --- Act ---
	res := testutil.RunWorkflowTest(t, files, ev, testutil.NewActionModule("work", spy))

	// --- Assert ---
	require.NoError(t, res.Err)
	assert.Equal(t, model.StatusSuccess, res.Report.Status)
	for _, name := range []string{"lint", "test", "package"} {
		assert.Equal(t, model.StatusSuccess, res.Report.Jobs[name].Status, "job %s", name)
	}

	calls := spy.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "lint", calls[0], "dependencies run before dependents")
	assert.Equal(t, "test", calls[1])
	assert.Equal(t, "package", calls[2])
}

func TestNeeds_IneligibleDependencySkipsDependent(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// pr-only never becomes eligible for a push, so its dependent can never
	// see it succeed and must resolve to skipped up front.
	spy := &testutil.SpyAction{}
	files := map[string]string{"ci.hcl": `
job "pr-only" {
  on = ["pull_request"]
  step "work" {
    uses = "work"
    with = { job = "pr-only" }
  }
}

job "report" {
  needs = ["pr-only"]
  step "work" {
    uses = "work"
    with = { job = "report" }
  }
}
`}
	ev := model.Event{Kind: model.EventPush, Branch: "main"}

	// --- Act ---
	res := testutil.RunWorkflowTest(t, files, ev, testutil.NewActionModule("work", spy))

	// --- Assert ---
	require.NoError(t, res.Err)
	assert.Equal(t, model.StatusSuccess, res.Report.Status, "skips never count against the run")
	assert.False(t, res.Report.Jobs["pr-only"].Eligible)
	assert.True(t, res.Report.Jobs["report"].Eligible)
	assert.Equal(t, model.StatusSkipped, res.Report.Jobs["report"].Status)
	assert.Zero(t, spy.CallCount())
}
