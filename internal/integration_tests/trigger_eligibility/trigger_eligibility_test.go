package integration_tests

import (
	"testing"

	"github.com/vk/flowgridgo/internal/model"
	"github.com/vk/flowgridgo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triggerWorkflow = `
job "docs" {
  on = ["push"]
  step "build" {
    uses = "work"
  }
}

job "pr-check" {
  on = ["pull_request"]
  step "verify" {
    uses = "work"
  }
}

job "release" {
  on = ["push"]
  if = event.branch == "main"
  step "ship" {
    uses = "work"
  }
}
`

func TestTrigger_OnlyMatchingJobsRun(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	spy := &testutil.SpyAction{}
	files := map[string]string{"ci.hcl": triggerWorkflow}
	ev := model.Event{Kind: model.EventPullRequest, Branch: "feature/widgets"}

	// --- Act ---
	res := testutil.RunWorkflowTest(t, files, ev, testutil.NewActionModule("work", spy))

	// --- Assert ---
	require.NoError(t, res.Err)
	require.NotNil(t, res.Report)
	assert.Equal(t, model.StatusSuccess, res.Report.Status)

	assert.True(t, res.Report.Jobs["pr-check"].Eligible)
	assert.Equal(t, model.StatusSuccess, res.Report.Jobs["pr-check"].Status)

	assert.False(t, res.Report.Jobs["docs"].Eligible, "push-only job must not react to a pull request")
	assert.Equal(t, model.StatusSkipped, res.Report.Jobs["docs"].Status)
	assert.Empty(t, res.Report.Jobs["docs"].Instances, "ineligible jobs expand to no instances")

	assert.False(t, res.Report.Jobs["release"].Eligible)

	assert.Equal(t, []string{"pr-check"}, spy.Calls(), "only the eligible job may execute")
}

func TestTrigger_GuardPassesOnMainPush(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	spy := &testutil.SpyAction{}
	files := map[string]string{"ci.hcl": triggerWorkflow}
	ev := model.Event{Kind: model.EventPush, Branch: "main"}

	// --- Act ---
	res := testutil.RunWorkflowTest(t, files, ev, testutil.NewActionModule("work", spy))

	// --- Assert ---
	require.NoError(t, res.Err)
	assert.Equal(t, model.StatusSuccess, res.Report.Status)
	assert.True(t, res.Report.Jobs["docs"].Eligible)
	assert.True(t, res.Report.Jobs["release"].Eligible, "kind list and guard both hold")
	assert.False(t, res.Report.Jobs["pr-check"].Eligible)
	assert.Equal(t, 2, spy.CallCount())
}

func TestTrigger_GuardFailsOffMain(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	spy := &testutil.SpyAction{}
	files := map[string]string{"ci.hcl": triggerWorkflow}
	ev := model.Event{Kind: model.EventPush, Branch: "feature/other"}

	// --- Act ---
	res := testutil.RunWorkflowTest(t, files, ev, testutil.NewActionModule("work", spy))

	// --- Assert ---
	require.NoError(t, res.Err)
	assert.True(t, res.Report.Jobs["docs"].Eligible)
	assert.False(t, res.Report.Jobs["release"].Eligible, "guard over event.branch must filter the job out")
	assert.Equal(t, []string{"docs"}, spy.Calls())
}
