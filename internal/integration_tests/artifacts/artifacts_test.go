package integration_tests

import (
	"testing"

	"github.com/vk/flowgridgo/internal/model"
	"github.com/vk/flowgridgo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifacts_PublishAndFetchAcrossJobs(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{"ci.hcl": `
job "test" {
  step "generate" {
    run = "mkdir -p reports && echo '<ok/>' > reports/junit.xml"
  }
  step "upload" {
    uses = "upload_artifact"
    with = {
      name = "test-results"
      path = "reports/*.xml"
    }
  }
}

job "publish" {
  needs = ["test"]
  step "fetch" {
    uses = "download_artifact"
    with = {
      name = "test-results"
      path = "incoming"
    }
  }
  step "verify" {
    run = "test -s incoming/junit.xml"
  }
}
`}
	ev := model.Event{Kind: model.EventPush, Branch: "main"}

	// --- Act ---
	res := testutil.RunWorkflowTest(t, files, ev)

	// --- Assert ---
	require.NoError(t, res.Err)
	require.NotNil(t, res.Report)
	assert.Equal(t, model.StatusSuccess, res.Report.Status)
	assert.Equal(t, model.StatusSuccess, res.Report.Jobs["test"].Status)
	assert.Equal(t, model.StatusSuccess, res.Report.Jobs["publish"].Status)

	require.Len(t, res.Report.Artifacts, 1)
	assert.Equal(t, "test-results", res.Report.Artifacts[0].Name)
	assert.Equal(t, "test", res.Report.Artifacts[0].Producer)
}

func TestArtifacts_EmptyUploadFailsJob(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The glob matches nothing, so the upload step must fail the job and
	// skip the dependent instead of publishing an empty artifact.
	files := map[string]string{"ci.hcl": `
job "test" {
  step "upload" {
    uses = "upload_artifact"
    with = {
      name = "coverage"
      path = "reports/*.xml"
    }
  }
}

job "publish" {
  needs = ["test"]
  step "fetch" {
    uses = "download_artifact"
    with = {
      name = "coverage"
      path = "incoming"
    }
  }
}
`}
	ev := model.Event{Kind: model.EventPush, Branch: "main"}

	// --- Act ---
	res := testutil.RunWorkflowTest(t, files, ev)

	// --- Assert ---
	require.NoError(t, res.Err)
	assert.Equal(t, model.StatusFailure, res.Report.Status)
	assert.Equal(t, model.StatusFailure, res.Report.Jobs["test"].Status)
	assert.Equal(t, model.StatusSkipped, res.Report.Jobs["publish"].Status)
	assert.Empty(t, res.Report.Artifacts, "nothing may be published from a failed upload")

	inst := res.Report.Jobs["test"].Instances["default"]
	require.NotNil(t, inst)
	require.NotEmpty(t, inst.Steps)
	last := inst.Steps[len(inst.Steps)-1]
	assert.Equal(t, model.StatusFailure, last.Status)
	assert.Contains(t, last.Stderr, "no files matched")
}

func TestArtifacts_DownloadUnknownNameFails(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{"ci.hcl": `
job "consume" {
  step "fetch" {
    uses = "download_artifact"
    with = {
      name = "never-published"
    }
  }
}
`}
	ev := model.Event{Kind: model.EventPush, Branch: "main"}

	// --- Act ---
	res := testutil.RunWorkflowTest(t, files, ev)

	// --- Assert ---
	require.NoError(t, res.Err)
	assert.Equal(t, model.StatusFailure, res.Report.Status)

	inst := res.Report.Jobs["consume"].Instances["default"]
	require.NotNil(t, inst)
	require.NotEmpty(t, inst.Steps)
	assert.Contains(t, inst.Steps[0].Stderr, "has not been published")
}

func TestArtifacts_MatrixInstancesPublishDistinctNames(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Per-instance names keep matrix siblings from clobbering each other.
	files := map[string]string{"ci.hcl": `
job "test" {
  matrix {
    os = ["linux", "macos"]
  }
  step "generate" {
    run = "echo data-${matrix.os} > result.txt"
  }
  step "upload" {
    uses = "upload_artifact"
    with = {
      name = "results-${matrix.os}"
      path = "result.txt"
    }
  }
}
`}
	ev := model.Event{Kind: model.EventPush, Branch: "main"}

	// --- Act ---
	res := testutil.RunWorkflowTest(t, files, ev)

	// --- Assert ---
	require.NoError(t, res.Err)
	assert.Equal(t, model.StatusSuccess, res.Report.Status)
	require.Len(t, res.Report.Artifacts, 2)

	names := []string{res.Report.Artifacts[0].Name, res.Report.Artifacts[1].Name}
	assert.ElementsMatch(t, []string{"results-linux", "results-macos"}, names)
}
