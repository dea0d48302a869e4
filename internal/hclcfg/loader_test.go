package hclcfg

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vk/flowgridgo/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, content string) ([]*model.JobSpec, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ci.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return NewLoader().LoadFile(context.Background(), path)
}

func TestLoadFile_FullJob(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	content := `
job "test" {
  on        = ["push", "pull_request"]
  if        = event.branch == "main"
  fail_fast = false
  needs     = ["lint"]

  env = {
    CI = "true"
  }

  matrix {
    os     = ["linux", "macos"]
    python = ["3.10", "3.11"]
  }

  step "run-tests" {
    run = "pytest --python=${matrix.python}"
  }

  step "upload" {
    uses = "upload_artifact"
    with = {
      name = "results"
      path = "reports/*.xml"
    }
  }
}
`
	// --- Act ---
	jobs, err := loadFixture(t, content)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	job := jobs[0]

	assert.Equal(t, "test", job.Name)
	assert.Equal(t, []model.EventKind{model.EventPush, model.EventPullRequest}, job.On)
	assert.NotNil(t, job.If)
	assert.False(t, job.FailFast)
	assert.Equal(t, []string{"lint"}, job.Needs)
	assert.Contains(t, job.Env, "CI")

	require.Len(t, job.Matrix, 2)
	assert.Equal(t, "os", job.Matrix[0].Name, "axes keep declaration order")
	assert.Equal(t, "python", job.Matrix[1].Name)
	assert.Len(t, job.Matrix[0].Values, 2)

	require.Len(t, job.Steps, 2)
	assert.Equal(t, model.StepRun, job.Steps[0].Kind)
	assert.Equal(t, model.StepUses, job.Steps[1].Kind)
	assert.Equal(t, "upload_artifact", job.Steps[1].ActionRef)
	assert.Contains(t, job.Steps[1].With, "name")
}

func TestLoadFile_FailFastDefaultsTrue(t *testing.T) {
	t.Parallel()

	jobs, err := loadFixture(t, `
job "lint" {
  step "run" {
    run = "ruff check ."
  }
}
`)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].FailFast)
}

func TestLoadFile_StepWithBothRunAndUses(t *testing.T) {
	t.Parallel()

	_, err := loadFixture(t, `
job "bad" {
  step "broken" {
    run  = "echo hi"
    uses = "checkout"
  }
}
`)
	require.Error(t, err)
	assert.True(t, model.IsConfigError(err))
	assert.Contains(t, err.Error(), "both run and uses")
}

func TestLoadFile_StepWithNeither(t *testing.T) {
	t.Parallel()

	_, err := loadFixture(t, `
job "bad" {
  step "empty" {
  }
}
`)
	require.Error(t, err)
	assert.True(t, model.IsConfigError(err))
}

func TestLoadFile_UnknownEventKind(t *testing.T) {
	t.Parallel()

	_, err := loadFixture(t, `
job "bad" {
  on = ["schedule"]
  step "run" {
    run = "true"
  }
}
`)
	require.Error(t, err)
	assert.True(t, model.IsConfigError(err))
}

func TestLoadFile_NonLiteralMatrixValue(t *testing.T) {
	t.Parallel()

	_, err := loadFixture(t, `
job "bad" {
  matrix {
    os = [event.branch]
  }
  step "run" {
    run = "true"
  }
}
`)
	require.Error(t, err)
	assert.True(t, model.IsConfigError(err))
}

func TestLoadFile_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := loadFixture(t, `job "broken" {`)
	require.Error(t, err)
	assert.True(t, model.IsConfigError(err))
}
