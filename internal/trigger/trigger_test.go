package trigger

import (
	"context"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/flowgridgo/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseExpr(t *testing.T, src string) hcl.Expression {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	return expr
}

func TestEligible_OnListFiltersKind(t *testing.T) {
	t.Parallel()

	job := &model.JobSpec{Name: "docs", On: []model.EventKind{model.EventPush}}

	ok, err := Eligible(model.Event{Kind: model.EventPush, Branch: "main"}, job)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Eligible(model.Event{Kind: model.EventPullRequest, Branch: "main"}, job)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEligible_EmptyOnMatchesEveryKind(t *testing.T) {
	t.Parallel()

	job := &model.JobSpec{Name: "lint"}
	for _, kind := range []model.EventKind{model.EventPush, model.EventPullRequest, model.EventWorkflowDispatch} {
		ok, err := Eligible(model.Event{Kind: kind, Branch: "main"}, job)
		require.NoError(t, err)
		assert.True(t, ok, "job without 'on' should be eligible for %s", kind)
	}
}

func TestEligible_GuardOverEventBranch(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Both the kind list and the guard expression must pass.
	job := &model.JobSpec{
		Name: "release",
		On:   []model.EventKind{model.EventPush},
		If:   parseExpr(t, `event.branch == "main"`),
	}

	// --- Act / Assert ---
	ok, err := Eligible(model.Event{Kind: model.EventPush, Branch: "main"}, job)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Eligible(model.Event{Kind: model.EventPush, Branch: "feature/x"}, job)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEligible_UnknownRootIsConfigError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A guard referencing anything but the event record must surface as a
	// configuration error, never evaluate to a silent false.
	job := &model.JobSpec{
		Name: "deploy",
		If:   parseExpr(t, `github.ref == "main"`),
	}

	// --- Act ---
	_, err := Eligible(model.Event{Kind: model.EventPush, Branch: "main"}, job)

	// --- Assert ---
	require.Error(t, err)
	assert.True(t, model.IsConfigError(err))
	assert.Contains(t, err.Error(), "github")
}

func TestEligibleJobs_PreservesDeclarationOrder(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	wf := &model.Workflow{Jobs: []*model.JobSpec{
		{Name: "lint"},
		{Name: "pr-only", On: []model.EventKind{model.EventPullRequest}},
		{Name: "test"},
	}}

	// --- Act ---
	eligible, err := EligibleJobs(context.Background(), model.Event{Kind: model.EventPush, Branch: "main"}, wf)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, eligible, 2)
	assert.Equal(t, "lint", eligible[0].Name)
	assert.Equal(t, "test", eligible[1].Name)
}
