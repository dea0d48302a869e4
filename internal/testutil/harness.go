// Package testutil provides shared helpers for integration tests.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/vk/flowgridgo/internal/app"
	"github.com/vk/flowgridgo/internal/model"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/report"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Report    *report.RunReport
	LogOutput string
	Err       error
}

// RunWorkflowTest writes the given workflow fixture files into a temporary
// directory, runs the engine against them for the event, and returns the
// run report plus captured log output. Passing modules replaces the
// built-in action set, which is how tests inject spies.
func RunWorkflowTest(t *testing.T, files map[string]string, ev model.Event, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunWorkflowTestWithContext(context.Background(), t, files, ev, modules...)
}

// RunWorkflowTestWithContext is RunWorkflowTest with a caller-provided
// context, for cancellation tests.
func RunWorkflowTestWithContext(ctx context.Context, t *testing.T, files map[string]string, ev model.Event, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	workflowDir := filepath.Join(tmpDir, "workflows")
	require.NoError(t, os.Mkdir(workflowDir, 0755))

	for name, content := range files {
		filePath := filepath.Join(workflowDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	logBuffer := &SafeBuffer{}
	cfg, err := app.NewConfig(app.Config{
		WorkflowPath:  workflowDir,
		Event:         ev,
		LogLevel:      "debug",
		LogFormat:     "text",
		Workers:       4,
		ReportPath:    filepath.Join(tmpDir, "report.json"),
		WorkspaceRoot: filepath.Join(tmpDir, "workspace"),
	})
	require.NoError(t, err)

	testApp := app.NewApp(logBuffer, cfg, modules...)
	rep, runErr := testApp.Run(ctx, cfg)

	return &HarnessResult{
		Report:    rep,
		LogOutput: logBuffer.String(),
		Err:       runErr,
	}
}
