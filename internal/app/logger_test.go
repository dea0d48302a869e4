package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	buf := &bytes.Buffer{}
	logger := newLogger("warn", "text", buf)

	// --- Act ---
	logger.Debug("too quiet")
	logger.Warn("loud enough")

	// --- Assert ---
	assert.NotContains(t, buf.String(), "too quiet")
	assert.Contains(t, buf.String(), "loud enough")
}

func TestNewLogger_JSONFormat(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	buf := &bytes.Buffer{}
	logger := newLogger("info", "json", buf)

	// --- Act ---
	logger.Info("hello")

	// --- Assert ---
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestNewLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	buf := &bytes.Buffer{}
	logger := newLogger("chatty", "text", buf)

	// --- Act ---
	logger.Debug("filtered")
	logger.Info("kept")

	// --- Assert ---
	assert.NotContains(t, buf.String(), "filtered")
	assert.Contains(t, buf.String(), "kept")
}
