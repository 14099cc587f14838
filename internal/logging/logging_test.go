package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TextOnStderr(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Stderr: &buf})
	require.NoError(t, err)
	defer l.Close()

	l.Logger.Debug("hidden")
	l.Logger.Info("habit added", "id", "h-1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "id=h-1")
}

func TestNew_Verbose(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Stderr: &buf, Verbose: true})
	require.NoError(t, err)

	l.Logger.Debug("tick")
	assert.Contains(t, buf.String(), "level=DEBUG")
}

func TestSetVerbose_AppliesToAllDestinations(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "habitpulse.log")
	l, err := New(Options{Stderr: &buf, File: path})
	require.NoError(t, err)
	defer l.Close()

	l.Logger.Debug("before")
	l.SetVerbose(true)
	l.Logger.Debug("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "after")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "after", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
}

func TestNew_FileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habitpulse.log")
	for i := 0; i < 2; i++ {
		l, err := New(Options{Stderr: &bytes.Buffer{}, File: path})
		require.NoError(t, err)
		l.Logger.Info("run")
		require.NoError(t, l.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), `"msg":"run"`))
}

func TestNew_UnwritableFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := New(Options{Stderr: &bytes.Buffer{}, File: filepath.Join(blocker, "sub", "x.log")})
	assert.Error(t, err)
}

func TestNew_JournalNeverFails(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Stderr: &buf, Journal: true})
	require.NoError(t, err)
	l.Logger.Info("still logs")
	assert.Contains(t, buf.String(), "still logs")
}

func TestToJournalKey(t *testing.T) {
	assert.Equal(t, "HABIT_ID", toJournalKey("habit_id"))
	assert.Equal(t, "LAST_RESET", toJournalKey("last-reset"))
	assert.Equal(t, "A1_B", toJournalKey("a1.b"))
}
