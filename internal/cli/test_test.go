package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: missed_day
description: "A missed day resets the streak"
start: "2026-10-19T09:00:00Z"
last_reset_date: "2026-10-19"
steps:
  - action: add
    title: Run
  - action: toggle
    id: habit-1
  - action: advance
    duration: 48h
  - action: tick
assertions:
  - type: habit
    id: habit-1
    expect: {streak: 0, totalDays: 2}
`

const failingScenario = `name: wrong_expectation
description: "Expects a streak that is never built"
start: "2026-10-19T09:00:00Z"
steps:
  - action: add
    title: Run
assertions:
  - type: habit
    id: habit-1
    expect: {streak: 3}
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runTestCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	for i, a := range args {
		if a == "--format=json" {
			rootOpts.Format = "json"
			args = append(args[:i:i], args[i+1:]...)
			break
		}
	}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestTestCommandNonExistentPath(t *testing.T) {
	_, err := runTestCommand(t, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario path not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := runTestCommand(t, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandPassing(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "missed_day.yaml", passingScenario)

	out, err := runTestCommand(t, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ missed_day")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandFailing(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "missed_day.yaml", passingScenario)
	writeScenario(t, dir, "wrong.yaml", failingScenario)

	out, err := runTestCommand(t, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_expectation")
	assert.Contains(t, out, "streak: got 0, want 3")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "missed_day.yaml", passingScenario)
	writeScenario(t, dir, "wrong.yaml", failingScenario)

	out, err := runTestCommand(t, dir, "--filter", "missed*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")
}

func TestTestCommandJSON(t *testing.T) {
	dir := t.TempDir()
	file := writeScenario(t, dir, "wrong.yaml", failingScenario)

	out, err := runTestCommand(t, "--format=json", file)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeTestFailed, resp.Error.Code)
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	file := writeScenario(t, dir, "missed_day.yaml", passingScenario)

	out, err := runTestCommand(t, file, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "golden updated")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "missed_day.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name": "missed_day"`)
	assert.Contains(t, string(golden), `"2026-10-20"`)

	_, err = runTestCommand(t, file)
	require.NoError(t, err)

	// A stale golden file fails the scenario.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "missed_day.golden"), []byte("{}\n"), 0o644))
	out, err = runTestCommand(t, file)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "missed.golden"), goldenFilePath(filepath.Join("scenarios", "missed.yaml")))
}
