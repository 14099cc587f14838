package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "smallest valid scenario"
start: "2026-10-19T08:00:00Z"
steps:
  - action: tick
assertions:
  - type: habit_count
    count: 0
`

func TestLoadScenario_AllTestdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			assert.NotEmpty(t, s.Name)
			assert.NotEmpty(t, s.Steps)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, StepTick, s.Steps[0].Action)
	require.NotNil(t, s.Assertions[0].Count)
	assert.Equal(t, 0, *s.Assertions[0].Count)
	assert.Nil(t, s.Reminders)
	assert.Nil(t, s.WarningHour)
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `
description: d
start: "2026-10-19T08:00:00Z"
steps: [{action: tick}]
assertions: [{type: habit_count, count: 0}]
`,
			want: "name is required",
		},
		{
			name: "bad start",
			yaml: `
name: n
description: d
start: "yesterday"
steps: [{action: tick}]
assertions: [{type: habit_count, count: 0}]
`,
			want: "start must be an RFC 3339 time",
		},
		{
			name: "bad last reset date",
			yaml: `
name: n
description: d
start: "2026-10-19T08:00:00Z"
last_reset_date: "10/19/2026"
steps: [{action: tick}]
assertions: [{type: habit_count, count: 0}]
`,
			want: "last_reset_date must be YYYY-MM-DD",
		},
		{
			name: "warning hour out of range",
			yaml: `
name: n
description: d
start: "2026-10-19T08:00:00Z"
warning_hour: 24
steps: [{action: tick}]
assertions: [{type: habit_count, count: 0}]
`,
			want: "warning_hour must be between 0 and 23",
		},
		{
			name: "bad reminder time",
			yaml: `
name: n
description: d
start: "2026-10-19T08:00:00Z"
reminders: {enabled: true, reminder_time: "9am"}
steps: [{action: tick}]
assertions: [{type: habit_count, count: 0}]
`,
			want: "reminders:",
		},
		{
			name: "no steps",
			yaml: `
name: n
description: d
start: "2026-10-19T08:00:00Z"
steps: []
assertions: [{type: habit_count, count: 0}]
`,
			want: "steps list is required",
		},
		{
			name: "unknown action",
			yaml: `
name: n
description: d
start: "2026-10-19T08:00:00Z"
steps: [{action: jump}]
assertions: [{type: habit_count, count: 0}]
`,
			want: `steps[0]: unknown action "jump"`,
		},
		{
			name: "toggle without id",
			yaml: `
name: n
description: d
start: "2026-10-19T08:00:00Z"
steps: [{action: toggle}]
assertions: [{type: habit_count, count: 0}]
`,
			want: "steps[0]: toggle requires id",
		},
		{
			name: "negative advance",
			yaml: `
name: n
description: d
start: "2026-10-19T08:00:00Z"
steps: [{action: advance, duration: "-1h"}]
assertions: [{type: habit_count, count: 0}]
`,
			want: "advance duration must be positive",
		},
		{
			name: "edit without changes",
			yaml: `
name: n
description: d
start: "2026-10-19T08:00:00Z"
steps: [{action: edit, id: habit-1}]
assertions: [{type: habit_count, count: 0}]
`,
			want: "edit requires title, category or emoji",
		},
		{
			name: "trace_count without count",
			yaml: `
name: n
description: d
start: "2026-10-19T08:00:00Z"
steps: [{action: tick}]
assertions: [{type: trace_count, event: rollover}]
`,
			want: "trace_count requires event and count",
		},
		{
			name: "unknown assertion",
			yaml: `
name: n
description: d
start: "2026-10-19T08:00:00Z"
steps: [{action: tick}]
assertions: [{type: state}]
`,
			want: `assertions[0]: unknown type "state"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
