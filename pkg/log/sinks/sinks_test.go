package sinks_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arnavsurve/ideflow/pkg/log"
	"github.com/arnavsurve/ideflow/pkg/log/sinks"
	"github.com/arnavsurve/ideflow/pkg/types"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleSinkLabelsSteps(t *testing.T) {
	color.NoColor = true
	out := &bytes.Buffer{}
	sink := sinks.NewConsoleSinkTo(out, types.InfoLevel)

	require.NoError(t, sink.Write(&log.LogEvent{
		Level:     types.InfoLevel,
		Message:   "Dispatching action",
		Timestamp: time.Now(),
		Fields:    map[string]any{"step_index": float64(1), "system": "ide", "action": "open_file"},
	}))
	require.NoError(t, sink.Write(&log.LogEvent{
		Level:     types.DebugLevel,
		Message:   "hidden",
		Timestamp: time.Now(),
		Fields:    map[string]any{},
	}))
	require.NoError(t, sink.Write(&log.LogEvent{
		Level:     types.InfoLevel,
		Timestamp: time.Now(),
		Fields:    map[string]any{"step_index": float64(0), "source": "STDOUT", "shell_line": "hello"},
	}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "step 1 ide.open_file: Dispatching action")
	assert.Contains(t, lines[1], "[terminal/STDOUT]: hello")
}

func TestFileSinkWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.json")
	sink, err := sinks.NewFileSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.Write(&log.LogEvent{
		Level:     types.ErrorLevel,
		Message:   "step failed",
		Timestamp: time.Now(),
		Fields:    map[string]any{"step_index": 3},
	}))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "step failed", entry["message"])
	assert.Equal(t, float64(3), entry["step_index"])
}
