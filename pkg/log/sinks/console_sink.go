package sinks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/arnavsurve/ideflow/pkg/log"
	"github.com/arnavsurve/ideflow/pkg/types"
	"github.com/fatih/color"
)

type ConsoleSink struct {
	out      io.Writer
	minLevel types.Level
}

func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{out: os.Stdout, minLevel: types.DebugLevel}
}

// NewConsoleSinkTo writes to out and drops events below minLevel.
func NewConsoleSinkTo(out io.Writer, minLevel types.Level) *ConsoleSink {
	return &ConsoleSink{out: out, minLevel: minLevel}
}

var levelColorMap = map[types.Level]*color.Color{
	types.DebugLevel: color.New(color.FgCyan),
	types.InfoLevel:  color.New(color.FgGreen),
	types.WarnLevel:  color.New(color.FgYellow),
	types.ErrorLevel: color.New(color.FgRed),
	types.FatalLevel: color.New(color.FgRed, color.Bold),
}

func (c *ConsoleSink) Write(event *log.LogEvent) error {
	if event.Level < c.minLevel {
		return nil
	}

	msg := event.Message
	source := getStringField(event.Fields, "source")
	shellLine := getStringField(event.Fields, "shell_line")
	errorMsg := getStringField(event.Fields, "error")
	levelStr := strings.ToUpper(log.LevelString(event.Level))
	timestampStr := event.Timestamp.Format(time.RFC3339)

	levelFmt := color.New(color.FgWhite).SprintFunc()
	if lc, ok := levelColorMap[event.Level]; ok {
		levelFmt = lc.SprintFunc()
	}
	timestampFmt := color.New(color.FgWhite).SprintFunc()

	commonPrefix := fmt.Sprintf("[%s %s] %s: ",
		levelFmt(levelStr),
		timestampFmt(timestampStr),
		color.CyanString(stepLabel(event.Fields)),
	)

	var output string
	switch {
	case shellLine != "" && source != "":
		output = fmt.Sprintf("%s[terminal/%s]: %s", commonPrefix, color.BlueString(source), shellLine)
	case msg != "" && errorMsg != "":
		output = fmt.Sprintf("%s%s: %s", commonPrefix, msg, errorMsg)
	case errorMsg != "":
		output = fmt.Sprintf("%s%s", commonPrefix, errorMsg)
	case msg != "":
		output = fmt.Sprintf("%s%s", commonPrefix, msg)
	default:
		fieldsStr, _ := json.MarshalIndent(event.Fields, "", "  ")
		output = fmt.Sprintf("%s%s", commonPrefix, string(fieldsStr))
	}
	_, err := fmt.Fprintln(c.out, output)
	return err
}

// stepLabel renders "step 2 ide.open_file" or "workflow" for run-level events.
func stepLabel(fields map[string]any) string {
	idx, ok := fields["step_index"].(float64)
	if !ok {
		return "workflow"
	}
	label := fmt.Sprintf("step %d", int(idx))
	system := getStringField(fields, "system")
	action := getStringField(fields, "action")
	switch {
	case system != "" && action != "":
		label += " " + system + "." + action
	case action != "":
		label += " " + action
	}
	return label
}

// Helper to safely get string field from LogEvent.Fields
func getStringField(fields map[string]any, key string) string {
	if val, ok := fields[key]; ok {
		if strVal, isStr := val.(string); isStr {
			return strVal
		}
	}
	return ""
}

func (c *ConsoleSink) Close() error {
	return nil // Console doesn't need closing
}
