package sinks

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arnavsurve/ideflow/pkg/log"
	"github.com/arnavsurve/ideflow/pkg/types"
)

// FileSink appends one JSON object per event to a run's log file. Writes are
// buffered; warnings and errors flush immediately so a crash keeps them.
type FileSink struct {
	path string
	file *os.File
	buf  *bufio.Writer
}

// NewFileSink truncates or creates path, creating parent directories as needed.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory for %q: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %q: %w", path, err)
	}
	return &FileSink{path: path, file: f, buf: bufio.NewWriter(f)}, nil
}

func (fs *FileSink) Path() string { return fs.path }

func (fs *FileSink) Write(event *log.LogEvent) error {
	entry := make(map[string]any, len(event.Fields)+3)
	for k, v := range event.Fields {
		entry[k] = v
	}
	entry["level"] = log.LevelString(event.Level)
	entry["time"] = event.Timestamp
	entry["message"] = event.Message

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log event for file sink: %w", err)
	}
	if _, err := fs.buf.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to file sink: %w", err)
	}
	if event.Level >= types.WarnLevel {
		return fs.buf.Flush()
	}
	return nil
}

func (fs *FileSink) Close() error {
	if fs.file == nil {
		return nil
	}
	flushErr := fs.buf.Flush()
	closeErr := fs.file.Close()
	fs.file = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
