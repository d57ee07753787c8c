// Package audit records every split run as one JSON line in a local log file.
package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry represents a single audit log entry.
type Entry struct {
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
	Machine    string    `json:"machine"`
	Command    string    `json:"command"`
	Args       []string  `json:"args,omitempty"`
	InputFile  string    `json:"input_file,omitempty"`
	OutputFile string    `json:"output_file,omitempty"`
	Groups     int       `json:"groups"`
	Rows       int       `json:"rows"`
	ExitCode   int       `json:"exit_code"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Logger appends audit entries to a file.
type Logger struct {
	FilePath string
	Enabled  bool
}

// NewLogger creates a Logger. A disabled logger or an empty path makes Log a no-op.
func NewLogger(filePath string, enabled bool) *Logger {
	return &Logger{
		FilePath: filePath,
		Enabled:  enabled,
	}
}

// NewEntry starts an entry for a run of command with a fresh run id.
func NewEntry(command string, args []string) Entry {
	machine, _ := os.Hostname()
	return Entry{
		RunID:     uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Machine:   machine,
		Command:   command,
		Args:      args,
	}
}

// Finish fills in the outcome of the run started at e.Timestamp.
func (e *Entry) Finish(exitCode int, err error) {
	e.ExitCode = exitCode
	e.DurationMs = time.Since(e.Timestamp).Milliseconds()
	if err != nil {
		e.Error = err.Error()
	}
}

// Log writes a single audit entry. Best-effort: failures never reach the caller.
func (l *Logger) Log(_ context.Context, entry Entry) error {
	if l == nil || !l.Enabled || l.FilePath == "" {
		return nil
	}

	// Ensure parent directory exists
	dir := filepath.Dir(l.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil // never block a run on the audit log
	}

	f, err := os.OpenFile(l.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return nil
	}
	data = append(data, '\n')
	_, _ = f.Write(data)
	return nil
}

// ReadEntries reads all audit entries from the log file.
func ReadEntries(filePath string) ([]Entry, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue // skip malformed lines
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// FilterEntries returns entries matching the given criteria. Zero values match everything.
func FilterEntries(entries []Entry, since, until time.Time, command string) []Entry {
	var result []Entry
	for _, e := range entries {
		if !since.IsZero() && e.Timestamp.Before(since) {
			continue
		}
		if !until.IsZero() && e.Timestamp.After(until) {
			continue
		}
		if command != "" && !strings.Contains(e.Command, command) {
			continue
		}
		result = append(result, e)
	}
	return result
}

// Last returns at most n entries from the end of entries.
func Last(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[len(entries)-n:]
}

// LogSize returns the size of the audit log in bytes, or 0 if not found.
func LogSize(filePath string) int64 {
	info, err := os.Stat(filePath)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Clear truncates the audit log file. A missing log is not an error.
func Clear(filePath string) error {
	err := os.Truncate(filePath, 0)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
