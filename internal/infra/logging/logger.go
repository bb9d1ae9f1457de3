// Package logging provides file-based logging for hora.
// Every entry goes to the shared log (<data-dir>/logs/hora.log); entries
// about a task are also appended to that task's own log (logs/task-<id>.log).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/runoshun/hora/internal/domain"
)

// Ensure Logger implements domain.Logger interface.
var _ domain.Logger = (*Logger)(nil)

// Logger writes leveled, task-scoped lines to log files.
// Fields are ordered to minimize memory padding.
type Logger struct {
	now        func() time.Time
	globalFile *os.File
	taskFiles  map[string]*os.File
	dataDir    string
	mu         sync.Mutex
	level      slog.Level
}

// New creates a new Logger that writes under dataDir/logs.
// If dataDir is empty, logging is disabled.
func New(dataDir string, level slog.Level) *Logger {
	return &Logger{
		dataDir:   dataDir,
		level:     level,
		now:       time.Now,
		taskFiles: make(map[string]*os.File),
	}
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openAppend opens path for appending, creating the logs directory first.
func (l *Logger) openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(domain.LogsDir(l.dataDir), 0o750); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// files returns the writers an entry about taskID goes to.
// Caller must hold l.mu.
func (l *Logger) files(taskID string) []*os.File {
	var out []*os.File

	if l.globalFile == nil {
		if f, err := l.openAppend(domain.GlobalLogPath(l.dataDir)); err == nil {
			l.globalFile = f
		}
	}
	if l.globalFile != nil {
		out = append(out, l.globalFile)
	}

	if taskID == "" {
		return out
	}
	f, ok := l.taskFiles[taskID]
	if !ok {
		var err error
		if f, err = l.openAppend(domain.TaskLogPath(l.dataDir, taskID)); err != nil {
			return out
		}
		l.taskFiles[taskID] = f
	}
	return append(out, f)
}

// Close closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	if l.globalFile != nil {
		if err := l.globalFile.Close(); err != nil {
			lastErr = err
		}
		l.globalFile = nil
	}
	for id, f := range l.taskFiles {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(l.taskFiles, id)
	}
	return lastErr
}

// formatLog formats a log entry.
// Format: [2025-12-30 09:32:51] [INFO] [task-<id>] [category] message
func formatLog(t time.Time, level slog.Level, taskID, category, msg string) string {
	scope := "global"
	if taskID != "" {
		scope = "task-" + taskID
	}
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		level.String(),
		scope,
		category,
		msg,
	)
}

func (l *Logger) log(level slog.Level, taskID, category, msg string) {
	if l.dataDir == "" || level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := formatLog(l.now(), level, taskID, category, msg)
	for _, f := range l.files(taskID) {
		_, _ = io.WriteString(f, entry)
	}
}

// Info logs an info message.
func (l *Logger) Info(taskID, category, msg string) {
	l.log(slog.LevelInfo, taskID, category, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(taskID, category, msg string) {
	l.log(slog.LevelDebug, taskID, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(taskID, category, msg string) {
	l.log(slog.LevelWarn, taskID, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(taskID, category, msg string) {
	l.log(slog.LevelError, taskID, category, msg)
}
