package tools

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultLogRetentionDays is how long failed operations stay in the log
	DefaultLogRetentionDays = 60
	// MaxLogEntries caps the log after pruning, newest entries win
	MaxLogEntries = 2000

	// ToolErrorsEnvVar turns on the tool error log when set to "true"
	ToolErrorsEnvVar = "LOG_TOOL_ERRORS"

	maxOptionLength = 200
)

// pathArgs are argument names that carry file locations
var pathArgs = map[string]bool{
	"path":        true,
	"paths":       true,
	"path_a":      true,
	"path_b":      true,
	"output_path": true,
	"temp_path":   true,
}

// ToolErrorLogEntry is one failed PDF operation
type ToolErrorLogEntry struct {
	Timestamp string         `json:"timestamp"`
	ToolName  string         `json:"tool_name"`
	Paths     []string       `json:"paths,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
	Error     string         `json:"error"`
	Transport string         `json:"transport,omitempty"`
}

// ToolErrorLogger appends failed operations to a JSON lines file shared by
// every mcp-pdftools process on the machine
type ToolErrorLogger struct {
	enabled  bool
	logFile  *os.File
	lock     *flock.Flock
	logger   *logrus.Logger
	mu       sync.Mutex
	filePath string
}

var (
	globalErrorLogger *ToolErrorLogger
	errorLoggerOnce   sync.Once
)

// DefaultErrorLogPath returns ~/.mcp-pdftools/logs/tool-errors.log
func DefaultErrorLogPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".mcp-pdftools", "logs", "tool-errors.log"), nil
}

// InitGlobalErrorLogger initialises the global error logger
func InitGlobalErrorLogger(logger *logrus.Logger) error {
	var initErr error
	errorLoggerOnce.Do(func() {
		if os.Getenv(ToolErrorsEnvVar) != "true" {
			globalErrorLogger = &ToolErrorLogger{logger: logger}
			return
		}

		logFilePath, err := DefaultErrorLogPath()
		if err != nil {
			initErr = err
			return
		}

		globalErrorLogger, initErr = NewToolErrorLogger(logFilePath, logger)
		if initErr != nil {
			return
		}

		go func() {
			if pruneErr := globalErrorLogger.prune(time.Now()); pruneErr != nil {
				logger.WithError(pruneErr).Warn("Failed to prune tool error log")
			}
		}()

		logger.Infof("Tool error logging enabled: %s", logFilePath)
	})

	return initErr
}

// NewToolErrorLogger opens (or creates) a JSON lines error log at logFilePath
func NewToolErrorLogger(logFilePath string, logger *logrus.Logger) (*ToolErrorLogger, error) {
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &ToolErrorLogger{
		enabled:  true,
		lock:     flock.New(logFilePath + ".lock"),
		logger:   logger,
		filePath: logFilePath,
	}
	if err := l.openLocked(); err != nil {
		return nil, err
	}
	return l, nil
}

// GetGlobalErrorLogger returns the global error logger, disabled if never initialised
func GetGlobalErrorLogger() *ToolErrorLogger {
	if globalErrorLogger == nil {
		return &ToolErrorLogger{}
	}
	return globalErrorLogger
}

// NewToolErrorLogEntry splits tool arguments into file paths and short options.
// Bulky values such as inline document data are summarised rather than stored.
func NewToolErrorLogEntry(toolName string, args map[string]any, err error, transport string) ToolErrorLogEntry {
	entry := ToolErrorLogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		ToolName:  toolName,
		Error:     err.Error(),
		Transport: transport,
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := args[key]
		if pathArgs[key] {
			entry.Paths = append(entry.Paths, pathValues(value)...)
			continue
		}
		if entry.Options == nil {
			entry.Options = make(map[string]any)
		}
		entry.Options[key] = summariseOption(value)
	}
	return entry
}

func pathValues(value any) []string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func summariseOption(value any) any {
	switch v := value.(type) {
	case string:
		if len(v) > maxOptionLength {
			return fmt.Sprintf("%s... (%d bytes)", v[:maxOptionLength], len(v))
		}
		return v
	case []any:
		return fmt.Sprintf("[%d items]", len(v))
	case []string:
		return fmt.Sprintf("[%d items]", len(v))
	case map[string]any:
		return fmt.Sprintf("{%d fields}", len(v))
	}
	return value
}

// LogToolError records a failed operation
func (l *ToolErrorLogger) LogToolError(toolName string, args map[string]any, err error, transport string) {
	if !l.enabled || err == nil {
		return
	}

	data, marshalErr := json.Marshal(NewToolErrorLogEntry(toolName, args, err, transport))
	if marshalErr != nil {
		l.warn(marshalErr, "Failed to marshal tool error log entry")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile == nil {
		return
	}

	if err := l.lock.Lock(); err != nil {
		l.warn(err, "Failed to lock tool error log")
		return
	}
	defer func() { _ = l.lock.Unlock() }()

	if _, writeErr := l.logFile.Write(append(data, '\n')); writeErr != nil {
		l.warn(writeErr, "Failed to write tool error log entry")
		return
	}
	if syncErr := l.logFile.Sync(); syncErr != nil {
		l.warn(syncErr, "Failed to sync tool error log file")
	}
}

// Close closes the log file
func (l *ToolErrorLogger) Close() error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile == nil {
		return nil
	}
	err := l.logFile.Close()
	l.logFile = nil
	return err
}

func (l *ToolErrorLogger) IsEnabled() bool {
	return l.enabled
}

func (l *ToolErrorLogger) GetLogFilePath() string {
	return l.filePath
}

// prune rewrites the log without entries older than the retention window,
// then trims it to MaxLogEntries. Malformed lines are kept.
func (l *ToolErrorLogger) prune(now time.Time) error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock tool error log: %w", err)
	}
	if !locked {
		// Another process is writing or pruning; it will get to it
		return nil
	}
	defer func() { _ = l.lock.Unlock() }()

	if l.logFile != nil {
		if err := l.logFile.Close(); err != nil {
			return fmt.Errorf("failed to close log file for pruning: %w", err)
		}
		l.logFile = nil
	}

	kept, err := readRecentLines(l.filePath, now.AddDate(0, 0, -DefaultLogRetentionDays))
	if err != nil {
		_ = l.openLocked()
		return err
	}
	if len(kept) > MaxLogEntries {
		kept = kept[len(kept)-MaxLogEntries:]
	}

	content := ""
	if len(kept) > 0 {
		content = strings.Join(kept, "\n") + "\n"
	}
	tmpPath := l.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0600); err != nil {
		_ = l.openLocked()
		return fmt.Errorf("failed to write pruned log file: %w", err)
	}
	if err := os.Rename(tmpPath, l.filePath); err != nil {
		_ = os.Remove(tmpPath)
		_ = l.openLocked()
		return fmt.Errorf("failed to replace log file: %w", err)
	}

	return l.openLocked()
}

func readRecentLines(path string, cutoff time.Time) ([]string, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	var kept []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry ToolErrorLogEntry
		if json.Unmarshal([]byte(line), &entry) != nil {
			kept = append(kept, line)
			continue
		}
		ts, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil || ts.After(cutoff) {
			kept = append(kept, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}
	return kept, nil
}

// openLocked opens the log in append mode. Caller holds l.mu.
func (l *ToolErrorLogger) openLocked() error {
	logFile, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open tool error log file: %w", err)
	}
	l.logFile = logFile
	return nil
}

func (l *ToolErrorLogger) warn(err error, msg string) {
	if l.logger != nil {
		l.logger.WithError(err).Warn(msg)
	}
}
