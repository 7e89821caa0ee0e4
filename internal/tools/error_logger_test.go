package tools

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, path string) []ToolErrorLogEntry {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var entries []ToolErrorLogEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry ToolErrorLogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestToolErrorLogger_LogToolError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tool-errors.log")
	logger, err := NewToolErrorLogger(path, logrus.New())
	require.NoError(t, err)
	defer logger.Close()

	assert.True(t, logger.IsEnabled())
	assert.Equal(t, path, logger.GetLogFilePath())

	logger.LogToolError("pdf_compress", map[string]any{
		"path":   "/docs/a.pdf",
		"preset": "ebook",
		"engine": "ghostscript",
	}, errors.New("file is empty"), "stdio")
	logger.LogToolError("pdf_info", nil, nil, "stdio")

	entries := readEntries(t, path)
	require.Len(t, entries, 1, "nil errors are not recorded")
	assert.Equal(t, "pdf_compress", entries[0].ToolName)
	assert.Equal(t, "file is empty", entries[0].Error)
	assert.Equal(t, "stdio", entries[0].Transport)
	assert.Equal(t, []string{"/docs/a.pdf"}, entries[0].Paths)
	assert.Equal(t, "ebook", entries[0].Options["preset"])
}

func TestNewToolErrorLogEntry_SummarisesBulkyArguments(t *testing.T) {
	docs := []any{
		map[string]any{"name": "a.pdf", "data": strings.Repeat("A", 5000)},
		map[string]any{"name": "b.pdf", "data": strings.Repeat("B", 5000)},
	}
	entry := NewToolErrorLogEntry("pdf_combine", map[string]any{
		"paths":       []any{"/in/a.pdf", "", "/in/b.pdf"},
		"output_path": "/out/c.pdf",
		"documents":   docs,
		"page_order":  strings.Repeat("1,", 300),
	}, errors.New("boom"), "http")

	assert.Equal(t, []string{"/out/c.pdf", "/in/a.pdf", "/in/b.pdf"}, entry.Paths)
	assert.Equal(t, "[2 items]", entry.Options["documents"])
	assert.Contains(t, entry.Options["page_order"], "... (600 bytes)")
}

func TestToolErrorLogger_Disabled(t *testing.T) {
	logger := GetGlobalErrorLogger()
	assert.NotNil(t, logger)
	// A disabled logger silently ignores entries
	logger.LogToolError("pdf_info", nil, errors.New("boom"), "stdio")
	assert.NoError(t, logger.Close())
}

func TestToolErrorLogger_Prune(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tool-errors.log")
	now := time.Now()

	old := ToolErrorLogEntry{Timestamp: now.AddDate(0, 0, -DefaultLogRetentionDays-1).Format(time.RFC3339), ToolName: "old", Error: "x"}
	recent := ToolErrorLogEntry{Timestamp: now.Format(time.RFC3339), ToolName: "recent", Error: "y"}
	var lines []string
	for _, e := range []ToolErrorLogEntry{old, recent} {
		data, err := json.Marshal(e)
		require.NoError(t, err)
		lines = append(lines, string(data))
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600))

	logger, err := NewToolErrorLogger(path, logrus.New())
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.prune(now))

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "recent", entries[0].ToolName)

	// The log stays writable after pruning
	logger.LogToolError("pdf_reorder", map[string]any{"path": "/a.pdf"}, errors.New("invalid page order"), "stdio")
	assert.Len(t, readEntries(t, path), 2)
}

func TestToolErrorLogger_PruneCapsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tool-errors.log")
	logger, err := NewToolErrorLogger(path, logrus.New())
	require.NoError(t, err)
	defer logger.Close()

	for i := 0; i < MaxLogEntries+5; i++ {
		logger.LogToolError("pdf_info", nil, errors.New("boom"), "stdio")
	}
	require.NoError(t, logger.prune(time.Now()))
	assert.Len(t, readEntries(t, path), MaxLogEntries)
}

func TestIsToolEnabled(t *testing.T) {
	t.Setenv(EnableAdditionalToolsEnvVar, "")
	assert.False(t, IsToolEnabled("pdf_save"))

	t.Setenv(EnableAdditionalToolsEnvVar, " PDF-Save , other")
	assert.True(t, IsToolEnabled("pdf_save"))
	assert.False(t, IsToolEnabled("pdf_info"))

	t.Setenv(EnableAdditionalToolsEnvVar, "all")
	assert.True(t, IsToolEnabled("anything"))
}
