package testutils

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// CreateTestLogger creates a logger suitable for testing
func CreateTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return logger
}

// CreateTestCache creates a cache suitable for testing
func CreateTestCache() *sync.Map {
	return &sync.Map{}
}

// CreateTestContext creates a context suitable for testing
func CreateTestContext() context.Context {
	return context.Background()
}

// IsolateWorkspace points every on-disk location used by the tools at fresh temp dirs
func IsolateWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("PDFTOOLS_WORK_DIR", root+"/work")
	t.Setenv("PDFTOOLS_CACHE_DIR", root+"/cache")
	t.Setenv("PDFTOOLS_STATE_PATH", root+"/state.json")
	return root
}

// ResultText returns the text of the first content block of a tool result
func ResultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content, "expected content in tool result")

	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

// DecodeResult unmarshals the JSON text of a tool result into out
func DecodeResult(t *testing.T, result *mcp.CallToolResult, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(ResultText(t, result)), out))
}
