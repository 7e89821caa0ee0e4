package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-pdftools/internal/pdf"
	"github.com/sammcj/mcp-pdftools/internal/testutils"
	"github.com/sammcj/mcp-pdftools/internal/tools"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"":        logrus.WarnLevel,
		"debug":   logrus.DebugLevel,
		" INFO ":  logrus.InfoLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"verbose": logrus.WarnLevel,
	}
	for value, want := range tests {
		t.Setenv("LOG_LEVEL", value)
		assert.Equal(t, want, parseLogLevel(), value)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, loadDotEnv())

	t.Setenv("PDFTOOLS_DOTENV_TEST", "")
	require.NoError(t, os.Unsetenv("PDFTOOLS_DOTENV_TEST"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PDFTOOLS_DOTENV_TEST=loaded\n"), 0600))
	require.NoError(t, loadDotEnv())
	assert.Equal(t, "loaded", os.Getenv("PDFTOOLS_DOTENV_TEST"))
}

func TestAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := authMiddleware("s3cret", testutils.CreateTestLogger(), next)

	tests := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"missing token", nil, http.StatusUnauthorized},
		{"wrong token", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"wrong scheme", map[string]string{"Authorization": "Basic s3cret"}, http.StatusUnauthorized},
		{"valid token", map[string]string{"Authorization": "Bearer s3cret"}, http.StatusNoContent},
		{"foreign origin", map[string]string{"Authorization": "Bearer s3cret", "Origin": "https://evil.example"}, http.StatusForbidden},
		{"local origin", map[string]string{"Authorization": "Bearer s3cret", "Origin": "http://localhost:3000"}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/http", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	authMiddleware("", testutils.CreateTestLogger(), next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/http", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestIsValidOrigin(t *testing.T) {
	assert.True(t, isValidOrigin("http://localhost"))
	assert.True(t, isValidOrigin("https://127.0.0.1:8443"))
	assert.False(t, isValidOrigin("http://localhost.evil.example"))
	assert.False(t, isValidOrigin("https://example.com"))
}

func TestTimeoutSessionManager(t *testing.T) {
	m := NewTimeoutSessionManager(time.Hour, testutils.CreateTestLogger())

	id := m.Generate()
	assert.NotEmpty(t, id)
	assert.NotEqual(t, id, m.Generate())

	terminated, err := m.Validate(id)
	require.NoError(t, err)
	assert.False(t, terminated)

	notAllowed, err := m.Terminate(id)
	require.NoError(t, err)
	assert.False(t, notAllowed)

	terminated, err = m.Validate(id)
	require.NoError(t, err)
	assert.True(t, terminated)

	_, err = m.Validate("")
	assert.Error(t, err)
}

func TestTimeoutSessionManager_Expiry(t *testing.T) {
	m := NewTimeoutSessionManager(time.Millisecond, testutils.CreateTestLogger())
	id := m.Generate()
	time.Sleep(5 * time.Millisecond)

	terminated, err := m.Validate(id)
	require.NoError(t, err)
	assert.True(t, terminated)
}

func TestRecordFailure(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tool-errors.log")
	errorLogger, err := tools.NewToolErrorLogger(logPath, testutils.CreateTestLogger())
	require.NoError(t, err)
	defer errorLogger.Close()

	logger := testutils.CreateTestLogger()
	args := map[string]any{"paths": []any{"/in/a.pdf", "/in/b.pdf"}}

	failed, err := tools.NewToolResultJSON(pdf.CombineFailure(2, pdf.ErrOutputExists))
	require.NoError(t, err)
	succeeded, err := tools.NewToolResultJSON(&pdf.CombineResult{Success: true, FileCount: 2, PageCount: 3, OutputPath: "/tmp/c.pdf"})
	require.NoError(t, err)

	recordFailure(errorLogger, logger, "pdf_combine", "stdio", args, failed, nil)
	recordFailure(errorLogger, logger, "pdf_combine", "stdio", args, succeeded, nil)
	recordFailure(errorLogger, logger, "pdf_reorder", "http", map[string]any{"path": "/in/a.pdf"}, nil, errors.New("invalid page order"))
	recordFailure(errorLogger, logger, "file_info", "stdio", nil, mcp.NewToolResultText("plain text"), nil)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"tool_name":"pdf_combine"`)
	assert.Contains(t, lines[0], pdf.ErrOutputExists.Error())
	assert.Contains(t, lines[1], `"tool_name":"pdf_reorder"`)
	assert.Contains(t, lines[1], `"transport":"http"`)
}
