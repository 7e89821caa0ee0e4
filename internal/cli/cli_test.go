package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-pdftools/internal/registry"
	"github.com/sammcj/mcp-pdftools/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T, output OutputFormat) (*Runner, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true

	registry.Init(testutils.CreateTestLogger())
	r := NewRunner(testutils.CreateTestLogger(), testutils.CreateTestCache(), output)
	buf := &bytes.Buffer{}
	r.SetOutput(buf)
	return r, buf
}

func register(t *testing.T, tool *testutils.MockTool) *testutils.MockTool {
	t.Helper()
	registry.Register(tool)
	t.Cleanup(func() { registry.Unregister(tool.Definition().Name) })
	return tool
}

func TestParseArgs(t *testing.T) {
	def := mcp.NewTool("pdf_thing",
		mcp.WithString("output_path"),
		mcp.WithNumber("width"),
		mcp.WithBoolean("clear_cache"),
		mcp.WithArray("paths", mcp.WithStringItems()),
	)

	params, err := parseArgs([]string{
		"--output-path=/tmp/out.pdf",
		"--width", "120",
		"--clear-cache",
		"--paths=/a.pdf,/b.pdf",
		`{"width": 5, "extra": "x"}`,
	}, def)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/out.pdf", params["output_path"])
	assert.Equal(t, int64(120), params["width"])
	assert.Equal(t, true, params["clear_cache"])
	assert.Equal(t, []string{"/a.pdf", "/b.pdf"}, params["paths"])
	assert.Equal(t, "x", params["extra"])

	params, err = parseArgs([]string{`--paths=["/a.pdf"]`}, def)
	require.NoError(t, err)
	assert.Equal(t, []any{"/a.pdf"}, params["paths"])

	_, err = parseArgs([]string{"--width"}, def)
	assert.ErrorContains(t, err, "requires a value")

	_, err = parseArgs([]string{"stray"}, def)
	assert.ErrorContains(t, err, "unexpected argument")

	_, err = parseArgs([]string{"{broken"}, def)
	assert.ErrorContains(t, err, "invalid JSON")
}

func TestCoerceValue(t *testing.T) {
	assert.Equal(t, int64(3), coerceValue("3", "integer"))
	assert.Equal(t, 1.5, coerceValue("1.5", "number"))
	assert.Equal(t, "wide", coerceValue("wide", "number"))
	assert.Equal(t, false, coerceValue("no", "boolean"))
	assert.Equal(t, map[string]any{"a": 1.0}, coerceValue(`{"a": 1}`, "object"))
	assert.Equal(t, "text", coerceValue("text", "string"))
}

func TestToFlagName(t *testing.T) {
	assert.Equal(t, "page-order", toFlagName("page_order"))
	assert.Equal(t, "page-count", toFlagName("pageCount"))
	assert.Equal(t, "pdf-info", toFlagName("pdf_info"))
}

func TestRunTool(t *testing.T) {
	r, buf := newTestRunner(t, OutputText)
	mock := register(t, testutils.NewMockTool("pdf_mock_run"))

	require.NoError(t, r.RunTool(context.Background(), "pdf-mock-run", []string{"--input=hello"}))
	assert.Equal(t, "hello", mock.LastArgs()["input"])
	assert.Contains(t, buf.String(), "mock result")
}

func TestRunTool_RendersOutcome(t *testing.T) {
	r, buf := newTestRunner(t, OutputText)
	register(t, testutils.NewMockTool("pdf_mock_ok").WithResult(mcp.NewToolResultText(`{"success": true, "outputPath": "/tmp/x.pdf"}`)))
	register(t, testutils.NewMockTool("pdf_mock_fail").WithResult(mcp.NewToolResultText(`{"success": false, "error": "file is empty"}`)))

	require.NoError(t, r.RunTool(context.Background(), "pdf_mock_ok", nil))
	assert.Contains(t, buf.String(), "✓ Success")

	buf.Reset()
	err := r.RunTool(context.Background(), "pdf_mock_fail", nil)
	assert.ErrorContains(t, err, "file is empty")
	assert.Contains(t, buf.String(), "✗ Failed: file is empty")
}

func TestRunTool_Errors(t *testing.T) {
	r, _ := newTestRunner(t, OutputText)
	register(t, testutils.NewMockTool("pdf_mock_err").WithError(errors.New("boom")))

	err := r.RunTool(context.Background(), "pdf_mock_err", nil)
	assert.ErrorContains(t, err, "tool error: boom")

	err = r.RunTool(context.Background(), "pdf_mock_er", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool: pdf_mock_er")
	assert.Contains(t, err.Error(), "did you mean")
}

func TestListTools_JSON(t *testing.T) {
	r, buf := newTestRunner(t, OutputJSON)
	register(t, testutils.NewMockTool("pdf_mock_list"))

	require.NoError(t, r.ListTools())

	var entries []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "pdf_mock_list")
}

func TestHelpTool(t *testing.T) {
	r, buf := newTestRunner(t, OutputText)
	register(t, testutils.NewMockTool("pdf_mock_help"))

	require.NoError(t, r.HelpTool("pdf-mock-help"))
	out := buf.String()
	assert.Contains(t, out, "Tool: pdf_mock_help")
	assert.Contains(t, out, "--input")
	assert.Contains(t, out, "(required)")

	assert.Error(t, r.HelpTool("nope"))
}

func TestFormatEnum(t *testing.T) {
	color.NoColor = true
	assert.Equal(t, " [a|b]", formatEnum(map[string]any{"enum": []string{"a", "b"}}))
	assert.Equal(t, " [1|2]", formatEnum(map[string]any{"enum": []any{1, 2}}))
	assert.Empty(t, formatEnum(map[string]any{}))
}

func TestExampleFlags(t *testing.T) {
	got := exampleFlags(map[string]any{"path": "/a.pdf", "page_index": 0})
	assert.Equal(t, " --page-index='0' --path=/a.pdf", got)
}
