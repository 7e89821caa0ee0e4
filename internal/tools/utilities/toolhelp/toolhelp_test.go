package toolhelp

import (
	"context"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-pdftools/internal/registry"
	"github.com/sammcj/mcp-pdftools/internal/testutils"
	"github.com/sammcj/mcp-pdftools/internal/tools"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type helpfulTool struct{}

func (helpfulTool) Definition() mcp.Tool {
	return mcp.NewTool("pdf_helpful", mcp.WithDescription("A tool with help"))
}

func (helpfulTool) Execute(context.Context, *logrus.Logger, *sync.Map, map[string]any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("ok"), nil
}

func (helpfulTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{WhenToUse: "Always"}
}

func setup(t *testing.T) {
	t.Helper()
	registry.Init(testutils.CreateTestLogger())
	registry.Register(helpfulTool{})
	registry.Register(testutils.NewMockTool("pdf_plain"))
	t.Cleanup(func() {
		registry.Unregister("pdf_helpful")
		registry.Unregister("pdf_plain")
	})
}

func TestDefinition_ListsToolsWithHelp(t *testing.T) {
	setup(t)

	def := (&ToolHelpTool{}).Definition()
	assert.Equal(t, "get_tool_help", def.Name)

	prop, ok := def.InputSchema.Properties["tool_name"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, prop["enum"], "pdf_helpful")
	assert.NotContains(t, prop["enum"], "pdf_plain")
}

func TestExecute(t *testing.T) {
	setup(t)
	tool := &ToolHelpTool{}

	result, err := tool.Execute(context.Background(), testutils.CreateTestLogger(), testutils.CreateTestCache(), map[string]any{"tool_name": "pdf-helpful"})
	require.NoError(t, err)

	var response ToolHelpResponse
	testutils.DecodeResult(t, result, &response)
	assert.Equal(t, "pdf_helpful", response.ToolName)
	assert.Equal(t, "A tool with help", response.Description)
	require.NotNil(t, response.ExtendedInfo)
	assert.Equal(t, "Always", response.ExtendedInfo.WhenToUse)
}

func TestExecute_UnknownTool(t *testing.T) {
	setup(t)
	tool := &ToolHelpTool{}

	_, err := tool.Execute(context.Background(), testutils.CreateTestLogger(), testutils.CreateTestCache(), map[string]any{"tool_name": "pdf_helpfull"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = tool.Execute(context.Background(), testutils.CreateTestLogger(), testutils.CreateTestCache(), map[string]any{"tool_name": "pdf_plain"})
	assert.ErrorContains(t, err, "does not provide extended help")

	_, err = tool.Execute(context.Background(), testutils.CreateTestLogger(), testutils.CreateTestCache(), map[string]any{})
	assert.ErrorContains(t, err, "tool_name")
}

func TestSuggest(t *testing.T) {
	candidates := []string{"pdf_combine", "pdf_compress", "pdf_info"}
	assert.Equal(t, "pdf_info", Suggest("pdfinfo", candidates))
	assert.Empty(t, Suggest("zzz", candidates))
}
