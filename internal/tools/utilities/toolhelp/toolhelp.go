package toolhelp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sahilm/fuzzy"
	"github.com/sammcj/mcp-pdftools/internal/registry"
	"github.com/sammcj/mcp-pdftools/internal/tools"
	"github.com/sirupsen/logrus"
)

// ToolHelpTool returns examples and troubleshooting for the other tools
type ToolHelpTool struct{}

// ToolHelpResponse is the output of get_tool_help
type ToolHelpResponse struct {
	ToolName     string              `json:"tool_name"`
	Description  string              `json:"description"`
	InputSchema  mcp.ToolInputSchema `json:"input_schema"`
	ExtendedInfo *tools.ExtendedHelp `json:"extended_info,omitempty"`
}

func init() {
	registry.Register(&ToolHelpTool{})
}

// Definition returns the tool's definition for MCP registration.
// The enum is rebuilt on every call so it reflects the tools enabled at that point.
func (t *ToolHelpTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"get_tool_help",
		mcp.WithDescription("Get detailed usage examples and troubleshooting for the PDF tools when a call fails unexpectedly."),
		mcp.WithString("tool_name",
			mcp.Required(),
			mcp.Description("Name of the tool to get help for"),
			mcp.Enum(registry.GetToolNamesWithExtendedHelp()...),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// Execute returns the extended help of the named tool
func (t *ToolHelpTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	toolName, ok := args["tool_name"].(string)
	if !ok || strings.TrimSpace(toolName) == "" {
		return nil, fmt.Errorf("invalid parameters: missing or invalid required parameter: tool_name")
	}
	toolName = strings.ReplaceAll(strings.TrimSpace(toolName), "-", "_")

	available := registry.GetToolNamesWithExtendedHelp()
	tool, exists := registry.GetTool(toolName)
	provider, hasHelp := tool.(tools.ExtendedHelpProvider)
	if !exists || !hasHelp {
		msg := fmt.Sprintf("tool '%s' not found, disabled, or does not provide extended help", toolName)
		if suggestion := Suggest(toolName, available); suggestion != "" {
			msg += fmt.Sprintf(". Did you mean '%s'?", suggestion)
		}
		return nil, fmt.Errorf("%s. Tools with extended help: %s", msg, strings.Join(available, ", "))
	}

	definition := tool.Definition()
	logger.WithField("tool", toolName).Debug("Providing extended help")

	return tools.NewToolResultJSON(&ToolHelpResponse{
		ToolName:     toolName,
		Description:  definition.Description,
		InputSchema:  definition.InputSchema,
		ExtendedInfo: provider.ProvideExtendedInfo(),
	})
}

// Suggest returns the closest match to name among candidates, or "" when nothing is close
func Suggest(name string, candidates []string) string {
	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
