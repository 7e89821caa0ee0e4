package pdftools

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-pdftools/internal/config"
	"github.com/sammcj/mcp-pdftools/internal/pdf"
	"github.com/sammcj/mcp-pdftools/internal/registry"
	"github.com/sammcj/mcp-pdftools/internal/tools"
	"github.com/sirupsen/logrus"
)

// GhostscriptStatusTool reports whether Ghostscript is available
type GhostscriptStatusTool struct{}

func init() {
	registry.Register(&GhostscriptStatusTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *GhostscriptStatusTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"ghostscript_status",
		mcp.WithDescription("Report whether Ghostscript is installed, its path and version. Ghostscript is needed for thumbnails and preset based compression. Install instructions are included when it is missing."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Execute checks for Ghostscript, using the cached discovery result when fresh
func (t *GhostscriptStatusTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	status := pdf.GhostscriptStatusFor(ctx, config.GetGlobalState())

	logger.WithFields(logrus.Fields{
		"available": status.Available,
		"path":      status.Path,
		"version":   status.Version,
		"cached":    status.Cached,
	}).Debug("Ghostscript status")

	return tools.NewToolResultJSON(status)
}

func (t *GhostscriptStatusTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "Check before compressing",
				Arguments:      map[string]any{},
				ExpectedResult: `{"available": true, "path": "/usr/bin/gs", "version": "10.02.1", "cached": false}`,
			},
		},
		ParameterDetails: map[string]string{
			pdf.GhostscriptPathEnvVar: "Environment variable pointing at a specific gs binary",
		},
		WhenToUse: "Diagnosing thumbnail or compression failures.",
	}
}
