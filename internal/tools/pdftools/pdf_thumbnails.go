package pdftools

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-pdftools/internal/pdf"
	"github.com/sammcj/mcp-pdftools/internal/registry"
	"github.com/sammcj/mcp-pdftools/internal/tools"
	"github.com/sirupsen/logrus"
)

// PDFThumbnailsTool renders page previews as PNG data URLs
type PDFThumbnailsTool struct{}

func init() {
	registry.Register(&PDFThumbnailsTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *PDFThumbnailsTool) Definition() mcp.Tool {
	defaults := pdf.DefaultThumbnailConfig()
	return mcp.NewTool(
		"pdf_thumbnails",
		mcp.WithDescription("Render PNG thumbnails of PDF pages with Ghostscript. Returns base64 data URLs. Renders are cached until the file changes."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path to the PDF"),
		),
		mcp.WithNumber("page_index",
			mcp.Description("0-based page to render. Omit to render every page"),
		),
		mcp.WithNumber("width",
			mcp.Description(fmt.Sprintf("Thumbnail width in pixels, at most %d", pdf.MaxThumbnailDimension)),
			mcp.DefaultNumber(float64(defaults.Width)),
			mcp.Min(1),
			mcp.Max(pdf.MaxThumbnailDimension),
		),
		mcp.WithNumber("height",
			mcp.Description(fmt.Sprintf("Thumbnail height in pixels, at most %d", pdf.MaxThumbnailDimension)),
			mcp.DefaultNumber(float64(defaults.Height)),
			mcp.Min(1),
			mcp.Max(pdf.MaxThumbnailDimension),
		),
		mcp.WithBoolean("clear_cache",
			mcp.Description("Discard cached renders of this file first"),
			mcp.DefaultBool(false),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Execute renders one page or all pages
func (t *PDFThumbnailsTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	if _, err := checkInputFile(path); err != nil {
		return nil, err
	}

	defaults := pdf.DefaultThumbnailConfig()
	width, err := optionalInt(args, "width", defaults.Width)
	if err != nil {
		return nil, err
	}
	height, err := optionalInt(args, "height", defaults.Height)
	if err != nil {
		return nil, err
	}

	if optionalBool(args, "clear_cache", false) {
		if err := pdf.CleanupThumbnailCache(path); err != nil {
			logger.WithError(err).Warn("Failed to clear thumbnail cache")
		}
	}

	ctx = withReporting(ctx, logger)

	if _, ok := args["page_index"]; ok && args["page_index"] != nil {
		pageIndex, err := optionalInt(args, "page_index", 0)
		if err != nil {
			return nil, err
		}
		thumb, err := pdf.GenerateThumbnail(ctx, path, pageIndex, width, height)
		if err != nil {
			return nil, fmt.Errorf("thumbnail failed: %w", err)
		}
		return tools.NewToolResultJSON([]pdf.ThumbnailResult{*thumb})
	}

	thumbs, err := pdf.GenerateAllThumbnails(ctx, path, width, height)
	if err != nil {
		return nil, fmt.Errorf("thumbnails failed: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"path":  path,
		"pages": len(thumbs),
	}).Debug("Thumbnails generated")

	return tools.NewToolResultJSON(thumbs)
}

func (t *PDFThumbnailsTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "Preview the first page",
				Arguments:      map[string]any{"path": "/Users/username/report.pdf", "page_index": 0},
				ExpectedResult: `[{"pageIndex": 0, "imageData": "data:image/png;base64,...", "width": 150, "height": 200}]`,
			},
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "Ghostscript not found",
				Solution: "Thumbnails need Ghostscript. Check ghostscript_status for install instructions.",
			},
			{
				Problem:  "thumbnails are limited to 500 pages",
				Solution: "Request individual pages with page_index instead.",
			},
		},
		ParameterDetails: map[string]string{
			"page_index": "0-based, unlike page_order in pdf_reorder",
		},
		WhenToUse: "Visually checking page order before combining or reordering.",
	}
}
