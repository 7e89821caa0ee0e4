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

// FileInfoTool reports the name and size of a file
type FileInfoTool struct{}

func init() {
	registry.Register(&FileInfoTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *FileInfoTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"file_info",
		mcp.WithDescription("Return the name, size in bytes and human readable size of a file."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path to the file"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Execute returns a FileInfo record for the requested path
func (t *FileInfoTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	if _, err := checkInputFile(path); err != nil {
		return nil, err
	}

	info, err := pdf.GetFileInfo(path)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"path": path,
		"size": info.Size,
	}).Debug("File info retrieved")

	return tools.NewToolResultJSON(info)
}

func (t *FileInfoTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "Check the size of a document",
				Arguments:      map[string]any{"path": "/Users/username/Documents/report.pdf"},
				ExpectedResult: `{"path": "...", "name": "report.pdf", "size": 1536, "sizeText": "1.5 KB"}`,
			},
		},
		ParameterDetails: map[string]string{
			"path": fmt.Sprintf("Absolute path. Files larger than %s (or %s) are rejected.", pdf.FormatFileSize(pdf.DefaultMaxFileSize), pdf.PDFMaxFileSizeEnvVar),
		},
		WhenToUse:    "Quick size check of any file before or after an operation.",
		WhenNotToUse: "For page counts use pdf_info.",
	}
}
