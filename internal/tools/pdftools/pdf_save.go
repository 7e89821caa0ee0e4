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

// PDFSaveTool moves a produced file out of the work directory
type PDFSaveTool struct{}

func init() {
	registry.Register(&PDFSaveTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *PDFSaveTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pdf_save",
		mcp.WithDescription("Move a PDF produced by another tool from the work directory to its final location. Only files in the work directory can be saved. Existing files are not replaced unless overwrite is true."),
		mcp.WithString("temp_path",
			mcp.Required(),
			mcp.Description("Path returned by pdf_combine, pdf_merge_two, pdf_reorder or pdf_compress"),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Absolute destination path. .pdf is appended when missing"),
		),
		mcp.WithBoolean("overwrite",
			mcp.Description("Replace an existing destination file"),
			mcp.DefaultBool(false),
		),
		mcp.WithDestructiveHintAnnotation(true),
	)
}

// Execute saves the file and returns its final path
func (t *PDFSaveTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	if !tools.IsToolEnabled("pdf_save") {
		return nil, fmt.Errorf("pdf_save tool is not enabled. Set %s environment variable to include 'pdf_save'", tools.EnableAdditionalToolsEnvVar)
	}

	tempPath, err := requireString(args, "temp_path")
	if err != nil {
		return nil, err
	}
	destination, err := requireString(args, "destination")
	if err != nil {
		return nil, err
	}
	overwrite := optionalBool(args, "overwrite", false)

	if !pdf.IsTempFile(tempPath) {
		return nil, fmt.Errorf("temp_path must be a file in the work directory: %s", tempPath)
	}
	if err := checkOutputPath(destination); err != nil {
		return nil, err
	}

	saved, err := pdf.SaveFile(tempPath, destination, overwrite)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"from": tempPath,
		"to":   saved,
	}).Info("Saved PDF")

	return tools.NewToolResultJSON(map[string]any{"path": saved})
}

func (t *PDFSaveTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description: "Keep a combined document",
				Arguments: map[string]any{
					"temp_path":   "/tmp/mcp-pdftools/combined_1f0c.pdf",
					"destination": "/Users/username/Documents/combined",
				},
				ExpectedResult: `{"path": "/Users/username/Documents/combined.pdf"}`,
			},
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "destination already exists",
				Solution: "Pass overwrite=true or choose another destination.",
			},
			{
				Problem:  "tool is not enabled",
				Solution: "pdf_save writes outside the work directory and must be enabled with " + tools.EnableAdditionalToolsEnvVar + "=pdf_save.",
			},
		},
		WhenToUse:    "After an operation that wrote to the work directory.",
		WhenNotToUse: "When the operation already accepted output_path.",
	}
}
