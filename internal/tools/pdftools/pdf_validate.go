package pdftools

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-pdftools/internal/pdf"
	"github.com/sammcj/mcp-pdftools/internal/registry"
	"github.com/sammcj/mcp-pdftools/internal/tools"
	"github.com/sirupsen/logrus"
)

// PDFValidateTool checks that a file is a readable, unencrypted PDF
type PDFValidateTool struct{}

// ValidationResponse reports whether a file passed validation
type ValidationResponse struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func init() {
	registry.Register(&PDFValidateTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *PDFValidateTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pdf_validate",
		mcp.WithDescription("Check that a file is a structurally valid PDF that is not password-protected. Validation failures are returned as valid=false with the reason, not as tool errors."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path to the PDF file"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Execute validates the file at path
func (t *PDFValidateTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	if _, err := checkInputFile(path); err != nil {
		return nil, err
	}

	response := ValidationResponse{Path: path, Valid: true}
	if err := pdf.ValidatePDF(path); err != nil {
		response.Valid = false
		response.Error = err.Error()
		logger.WithError(err).WithField("path", path).Debug("PDF failed validation")
	}

	return tools.NewToolResultJSON(response)
}

func (t *PDFValidateTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "Validate a download before processing it",
				Arguments:      map[string]any{"path": "/Users/username/Downloads/invoice.pdf"},
				ExpectedResult: `{"path": "...", "valid": true}`,
			},
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "valid=false with \"not a PDF file\"",
				Solution: "Only files with a .pdf extension are accepted.",
			},
		},
		WhenToUse: "To confirm a file can be processed before combining or compressing it.",
	}
}
