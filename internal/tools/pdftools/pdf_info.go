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

// PDFInfoTool inspects PDFs and returns them as documents ready for combining
type PDFInfoTool struct{}

// PDFInfoResponse lists the inspected documents and the inputs that were skipped
type PDFInfoResponse struct {
	Documents []pdf.PDFDocument `json:"documents"`
	Skipped   []pdf.SkippedFile `json:"skipped"`
}

func init() {
	registry.Register(&PDFInfoTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *PDFInfoTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pdf_info",
		mcp.WithDescription(`Inspect one or more PDF files. Returns a document record per file (id, name, page count, size) that can be passed straight to pdf_combine. Files that are not PDFs, are password-protected or cannot be read are reported under "skipped" rather than failing the call.`),
		mcp.WithArray("paths",
			mcp.Required(),
			mcp.Description("Absolute paths of the PDF files to inspect"),
			mcp.WithStringItems(),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Execute inspects every path concurrently, preserving input order
func (t *PDFInfoTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	paths, err := stringList(args, "paths")
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("missing or invalid required parameter: paths")
	}

	// Paths the security layer rejects are skipped like any other unreadable file
	var allowed []string
	var denied []pdf.SkippedFile
	for _, path := range paths {
		if _, err := checkInputFile(path); err != nil {
			denied = append(denied, pdf.SkippedFile{Path: path, Error: err.Error()})
			continue
		}
		allowed = append(allowed, path)
	}

	docs, skipped, err := pdf.InspectFiles(ctx, allowed, pdf.InspectWorkers())
	if err != nil {
		return nil, err
	}

	response := PDFInfoResponse{
		Documents: docs,
		Skipped:   inInputOrder(paths, append(denied, skipped...)),
	}
	if response.Documents == nil {
		response.Documents = []pdf.PDFDocument{}
	}
	if response.Skipped == nil {
		response.Skipped = []pdf.SkippedFile{}
	}

	logger.WithFields(logrus.Fields{
		"documents": len(response.Documents),
		"skipped":   len(response.Skipped),
	}).Debug("PDF inspection completed")

	return tools.NewToolResultJSON(response)
}

// inInputOrder sorts skipped entries by the position of their path in paths.
// Repeated paths are matched to their occurrences in turn.
func inInputOrder(paths []string, skipped []pdf.SkippedFile) []pdf.SkippedFile {
	byPath := make(map[string][]pdf.SkippedFile, len(skipped))
	for _, s := range skipped {
		byPath[s.Path] = append(byPath[s.Path], s)
	}

	ordered := make([]pdf.SkippedFile, 0, len(skipped))
	for _, path := range paths {
		if pending := byPath[path]; len(pending) > 0 {
			ordered = append(ordered, pending[0])
			byPath[path] = pending[1:]
		}
	}
	return ordered
}

func (t *PDFInfoTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description: "Inspect two chapters before combining them",
				Arguments: map[string]any{
					"paths": []string{"/Users/username/book/ch1.pdf", "/Users/username/book/ch2.pdf"},
				},
				ExpectedResult: "Two document records with page counts, in the order given",
			},
		},
		CommonPatterns: []string{
			"Call pdf_info first, optionally set pageOrder on the returned documents, then pass them to pdf_combine",
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "A file is listed under skipped with \"PDF is password-protected\"",
				Solution: "Encrypted PDFs are not supported. Remove the password with another tool first.",
			},
		},
		ParameterDetails: map[string]string{
			"paths": fmt.Sprintf("Absolute paths. Inspected concurrently (%s workers, set with %s).", fmt.Sprint(pdf.DefaultInspectWorkers), pdf.InspectWorkersEnvVar),
		},
		WhenToUse: "Before combining or reordering, to learn page counts.",
	}
}
