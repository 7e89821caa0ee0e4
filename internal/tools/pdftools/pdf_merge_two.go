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

// PDFMergeTwoTool merges two PDFs by appending or interleaving their pages
type PDFMergeTwoTool struct{}

func init() {
	registry.Register(&PDFMergeTwoTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *PDFMergeTwoTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pdf_merge_two",
		mcp.WithDescription("Merge two PDFs into a new document in the work directory. mode=append places B after A; mode=interleave alternates pages A1, B1, A2, B2 and appends the remainder of the longer file. Interleave is useful for recombining front and back scans."),
		mcp.WithString("path_a",
			mcp.Required(),
			mcp.Description("Absolute path to the first PDF"),
		),
		mcp.WithString("path_b",
			mcp.Required(),
			mcp.Description("Absolute path to the second PDF"),
		),
		mcp.WithString("mode",
			mcp.Description("How to merge the pages"),
			mcp.Enum(string(pdf.MergeAppend), string(pdf.MergeInterleave)),
			mcp.DefaultString(string(pdf.MergeAppend)),
		),
		mcp.WithDestructiveHintAnnotation(false),
	)
}

// Execute merges the two files and returns the resulting document
func (t *PDFMergeTwoTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	pathA, err := requireString(args, "path_a")
	if err != nil {
		return nil, err
	}
	pathB, err := requireString(args, "path_b")
	if err != nil {
		return nil, err
	}
	mode := pdf.MergeMode(optionalString(args, "mode", string(pdf.MergeAppend)))

	for _, path := range []string{pathA, pathB} {
		if _, err := checkInputFile(path); err != nil {
			return nil, err
		}
	}

	logger.WithFields(logrus.Fields{
		"path_a": pathA,
		"path_b": pathB,
		"mode":   mode,
	}).Debug("Merging two PDFs")

	doc, err := pdf.MergeTwoFiles(withReporting(ctx, logger), pathA, pathB, mode)
	if err != nil {
		return nil, fmt.Errorf("merge failed: %w", err)
	}

	return tools.NewToolResultJSON(doc)
}

func (t *PDFMergeTwoTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description: "Recombine odd and even page scans",
				Arguments: map[string]any{
					"path_a": "/Users/username/scans/odd.pdf",
					"path_b": "/Users/username/scans/even.pdf",
					"mode":   "interleave",
				},
				ExpectedResult: "A PDFDocument for the merged file with pages odd1, even1, odd2, even2 and so on",
			},
		},
		CommonPatterns: []string{
			"Merge, then pdf_reorder if the back scans were fed in reverse",
			"Merge, then pdf_save to keep the result",
		},
		ParameterDetails: map[string]string{
			"mode": "append (default) or interleave",
		},
		WhenToUse:    "Exactly two inputs, especially duplex scans.",
		WhenNotToUse: "Three or more inputs: use pdf_combine.",
	}
}
