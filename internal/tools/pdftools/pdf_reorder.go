package pdftools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-pdftools/internal/pdf"
	"github.com/sammcj/mcp-pdftools/internal/registry"
	"github.com/sammcj/mcp-pdftools/internal/tools"
	"github.com/sirupsen/logrus"
)

// PDFReorderTool writes a copy of a PDF with its pages in a new order
type PDFReorderTool struct{}

func init() {
	registry.Register(&PDFReorderTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *PDFReorderTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pdf_reorder",
		mcp.WithDescription("Write a copy of a PDF with its pages rearranged. Pages can be dropped or repeated. The source file is not modified."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path to the PDF"),
		),
		mcp.WithString("page_order",
			mcp.Required(),
			mcp.Description("1-based pages in the new order, e.g. \"3,1,2\", \"5-1\" for reverse, \"1-3,1-3\" to repeat, or \"all\". A JSON array of numbers is also accepted"),
		),
		mcp.WithDestructiveHintAnnotation(false),
	)
}

// Execute reorders the pages of the document
func (t *PDFReorderTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	if _, err := checkInputFile(path); err != nil {
		return nil, err
	}

	info, err := pdf.GetPDFInfo(path)
	if err != nil {
		return nil, err
	}

	order, err := parsePageOrderArg(args["page_order"], info.PageCount)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"path":       path,
		"page_count": info.PageCount,
		"new_pages":  len(order),
	}).Debug("Reordering PDF pages")

	doc, err := pdf.ReorderPages(withReporting(ctx, logger), path, order)
	if err != nil {
		return nil, fmt.Errorf("reorder failed: %w", err)
	}
	return tools.NewToolResultJSON(doc)
}

// parsePageOrderArg accepts a page specification string or a list of page numbers
func parsePageOrderArg(raw any, pageCount int) ([]int, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("missing or invalid required parameter: page_order")
	case string:
		spec := strings.TrimSpace(v)
		if strings.HasPrefix(spec, "[") {
			spec = strings.Trim(spec, "[]")
		}
		return pdf.ParsePageOrder(spec, pageCount)
	default:
		pages, err := intList(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid page_order: %w", err)
		}
		if len(pages) == 0 {
			return nil, pdf.ErrEmptyPageOrder
		}
		if err := pdf.ValidatePageNumbers(pages, pageCount); err != nil {
			return nil, err
		}
		return pages, nil
	}
}

func (t *PDFReorderTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "Reverse a five page document",
				Arguments:      map[string]any{"path": "/Users/username/scan.pdf", "page_order": "5-1"},
				ExpectedResult: "A PDFDocument for a new five page file in the work directory",
			},
			{
				Description:    "Keep only the cover and the last page",
				Arguments:      map[string]any{"path": "/Users/username/report.pdf", "page_order": "1,12"},
				ExpectedResult: "A two page copy",
			},
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "page out of range",
				Solution: "page_order is 1-based. Check the page count with pdf_info first.",
			},
		},
		ParameterDetails: map[string]string{
			"page_order": "Comma separated 1-based pages and ranges. Descending ranges reverse. Repeats are allowed.",
		},
		WhenToUse: "Fixing scan order, dropping pages or extracting a subset of one document.",
	}
}
