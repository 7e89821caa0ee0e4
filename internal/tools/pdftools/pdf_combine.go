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

// PDFCombineTool concatenates several PDFs into one
type PDFCombineTool struct{}

// CombineRequest holds the parsed arguments of pdf_combine
type CombineRequest struct {
	Documents  []pdf.PDFDocument
	OutputPath string
	Overwrite  bool
}

func init() {
	registry.Register(&PDFCombineTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *PDFCombineTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pdf_combine",
		mcp.WithDescription(`Combine two or more PDFs into a single document, in the order given. Pass either "documents" (records returned by pdf_info, optionally with a 0-based pageOrder per document) or plain "paths". Always returns a result record; on failure success is false and error explains why.`),
		mcp.WithArray("documents",
			mcp.Description("Document records from pdf_info. Each may carry pageOrder, a 0-based permutation of its pages"),
			mcp.Items(map[string]any{"type": "object"}),
		),
		mcp.WithArray("paths",
			mcp.Description("Absolute paths of the PDFs to combine, used when documents is not given"),
			mcp.WithStringItems(),
		),
		mcp.WithString("output_path",
			mcp.Description("Absolute path for the combined PDF. Defaults to a file in the work directory. May not be one of the inputs"),
		),
		mcp.WithBoolean("overwrite",
			mcp.Description("Replace output_path when it already exists"),
			mcp.DefaultBool(false),
		),
		mcp.WithDestructiveHintAnnotation(false),
	)
}

// Execute combines the documents and returns a CombineResult
func (t *PDFCombineTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	request, err := t.ParseRequest(args)
	if err != nil {
		return tools.NewToolResultJSON(pdf.CombineFailure(0, err))
	}

	for _, doc := range request.Documents {
		if _, err := checkInputFile(doc.Path); err != nil {
			return tools.NewToolResultJSON(pdf.CombineFailure(len(request.Documents), err))
		}
	}
	if err := checkOutputPath(request.OutputPath); err != nil {
		return tools.NewToolResultJSON(pdf.CombineFailure(len(request.Documents), err))
	}

	logger.WithFields(logrus.Fields{
		"files":       len(request.Documents),
		"output_path": request.OutputPath,
	}).Debug("Combining PDFs")

	result, err := pdf.CombinePDFs(withReporting(ctx, logger), request.Documents, pdf.CombineOptions{
		OutputPath: request.OutputPath,
		Overwrite:  request.Overwrite,
	})
	if err != nil {
		logger.WithError(err).Warn("Combine failed")
		return tools.NewToolResultJSON(pdf.CombineFailure(len(request.Documents), err))
	}

	return tools.NewToolResultJSON(result)
}

// ParseRequest accepts documents as records, a JSON text array, or falls back to paths
func (t *PDFCombineTool) ParseRequest(args map[string]any) (*CombineRequest, error) {
	request := &CombineRequest{
		OutputPath: optionalString(args, "output_path", ""),
		Overwrite:  optionalBool(args, "overwrite", false),
	}

	if raw, ok := args["documents"]; ok && raw != nil {
		docs, err := pdf.DecodeSlice[pdf.PDFDocument](raw)
		if err != nil {
			return nil, fmt.Errorf("invalid documents: %w", err)
		}
		for i, doc := range docs {
			if doc.Path == "" {
				return nil, fmt.Errorf("invalid documents: item %d has no path", i)
			}
			if doc.Name == "" {
				docs[i].Name = doc.Path
			}
		}
		request.Documents = docs
	} else {
		paths, err := stringList(args, "paths")
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			request.Documents = append(request.Documents, pdf.PDFDocument{Path: path})
		}
	}

	if len(request.Documents) < 2 {
		return nil, pdf.ErrTooFewFiles
	}
	return request, nil
}

func (t *PDFCombineTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description: "Combine two files in order",
				Arguments: map[string]any{
					"paths":       []string{"/Users/username/a.pdf", "/Users/username/b.pdf"},
					"output_path": "/Users/username/combined.pdf",
				},
				ExpectedResult: `{"success": true, "fileCount": 2, "pageCount": 7, "outputSize": 48213, "outputPath": "/Users/username/combined.pdf"}`,
			},
			{
				Description: "Combine with the first document's pages reversed",
				Arguments: map[string]any{
					"documents": []map[string]any{
						{"path": "/Users/username/a.pdf", "name": "a.pdf", "pageCount": 3, "pageOrder": []int{2, 1, 0}},
						{"path": "/Users/username/b.pdf", "name": "b.pdf", "pageCount": 4},
					},
				},
				ExpectedResult: "A combined PDF in the work directory with a.pdf's pages in reverse",
			},
		},
		CommonPatterns: []string{
			"pdf_info -> edit pageOrder -> pdf_combine",
			"Omit output_path to write to the work directory, then use pdf_save to move the result",
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "success=false with \"need at least 2 files to combine\"",
				Solution: "Pass two or more documents or paths.",
			},
			{
				Problem:  "success=false with \"destination already exists\"",
				Solution: "Choose another output_path or pass overwrite=true.",
			},
			{
				Problem:  "success=false mentioning an invalid page order",
				Solution: "pageOrder is 0-based and must list every page index below pageCount exactly once. Use pdf_reorder to drop or repeat pages.",
			},
		},
		ParameterDetails: map[string]string{
			"documents":   "Array of PDFDocument objects, or the same array as JSON text. Takes precedence over paths",
			"paths":       "Absolute paths. Page counts are looked up automatically",
			"output_path": "Absolute path. .pdf is appended when missing. Refused when it names an input file",
			"overwrite":   "Without it an existing output_path is left alone and the call fails",
		},
		WhenToUse:    "Joining whole documents or reordered selections into one file.",
		WhenNotToUse: "For alternating pages of two scans use pdf_merge_two with mode=interleave.",
	}
}
