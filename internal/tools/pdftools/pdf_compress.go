package pdftools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-pdftools/internal/pdf"
	"github.com/sammcj/mcp-pdftools/internal/registry"
	"github.com/sammcj/mcp-pdftools/internal/tools"
	"github.com/sirupsen/logrus"
)

// PDFCompressTool reduces the size of a PDF
type PDFCompressTool struct{}

func init() {
	registry.Register(&PDFCompressTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *PDFCompressTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pdf_compress",
		mcp.WithDescription(`Compress a PDF with Ghostscript (image downsampling presets) or pdfcpu (structural optimisation only). Always returns a result record with original and compressed sizes; on failure success is false and error explains why. Savings are negative when the output grew.`),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path to the PDF to compress"),
		),
		mcp.WithString("preset",
			mcp.Description("Quality preset, lower quality gives smaller files"),
			mcp.Enum(presetNames()...),
			mcp.DefaultString(string(pdf.PresetEbook)),
		),
		mcp.WithString("engine",
			mcp.Description("auto uses Ghostscript when installed and pdfcpu otherwise"),
			mcp.Enum(string(pdf.EngineAuto), string(pdf.EngineGhostscript), string(pdf.EnginePDFCPU)),
			mcp.DefaultString(string(pdf.EngineAuto)),
		),
		mcp.WithString("output_path",
			mcp.Description("Absolute path for the compressed PDF. Defaults to a file in the work directory. May not be the input file"),
		),
		mcp.WithBoolean("overwrite",
			mcp.Description("Replace output_path when it already exists"),
			mcp.DefaultBool(false),
		),
		mcp.WithDestructiveHintAnnotation(false),
	)
}

// Execute compresses the document and returns a CompressionResult
func (t *PDFCompressTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	path, err := requireString(args, "path")
	if err != nil {
		return tools.NewToolResultJSON(pdf.CompressionFailure(0, err))
	}

	info, err := checkInputFile(path)
	if err != nil {
		return tools.NewToolResultJSON(pdf.CompressionFailure(0, err))
	}
	originalSize := info.Size()

	outputPath := optionalString(args, "output_path", "")
	if err := checkOutputPath(outputPath); err != nil {
		return tools.NewToolResultJSON(pdf.CompressionFailure(originalSize, err))
	}

	preset := pdf.CompressionPreset(strings.ToLower(optionalString(args, "preset", string(pdf.PresetEbook))))
	if normalised := pdf.NormalisePreset(preset); normalised != preset {
		logger.WithField("preset", preset).Warnf("Unknown preset, using %s", normalised)
		preset = normalised
	}
	engine := pdf.CompressionEngine(strings.ToLower(optionalString(args, "engine", string(pdf.EngineAuto))))

	logger.WithFields(logrus.Fields{
		"path":   path,
		"preset": preset,
		"engine": engine,
	}).Debug("Compressing PDF")

	result, err := pdf.CompressPDF(withReporting(ctx, logger), path, preset, pdf.CompressOptions{
		Engine:     engine,
		OutputPath: outputPath,
		Overwrite:  optionalBool(args, "overwrite", false),
	})
	if err != nil {
		logger.WithError(err).Warn("Compression failed")
		return tools.NewToolResultJSON(pdf.CompressionFailure(originalSize, err))
	}

	return tools.NewToolResultJSON(result)
}

func presetNames() []string {
	names := make([]string, 0, len(pdf.PresetDescriptions))
	for preset := range pdf.PresetDescriptions {
		names = append(names, string(preset))
	}
	sort.Strings(names)
	return names
}

func (t *PDFCompressTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	var presets []string
	for _, name := range presetNames() {
		presets = append(presets, fmt.Sprintf("%s: %s", name, pdf.PresetDescriptions[pdf.CompressionPreset(name)]))
	}

	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "Shrink a scanned document for email",
				Arguments:      map[string]any{"path": "/Users/username/scan.pdf", "preset": "screen"},
				ExpectedResult: `{"success": true, "originalSize": 10485760, "compressedSize": 1572864, "savingsPercent": 85, "outputPath": "..."}`,
			},
			{
				Description:    "Lossless structural optimisation only",
				Arguments:      map[string]any{"path": "/Users/username/report.pdf", "engine": "pdfcpu"},
				ExpectedResult: "A smaller file when the PDF has redundant objects, otherwise little change",
			},
		},
		CommonPatterns: []string{
			"Run ghostscript_status first to see which engine auto will choose",
			"Try ebook first and fall back to screen when the result is still too large",
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "success=false with \"Ghostscript not found\"",
				Solution: "Install Ghostscript, set " + pdf.GhostscriptPathEnvVar + ", or use engine=pdfcpu.",
			},
			{
				Problem:  "savingsPercent is negative",
				Solution: "The input was already well optimised. Keep the original.",
			},
		},
		ParameterDetails: map[string]string{
			"preset":      strings.Join(presets, "; ") + ". Unknown presets fall back to default",
			"output_path": "Absolute path. Refused when it names the input; an existing file needs overwrite=true",
			"engine":      "auto, ghostscript or pdfcpu. pdfcpu ignores preset. Extra Ghostscript arguments can be set with " + pdf.GhostscriptExtraArgsEnvVar,
		},
		WhenToUse: "Reducing file size of image heavy PDFs.",
	}
}
