package pdf

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/sirupsen/logrus"
)

// GhostscriptExtraArgsEnvVar holds additional arguments passed to Ghostscript when compressing
const GhostscriptExtraArgsEnvVar = "PDFTOOLS_GS_EXTRA_ARGS"

// CompressOptions controls how CompressPDF runs
type CompressOptions struct {
	Engine     CompressionEngine
	OutputPath string
	// Overwrite allows OutputPath to replace an existing file
	Overwrite bool
}

// PresetDescriptions documents each preset for tool help
var PresetDescriptions = map[CompressionPreset]string{
	PresetScreen:   "72 dpi images, smallest files, suitable for on-screen viewing",
	PresetEbook:    "150 dpi images, good balance of quality and size",
	PresetPrinter:  "300 dpi images, high quality for printing",
	PresetPrepress: "300 dpi images with colour preservation for professional printing",
	PresetDefault:  "Ghostscript defaults, usually a light reduction",
}

var presetSettings = map[CompressionPreset]string{
	PresetScreen:   "/screen",
	PresetEbook:    "/ebook",
	PresetPrinter:  "/printer",
	PresetPrepress: "/prepress",
	PresetDefault:  "/default",
}

// NormalisePreset maps unknown or empty presets to PresetDefault
func NormalisePreset(preset CompressionPreset) CompressionPreset {
	p := CompressionPreset(strings.ToLower(strings.TrimSpace(string(preset))))
	if _, ok := presetSettings[p]; ok {
		return p
	}
	return PresetDefault
}

// SavingsPercent returns the size reduction as a percentage rounded to one decimal.
// The result is negative when the output grew.
func SavingsPercent(original, compressed int64) float64 {
	if original <= 0 {
		return 0
	}
	pct := float64(original-compressed) / float64(original) * 100
	return math.Round(pct*10) / 10
}

// CompressPDF shrinks the document at inputPath with Ghostscript or pdfcpu
func CompressPDF(ctx context.Context, inputPath string, preset CompressionPreset, opts CompressOptions) (*CompressionResult, error) {
	reporter := ReporterFrom(ctx)
	reporter.Progress(OpCompress, ProgressUpdate{Percent: 10, Message: "Analyzing PDF..."})

	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	originalSize := info.Size()
	if originalSize == 0 {
		return nil, ErrEmptyFile
	}

	engine, gsPath, err := selectEngine(opts.Engine)
	if err != nil {
		return nil, err
	}
	preset = NormalisePreset(preset)

	target, err := checkOutputTarget(opts.OutputPath, opts.Overwrite, inputPath)
	if err != nil {
		return nil, err
	}
	outputPath, err := CreateTempFile("compressed", ".pdf")
	if err != nil {
		return nil, err
	}

	reporter.Log(OpCompress, fmt.Sprintf("Compressing %s (%s) with %s, preset %s", filepath.Base(inputPath), FormatFileSize(originalSize), engine, preset))
	reporter.Progress(OpCompress, ProgressUpdate{Percent: 20, Message: "Compressing..."})

	switch engine {
	case EngineGhostscript:
		err = runGhostscriptCompress(ctx, gsPath, inputPath, outputPath, preset)
	default:
		if err = api.OptimizeFile(inputPath, outputPath, newConfiguration()); err != nil {
			err = fmt.Errorf("pdfcpu optimisation failed: %w", err)
		}
	}
	if err != nil {
		CleanupTempFiles(outputPath)
		return nil, err
	}

	reporter.Progress(OpCompress, ProgressUpdate{Percent: 50, Message: "Measuring output..."})

	outInfo, err := os.Stat(outputPath)
	if err != nil {
		CleanupTempFiles(outputPath)
		return nil, fmt.Errorf("failed to read output: %w", err)
	}
	compressedSize := outInfo.Size()
	savings := SavingsPercent(originalSize, compressedSize)
	if outputPath, err = commitOutput(outputPath, target, opts.Overwrite); err != nil {
		return nil, err
	}

	reporter.Progress(OpCompress, ProgressUpdate{Percent: 90, Message: "Finalizing..."})

	if compressedSize > originalSize {
		reporter.Log(OpCompress, fmt.Sprintf("Warning: output is %.1f%% larger than the original, it may already be optimised", -savings))
		logrus.WithFields(logrus.Fields{
			"input":           inputPath,
			"original_size":   originalSize,
			"compressed_size": compressedSize,
		}).Warn("Compressed PDF is larger than the original")
	}

	reporter.Progress(OpCompress, ProgressUpdate{Percent: 100, Message: "Complete!"})
	reporter.Log(OpCompress, fmt.Sprintf("%s -> %s (%.1f%% saved)", FormatFileSize(originalSize), FormatFileSize(compressedSize), savings))

	return &CompressionResult{
		Success:        true,
		OriginalSize:   originalSize,
		CompressedSize: compressedSize,
		SavingsPercent: savings,
		OutputPath:     outputPath,
	}, nil
}

func selectEngine(engine CompressionEngine) (CompressionEngine, string, error) {
	switch engine {
	case "", EngineAuto:
		if gsPath, err := GetGhostscriptPath(); err == nil {
			return EngineGhostscript, gsPath, nil
		}
		logrus.Debug("Ghostscript not available, falling back to pdfcpu optimisation")
		return EnginePDFCPU, "", nil
	case EngineGhostscript:
		gsPath, err := GetGhostscriptPath()
		if err != nil {
			return "", "", err
		}
		return EngineGhostscript, gsPath, nil
	case EnginePDFCPU:
		return EnginePDFCPU, "", nil
	default:
		return "", "", fmt.Errorf("unknown compression engine %q (expected auto, ghostscript or pdfcpu)", engine)
	}
}

// ghostscriptCompressArgs builds the pdfwrite argument list for a preset
func ghostscriptCompressArgs(inputPath, outputPath string, preset CompressionPreset, extra []string) []string {
	args := []string{
		"-q",
		"-dNOPAUSE",
		"-dBATCH",
		"-dSAFER",
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=" + presetSettings[NormalisePreset(preset)],
		"-dEmbedAllFonts=true",
		"-dSubsetFonts=true",
		"-dCompressFonts=true",
		"-dColorImageDownsampleType=/Bicubic",
		"-dGrayImageDownsampleType=/Bicubic",
		"-dMonoImageDownsampleType=/Bicubic",
	}
	args = append(args, extra...)
	return append(args, "-sOutputFile="+outputPath, inputPath)
}

func extraGhostscriptArgs() ([]string, error) {
	raw := os.Getenv(GhostscriptExtraArgsEnvVar)
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	args, err := shlex.Split(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", GhostscriptExtraArgsEnvVar, err)
	}
	return args, nil
}

func runGhostscriptCompress(ctx context.Context, gsPath, inputPath, outputPath string, preset CompressionPreset) error {
	extra, err := extraGhostscriptArgs()
	if err != nil {
		return err
	}

	return runGhostscript(ctx, gsPath, ghostscriptCompressArgs(inputPath, outputPath, preset, extra))
}
