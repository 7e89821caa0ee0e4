package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// CombineOptions controls where a combined document is written
type CombineOptions struct {
	// OutputPath is the destination file. Empty writes to the work directory.
	OutputPath string
	// Overwrite allows OutputPath to replace an existing file
	Overwrite bool
}

// CombinePDFs merges documents in the given order, applying each document's page order
func CombinePDFs(ctx context.Context, documents []PDFDocument, opts CombineOptions) (*CombineResult, error) {
	if len(documents) < 2 {
		return nil, ErrTooFewFiles
	}

	sources := make([]string, len(documents))
	for i, doc := range documents {
		sources[i] = doc.Path
	}
	target, err := checkOutputTarget(opts.OutputPath, opts.Overwrite, sources...)
	if err != nil {
		return nil, err
	}

	reporter := ReporterFrom(ctx)
	reporter.Progress(OpCombine, ProgressUpdate{Percent: 10, Message: fmt.Sprintf("Preparing to combine %d files...", len(documents))})

	var (
		inputs     []string
		scratch    []string
		totalPages int
	)
	defer func() { CleanupTempFiles(scratch...) }()

	for _, doc := range documents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		count, err := pageCount(doc.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", displayName(doc), err)
		}
		if doc.PageCount != 0 && doc.PageCount != count {
			return nil, fmt.Errorf("%s: record says %d pages but the file has %d, inspect it again: %w",
				displayName(doc), doc.PageCount, count, ErrInvalidPageOrder)
		}
		doc.PageCount = count
		if err := doc.ValidatePageOrder(); err != nil {
			return nil, err
		}

		input := doc.Path
		if doc.HasCustomOrder() {
			reordered, err := CreateTempFile("reorder", ".pdf")
			if err != nil {
				return nil, err
			}
			scratch = append(scratch, reordered)

			order := make([]int, len(doc.PageOrder))
			for i, p := range doc.PageOrder {
				order[i] = p + 1
			}
			if err := api.CollectFile(doc.Path, reordered, pageSelection(order), newConfiguration()); err != nil {
				return nil, fmt.Errorf("failed to reorder pages of %s: %w", displayName(doc), err)
			}
			input = reordered
		}

		pages := doc.PageCount
		if len(doc.PageOrder) > 0 {
			pages = len(doc.PageOrder)
		}
		totalPages += pages
		inputs = append(inputs, input)
		reporter.Log(OpCombine, fmt.Sprintf("Adding: %s (%d pages)", displayName(doc), pages))
	}

	outputPath, err := CreateTempFile("combined", ".pdf")
	if err != nil {
		return nil, err
	}

	reporter.Progress(OpCombine, ProgressUpdate{Percent: 30, Message: "Merging documents..."})

	if err := api.MergeCreateFile(inputs, outputPath, false, newConfiguration()); err != nil {
		CleanupTempFiles(outputPath)
		return nil, fmt.Errorf("failed to merge PDFs: %w", err)
	}

	reporter.Progress(OpCombine, ProgressUpdate{Percent: 80, Message: "Finalizing..."})

	info, err := os.Stat(outputPath)
	if err != nil {
		CleanupTempFiles(outputPath)
		return nil, fmt.Errorf("failed to read output: %w", err)
	}
	if outputPath, err = commitOutput(outputPath, target, opts.Overwrite); err != nil {
		return nil, err
	}

	reporter.Progress(OpCombine, ProgressUpdate{Percent: 100, Message: "Complete!"})
	reporter.Log(OpCombine, fmt.Sprintf("Combined %d files into %d pages (%s)", len(documents), totalPages, FormatFileSize(info.Size())))

	return &CombineResult{
		Success:    true,
		FileCount:  len(documents),
		PageCount:  totalPages,
		OutputSize: info.Size(),
		OutputPath: outputPath,
	}, nil
}

// MergeTwoFiles appends pathB to pathA or interleaves their pages
func MergeTwoFiles(ctx context.Context, pathA, pathB string, mode MergeMode) (*PDFDocument, error) {
	if mode == "" {
		mode = MergeAppend
	}
	if mode != MergeAppend && mode != MergeInterleave {
		return nil, fmt.Errorf("unknown merge mode %q (expected %q or %q)", mode, MergeInterleave, MergeAppend)
	}

	reporter := ReporterFrom(ctx)

	countA, err := pageCount(pathA)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(pathA), err)
	}
	countB, err := pageCount(pathB)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(pathB), err)
	}

	merged, err := CreateTempFile("merged", ".pdf")
	if err != nil {
		return nil, err
	}

	reporter.Progress(OpMerge, ProgressUpdate{Percent: 20, Message: fmt.Sprintf("Merging %d + %d pages (%s)...", countA, countB, mode)})

	if err := api.MergeCreateFile([]string{pathA, pathB}, merged, false, newConfiguration()); err != nil {
		CleanupTempFiles(merged)
		return nil, fmt.Errorf("failed to merge PDFs: %w", err)
	}

	output := merged
	if mode == MergeInterleave {
		if err := ctx.Err(); err != nil {
			CleanupTempFiles(merged)
			return nil, err
		}

		reporter.Progress(OpMerge, ProgressUpdate{Percent: 60, Message: "Interleaving pages..."})

		interleaved, err := CreateTempFile("interleaved", ".pdf")
		if err != nil {
			CleanupTempFiles(merged)
			return nil, err
		}
		err = api.CollectFile(merged, interleaved, pageSelection(interleaveOrder(countA, countB)), newConfiguration())
		CleanupTempFiles(merged)
		if err != nil {
			CleanupTempFiles(interleaved)
			return nil, fmt.Errorf("failed to interleave pages: %w", err)
		}
		output = interleaved
	}

	reporter.Progress(OpMerge, ProgressUpdate{Percent: 100, Message: "Complete!"})
	return outputInfo(output)
}

// ReorderPages writes a new document whose pages follow pageOrder (1-based).
// Pages may be omitted or repeated.
func ReorderPages(ctx context.Context, path string, pageOrder []int) (*PDFDocument, error) {
	if len(pageOrder) == 0 {
		return nil, ErrEmptyPageOrder
	}

	count, err := pageCount(path)
	if err != nil {
		return nil, err
	}
	if err := ValidatePageNumbers(pageOrder, count); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reporter := ReporterFrom(ctx)
	reporter.Progress(OpReorder, ProgressUpdate{Percent: 20, Message: fmt.Sprintf("Reordering %d pages...", len(pageOrder))})

	output, err := CreateTempFile("reordered", ".pdf")
	if err != nil {
		return nil, err
	}

	if err := api.CollectFile(path, output, pageSelection(pageOrder), newConfiguration()); err != nil {
		CleanupTempFiles(output)
		return nil, fmt.Errorf("failed to reorder pages: %w", err)
	}

	reporter.Progress(OpReorder, ProgressUpdate{Percent: 100, Message: "Complete!"})
	return outputInfo(output)
}

// outputInfo describes a produced file, removing it when it cannot be read back
func outputInfo(output string) (*PDFDocument, error) {
	doc, err := GetPDFInfo(output)
	if err != nil {
		CleanupTempFiles(output)
		return nil, fmt.Errorf("failed to read output: %w", err)
	}
	return doc, nil
}

func displayName(doc PDFDocument) string {
	if doc.Name != "" {
		return doc.Name
	}
	return filepath.Base(doc.Path)
}
