package pdf

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultInspectWorkers = 4
	InspectWorkersEnvVar  = "PDFTOOLS_INSPECT_WORKERS"
)

// InspectWorkers returns the configured inspection concurrency
func InspectWorkers() int {
	if s := os.Getenv(InspectWorkersEnvVar); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return min(DefaultInspectWorkers, runtime.NumCPU())
}

// InspectFiles reads every path concurrently and returns the valid documents in input order.
// Files that cannot be read as PDFs are reported in skipped rather than failing the call.
func InspectFiles(ctx context.Context, paths []string, workers int) ([]PDFDocument, []SkippedFile, error) {
	if workers <= 0 {
		workers = InspectWorkers()
	}

	docs := make([]*PDFDocument, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs[i], errs[i] = GetPDFInfo(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var (
		valid   []PDFDocument
		skipped []SkippedFile
	)
	for i, path := range paths {
		if errs[i] != nil {
			skipped = append(skipped, SkippedFile{Path: path, Error: errs[i].Error()})
			continue
		}
		valid = append(valid, *docs[i])
	}

	ReporterFrom(ctx).Log(OpCombine, fmt.Sprintf("Inspected %d files, %d skipped", len(paths), len(skipped)))
	return valid, skipped, nil
}
