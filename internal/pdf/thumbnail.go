package pdf

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	// MaxThumbnailPages caps the number of pages rendered in one run
	MaxThumbnailPages = 500
	// MaxThumbnailDimension caps the requested width and height in pixels
	MaxThumbnailDimension = 2000

	allThumbnailsTimeout = 60 * time.Second
)

// thumbnailCacheRoot is the directory holding one sub directory per cached document
func thumbnailCacheRoot() string {
	return filepath.Join(CacheDir(), "thumbs")
}

// documentCacheDir holds every cached size of one document version, keyed by path and modification time
func documentCacheDir(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot access file: %w", err)
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d", path, info.ModTime().UnixNano()))
	return filepath.Join(thumbnailCacheRoot(), hex.EncodeToString(sum[:8])), nil
}

// thumbnailCacheDir returns the cache directory for one rendered size of a document
func thumbnailCacheDir(path string, width, height int) (string, error) {
	dir, err := documentCacheDir(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%dx%d", width, height)), nil
}

func thumbnailFile(dir string, pageIndex int) string {
	return filepath.Join(dir, fmt.Sprintf("page_%03d.png", pageIndex+1))
}

// GenerateAllThumbnails renders a preview of every page with a single Ghostscript run.
// Rendered pages are cached on disk until the document changes.
func GenerateAllThumbnails(ctx context.Context, path string, width, height int) ([]ThumbnailResult, error) {
	width, height = thumbnailSize(width, height)

	count, err := pageCount(path)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	if count > MaxThumbnailPages {
		return nil, fmt.Errorf("PDF has %d pages, thumbnails are limited to %d", count, MaxThumbnailPages)
	}

	dir, err := thumbnailCacheDir(path, width, height)
	if err != nil {
		return nil, err
	}

	reporter := ReporterFrom(ctx)

	if !cachedPagesPresent(dir, count) {
		gsPath, err := GetGhostscriptPath()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create thumbnail cache: %w", err)
		}

		reporter.Progress(OpThumbnail, ProgressUpdate{Percent: 10, Message: fmt.Sprintf("Rendering %d pages...", count)})

		runCtx, cancel := context.WithTimeout(ctx, allThumbnailsTimeout)
		defer cancel()

		args := ghostscriptThumbnailArgs(width, height, filepath.Join(dir, "page_%03d.png"), path)
		if err := runGhostscript(runCtx, gsPath, args); err != nil {
			_ = os.RemoveAll(dir)
			return nil, fmt.Errorf("failed to render thumbnails: %w", err)
		}
	} else {
		reporter.Log(OpThumbnail, fmt.Sprintf("Using cached thumbnails for %s", filepath.Base(path)))
	}

	results := make([]ThumbnailResult, 0, count)
	for i := range count {
		data, err := os.ReadFile(thumbnailFile(dir, i))
		if err != nil {
			return nil, fmt.Errorf("failed to read thumbnail for page %d: %w", i+1, err)
		}
		results = append(results, ThumbnailResult{
			PageIndex: i,
			ImageData: pngDataURL(data),
			Width:     width,
			Height:    height,
		})
	}

	reporter.Progress(OpThumbnail, ProgressUpdate{Percent: 100, Message: "Complete!"})
	return results, nil
}

// GenerateThumbnail renders a single page (0-based index)
func GenerateThumbnail(ctx context.Context, path string, pageIndex, width, height int) (*ThumbnailResult, error) {
	width, height = thumbnailSize(width, height)

	count, err := pageCount(path)
	if err != nil {
		return nil, err
	}
	if pageIndex < 0 || pageIndex >= count {
		return nil, fmt.Errorf("page index %d out of range (document has %d pages)", pageIndex, count)
	}

	dir, err := thumbnailCacheDir(path, width, height)
	if err != nil {
		return nil, err
	}

	if data, err := os.ReadFile(thumbnailFile(dir, pageIndex)); err == nil {
		return &ThumbnailResult{PageIndex: pageIndex, ImageData: pngDataURL(data), Width: width, Height: height}, nil
	}

	gsPath, err := GetGhostscriptPath()
	if err != nil {
		return nil, err
	}

	out, err := CreateTempFile("thumb", ".png")
	if err != nil {
		return nil, err
	}
	defer CleanupTempFiles(out)

	runCtx, cancel := context.WithTimeout(ctx, DefaultThumbnailConfig().Timeout)
	defer cancel()

	page := fmt.Sprint(pageIndex + 1)
	args := ghostscriptThumbnailArgs(width, height, out, path)
	args = append(args[:len(args)-1], "-dFirstPage="+page, "-dLastPage="+page, path)
	if err := runGhostscript(runCtx, gsPath, args); err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", pageIndex+1, err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read thumbnail: %w", err)
	}

	return &ThumbnailResult{PageIndex: pageIndex, ImageData: pngDataURL(data), Width: width, Height: height}, nil
}

// CleanupThumbnailCache removes cached thumbnails of every size for one document
func CleanupThumbnailCache(path string) error {
	dir, err := documentCacheDir(path)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove thumbnail cache: %w", err)
	}
	return nil
}

// CleanupAllThumbnailCache removes every cached thumbnail
func CleanupAllThumbnailCache() error {
	if err := os.RemoveAll(thumbnailCacheRoot()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove thumbnail cache: %w", err)
	}
	return nil
}

// thumbnailSize fills in defaults for unset dimensions and clamps to MaxThumbnailDimension
func thumbnailSize(width, height int) (int, int) {
	def := DefaultThumbnailConfig()
	if width <= 0 {
		width = def.Width
	}
	if height <= 0 {
		height = def.Height
	}
	return min(width, MaxThumbnailDimension), min(height, MaxThumbnailDimension)
}

func cachedPagesPresent(dir string, count int) bool {
	for i := range count {
		if _, err := os.Stat(thumbnailFile(dir, i)); err != nil {
			return false
		}
	}
	return true
}

func ghostscriptThumbnailArgs(width, height int, outputPattern, inputPath string) []string {
	return []string{
		"-q",
		"-dNOPAUSE",
		"-dBATCH",
		"-dSAFER",
		"-sDEVICE=png16m",
		"-r96",
		fmt.Sprintf("-g%dx%d", width, height),
		"-dPDFFitPage",
		"-dTextAlphaBits=4",
		"-dGraphicsAlphaBits=4",
		"-sOutputFile=" + outputPattern,
		inputPath,
	}
}

func runGhostscript(ctx context.Context, gsPath string, args []string) error {
	cmd := exec.CommandContext(ctx, gsPath, args...)
	hideWindow(cmd)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ghostscript timed out: %w", ctx.Err())
		}
		return fmt.Errorf("ghostscript error: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func pngDataURL(data []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}
