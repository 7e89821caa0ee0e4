package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sammcj/mcp-pdftools/internal/cache"
)

const (
	DefaultMaxFileSize   = int64(200 * 1024 * 1024) // 200MB
	PDFMaxFileSizeEnvVar = "PDF_MAX_FILE_SIZE"
)

var pageCounts = cache.New[string, int](30*time.Minute, 512)

func init() {
	// pdfcpu would otherwise install its config under the user's config dir on first use
	api.DisableConfigDir()
}

func newConfiguration() *model.Configuration {
	return model.NewDefaultConfiguration()
}

// FormatFileSize renders a byte count using binary units, e.g. "1.5 KB"
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// GenerateID returns a short random identifier
func GenerateID() string {
	return uuid.New().String()[:8]
}

// GetMaxFileSize returns the configured maximum input size in bytes
func GetMaxFileSize() int64 {
	if sizeStr := os.Getenv(PDFMaxFileSizeEnvVar); sizeStr != "" {
		if size, err := strconv.ParseInt(sizeStr, 10, 64); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxFileSize
}

// ValidateFileSize rejects inputs larger than GetMaxFileSize
func ValidateFileSize(fileSize int64) error {
	maxSize := GetMaxFileSize()
	if fileSize > maxSize {
		sizeMB := float64(fileSize) / (1024 * 1024)
		maxSizeMB := float64(maxSize) / (1024 * 1024)
		return fmt.Errorf("PDF file size %.1fMB exceeds maximum allowed size of %.1fMB (use %s environment variable to adjust limit)", sizeMB, maxSizeMB, PDFMaxFileSizeEnvVar)
	}
	return nil
}

// GetFileInfo returns basic information about a file
func GetFileInfo(path string) (*FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	return &FileInfo{
		Path:     path,
		Name:     filepath.Base(path),
		Size:     info.Size(),
		SizeText: FormatFileSize(info.Size()),
	}, nil
}

// GetPDFInfo inspects a PDF and returns it as a document ready for combining
func GetPDFInfo(path string) (*PDFDocument, error) {
	if !isPDFPath(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotPDF, filepath.Base(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	pageCount, err := pageCountFor(path, info)
	if err != nil {
		return nil, err
	}

	return &PDFDocument{
		ID:        GenerateID(),
		Path:      path,
		Name:      filepath.Base(path),
		PageCount: pageCount,
		Size:      info.Size(),
		SizeText:  FormatFileSize(info.Size()),
	}, nil
}

// ValidatePDF checks that path names a readable, unencrypted PDF
func ValidatePDF(path string) error {
	if !isPDFPath(path) {
		return fmt.Errorf("%w: %s", ErrNotPDF, filepath.Base(path))
	}

	if err := api.ValidateFile(path, newConfiguration()); err != nil {
		if isPasswordError(err) {
			return ErrPasswordProtected
		}
		return fmt.Errorf("invalid PDF: %w", err)
	}

	return nil
}

// pageCount returns the number of pages in the PDF at path
func pageCount(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("cannot access file: %w", err)
	}
	return pageCountFor(path, info)
}

func pageCountFor(path string, info os.FileInfo) (int, error) {
	key := fmt.Sprintf("%s:%d:%d", path, info.Size(), info.ModTime().UnixNano())
	if cached, ok := pageCounts.Get(key); ok {
		return cached, nil
	}

	count, err := api.PageCountFile(path)
	if err != nil {
		if isPasswordError(err) {
			return 0, ErrPasswordProtected
		}
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}

	pageCounts.Set(key, count)
	return count, nil
}

func isPDFPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func isPasswordError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypted") || strings.Contains(msg, "password")
}
