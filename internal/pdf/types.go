package pdf

import (
	"fmt"
	"time"
)

// CompressionPreset selects the Ghostscript PDFSETTINGS profile
type CompressionPreset string

const (
	PresetScreen   CompressionPreset = "screen"   // 72 dpi, smallest output
	PresetEbook    CompressionPreset = "ebook"    // 150 dpi
	PresetPrinter  CompressionPreset = "printer"  // 300 dpi
	PresetPrepress CompressionPreset = "prepress" // colour preserving
	PresetDefault  CompressionPreset = "default"
)

// CompressionEngine selects the backend used to shrink a document
type CompressionEngine string

const (
	EngineAuto        CompressionEngine = "auto"
	EngineGhostscript CompressionEngine = "ghostscript"
	EnginePDFCPU      CompressionEngine = "pdfcpu"
)

// MergeMode controls how MergeTwoFiles combines its inputs
type MergeMode string

const (
	MergeInterleave MergeMode = "interleave"
	MergeAppend     MergeMode = "append"
)

// CombineResult is the outcome of combining several documents.
// When Success is false Error holds the reason and the remaining fields may be zero.
type CombineResult struct {
	Success    bool   `json:"success"`
	FileCount  int    `json:"fileCount"`
	PageCount  int    `json:"pageCount"`
	OutputSize int64  `json:"outputSize"`
	OutputPath string `json:"outputPath"`
	Error      string `json:"error,omitempty"`
}

// CompressionResult is the outcome of compressing a single document
type CompressionResult struct {
	Success        bool    `json:"success"`
	OriginalSize   int64   `json:"originalSize"`
	CompressedSize int64   `json:"compressedSize"`
	SavingsPercent float64 `json:"savingsPercent"`
	OutputPath     string  `json:"outputPath"`
	Error          string  `json:"error,omitempty"`
}

// FileInfo describes a file on disk
type FileInfo struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	SizeText string `json:"sizeText"`
}

// PDFDocument is a PDF selected for an operation.
// PageOrder, when present, is a 0-based permutation of the document's pages.
type PDFDocument struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	Name      string `json:"name"`
	PageCount int    `json:"pageCount"`
	Size      int64  `json:"size"`
	SizeText  string `json:"sizeText"`
	PageOrder []int  `json:"pageOrder,omitempty"`
}

// ProgressUpdate is a single progress report for a long running operation
type ProgressUpdate struct {
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// ThumbnailResult holds a rendered page preview
type ThumbnailResult struct {
	PageIndex int    `json:"pageIndex"`
	ImageData string `json:"imageData"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// ThumbnailConfig holds thumbnail rendering settings
type ThumbnailConfig struct {
	Width   int
	Height  int
	Timeout time.Duration
}

// DefaultThumbnailConfig returns the default thumbnail size and timeout
func DefaultThumbnailConfig() ThumbnailConfig {
	return ThumbnailConfig{
		Width:   150,
		Height:  200,
		Timeout: 30 * time.Second,
	}
}

// SkippedFile records an input that could not be inspected
type SkippedFile struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Validate checks the success/error convention of the result
func (r *CombineResult) Validate() error {
	return validateOutcome(r.Success, r.Error)
}

// Validate checks the success/error convention of the result
func (r *CompressionResult) Validate() error {
	return validateOutcome(r.Success, r.Error)
}

func validateOutcome(success bool, errText string) error {
	if success && errText != "" {
		return fmt.Errorf("successful result carries an error: %q", errText)
	}
	if !success && errText == "" {
		return fmt.Errorf("failed result has no error message")
	}
	return nil
}

// CombineFailure builds the result reported when combining fails
func CombineFailure(fileCount int, err error) *CombineResult {
	return &CombineResult{
		Success:   false,
		FileCount: fileCount,
		Error:     errorText(err),
	}
}

// CompressionFailure builds the result reported when compression fails
func CompressionFailure(originalSize int64, err error) *CompressionResult {
	return &CompressionResult{
		Success:      false,
		OriginalSize: originalSize,
		Error:        errorText(err),
	}
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// HasCustomOrder reports whether PageOrder differs from the natural page order
func (d *PDFDocument) HasCustomOrder() bool {
	if len(d.PageOrder) == 0 {
		return false
	}
	for i, p := range d.PageOrder {
		if p != i {
			return true
		}
	}
	return len(d.PageOrder) != d.PageCount
}

// ValidatePageOrder checks that PageOrder is absent or a permutation of [0, PageCount)
func (d *PDFDocument) ValidatePageOrder() error {
	if d.PageOrder == nil {
		return nil
	}
	if len(d.PageOrder) != d.PageCount {
		return fmt.Errorf("%w: %s has %d pages but order lists %d", ErrInvalidPageOrder, d.Name, d.PageCount, len(d.PageOrder))
	}
	seen := make([]bool, d.PageCount)
	for _, p := range d.PageOrder {
		if p < 0 || p >= d.PageCount {
			return fmt.Errorf("%w: page index %d out of range for %s", ErrInvalidPageOrder, p, d.Name)
		}
		if seen[p] {
			return fmt.Errorf("%w: page index %d repeated for %s", ErrInvalidPageOrder, p, d.Name)
		}
		seen[p] = true
	}
	return nil
}

// EffectivePageOrder returns PageOrder or the identity order when none is set
func (d *PDFDocument) EffectivePageOrder() []int {
	if len(d.PageOrder) > 0 {
		return append([]int(nil), d.PageOrder...)
	}
	order := make([]int, d.PageCount)
	for i := range order {
		order[i] = i
	}
	return order
}
