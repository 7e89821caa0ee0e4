package pdf

import "errors"

var (
	ErrNotPDF              = errors.New("file is not a PDF")
	ErrPasswordProtected   = errors.New("PDF is password-protected")
	ErrEmptyFile           = errors.New("file is empty")
	ErrGhostscriptNotFound = errors.New("ghostscript not found")
	ErrTooFewFiles         = errors.New("need at least 2 files to combine")
	ErrEmptyPageOrder      = errors.New("page order cannot be empty")
	ErrInvalidPageOrder    = errors.New("invalid page order")
	ErrEmptySource         = errors.New("nothing to decode")
	ErrOutputIsInput       = errors.New("output path is one of the input files")
	ErrOutputExists        = errors.New("destination already exists")
)
