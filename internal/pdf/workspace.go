package pdf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	WorkDirEnvVar  = "PDFTOOLS_WORK_DIR"
	CacheDirEnvVar = "PDFTOOLS_CACHE_DIR"
)

// WorkDir returns the directory that holds intermediate and unsaved outputs
func WorkDir() (string, error) {
	dir := os.Getenv(WorkDirEnvVar)
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "mcp-pdftools")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	return dir, nil
}

// CacheDir returns the directory used for persistent caches such as thumbnails
func CacheDir() string {
	if dir := os.Getenv(CacheDirEnvVar); dir != "" {
		return dir
	}
	if userCache, err := os.UserCacheDir(); err == nil {
		return filepath.Join(userCache, "mcp-pdftools")
	}
	return filepath.Join(os.TempDir(), "mcp-pdftools-cache")
}

// CreateTempFile returns a unique path of the form <workdir>/<prefix>_<id><ext>.
// The file itself is not created.
func CreateTempFile(prefix, ext string) (string, error) {
	dir, err := WorkDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", prefix, GenerateID(), ext)), nil
}

// CleanupTempFiles removes the given files. Paths outside the work directory are ignored.
func CleanupTempFiles(paths ...string) {
	dir, err := WorkDir()
	if err != nil {
		return
	}
	for _, p := range paths {
		if p == "" || !isWithin(dir, p) {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			logrus.WithError(err).WithField("path", p).Debug("Failed to remove temporary file")
		}
	}
}

// IsTempFile reports whether path lies inside the work directory
func IsTempFile(path string) bool {
	dir, err := WorkDir()
	if err != nil {
		return false
	}
	return isWithin(dir, path)
}

// SaveFile moves a produced file to its destination and removes the temporary copy.
// The destination always ends in .pdf. Existing files are only replaced when overwrite
// is set, and the new content is staged beside the destination then renamed into place.
func SaveFile(tempPath, destPath string, overwrite bool) (string, error) {
	if destPath == "" {
		return "", fmt.Errorf("destination path is required")
	}
	if !isPDFPath(destPath) {
		destPath += ".pdf"
	}
	if samePath(tempPath, destPath) {
		return "", fmt.Errorf("%w: %s", ErrOutputIsInput, destPath)
	}
	if _, err := os.Stat(destPath); err == nil && !overwrite {
		return "", fmt.Errorf("%w: %s", ErrOutputExists, destPath)
	}

	src, err := os.Open(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to read temp file: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	staging, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	stagingPath := staging.Name()

	if _, err := io.Copy(staging, src); err != nil {
		_ = staging.Close()
		_ = os.Remove(stagingPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := staging.Close(); err != nil {
		_ = os.Remove(stagingPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := os.Chmod(stagingPath, 0644); err != nil {
		logrus.WithError(err).WithField("path", stagingPath).Debug("Failed to set file mode")
	}
	if err := os.Rename(stagingPath, destPath); err != nil {
		_ = os.Remove(stagingPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	_ = src.Close()
	CleanupTempFiles(tempPath)
	return destPath, nil
}

// checkOutputTarget validates a requested destination before any work starts.
// Empty means the result stays in the work directory.
func checkOutputTarget(requested string, overwrite bool, inputs ...string) (string, error) {
	if requested == "" {
		return "", nil
	}
	if !isPDFPath(requested) {
		requested += ".pdf"
	}
	for _, input := range inputs {
		if samePath(input, requested) {
			return "", fmt.Errorf("%w: %s", ErrOutputIsInput, requested)
		}
	}
	if _, err := os.Stat(requested); err == nil && !overwrite {
		return "", fmt.Errorf("%w: %s (set overwrite to replace it)", ErrOutputExists, requested)
	}
	return requested, nil
}

// commitOutput moves a finished work-dir file to target, or leaves it in place when target is empty
func commitOutput(produced, target string, overwrite bool) (string, error) {
	if target == "" {
		return produced, nil
	}
	saved, err := SaveFile(produced, target, overwrite)
	if err != nil {
		CleanupTempFiles(produced)
		return "", err
	}
	return saved, nil
}

// samePath reports whether a and b name the same file, following symlinks
func samePath(a, b string) bool {
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	if errA == nil && errB == nil {
		return os.SameFile(infoA, infoB)
	}
	return canonicalPath(a) == canonicalPath(b)
}

func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs))
	}
	return abs
}

func isWithin(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
