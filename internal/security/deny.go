package security

import (
	"os"
	"path/filepath"
	"strings"
)

// NewDenyListChecker compiles the given deny patterns and allowed roots
func NewDenyListChecker(files, allowedRoots []string) *DenyListChecker {
	d := &DenyListChecker{}
	d.UpdateDenyLists(files, allowedRoots)
	return d
}

// compilePatterns builds matchers for the current patterns. Caller must hold the write lock.
func (d *DenyListChecker) compilePatterns() {
	d.compiledFiles = make([]PatternMatcher, 0, len(d.filePatterns))
	for _, pattern := range d.filePatterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		// Bare names and globs such as ".env" or "*.pem" apply to the file name anywhere on disk
		if !strings.ContainsRune(pattern, '/') {
			d.compiledFiles = append(d.compiledFiles, NewGlobMatcher(pattern))
			continue
		}
		d.compiledFiles = append(d.compiledFiles, NewFilePathMatcher(filepath.Clean(pattern)))
	}
}

// CheckFile returns an AccessDeniedError when filePath is blocked
func (d *DenyListChecker) CheckFile(filePath string) error {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	cleanPath := filepath.Clean(expandPath(filePath))
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		absPath = cleanPath
	}
	absPath = resolveExisting(absPath)

	for _, matcher := range d.compiledFiles {
		if matcher.Match(absPath) || matcher.Match(cleanPath) {
			return &AccessDeniedError{Path: filePath, Reason: "matches deny rule " + matcher.String()}
		}
	}

	if len(d.allowedRoots) > 0 && !d.underAllowedRoot(absPath) {
		return &AccessDeniedError{Path: filePath, Reason: "outside allowed roots"}
	}

	return nil
}

// IsFileBlocked checks if a file path is blocked by deny rules
func (d *DenyListChecker) IsFileBlocked(filePath string) bool {
	return d.CheckFile(filePath) != nil
}

func (d *DenyListChecker) underAllowedRoot(absPath string) bool {
	for _, root := range d.allowedRoots {
		if abs, err := filepath.Abs(expandPath(root)); err == nil {
			root = resolveExisting(abs)
		}
		if absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// UpdateDenyLists replaces the deny patterns and allowed roots
func (d *DenyListChecker) UpdateDenyLists(files, allowedRoots []string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.filePatterns = append([]string(nil), files...)
	d.allowedRoots = append([]string(nil), allowedRoots...)
	d.compilePatterns()
}

// GetDenyLists returns copies of the current patterns and roots
func (d *DenyListChecker) GetDenyLists() (files, allowedRoots []string) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	return append([]string(nil), d.filePatterns...), append([]string(nil), d.allowedRoots...)
}

// resolveExisting resolves symlinks in the longest existing prefix of an absolute path
func resolveExisting(absPath string) string {
	var rest []string
	for dir := absPath; ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absPath
		}
		rest = append([]string{filepath.Base(dir)}, rest...)
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home := homeDir(); home != "" {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
