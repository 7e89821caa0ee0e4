package security

import (
	"path/filepath"
	"strings"
)

// FilePathMatcher matches file paths, including the common spellings of a home directory
type FilePathMatcher struct {
	pattern  string
	patterns []string
}

func NewFilePathMatcher(pattern string) *FilePathMatcher {
	m := &FilePathMatcher{pattern: pattern}
	m.patterns = m.generatePathPatterns(pattern)
	return m
}

func (m *FilePathMatcher) Match(path string) bool {
	for _, pattern := range m.patterns {
		if strings.ContainsAny(pattern, "*?[") {
			// A glob naming a directory also covers everything beneath it
			for dir := path; ; dir = filepath.Dir(dir) {
				if matched, _ := filepath.Match(pattern, dir); matched {
					return true
				}
				if parent := filepath.Dir(dir); parent == dir {
					break
				}
			}
			continue
		}
		if path == pattern || strings.HasPrefix(path, pattern+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (m *FilePathMatcher) generatePathPatterns(path string) []string {
	patterns := []string{path}

	if strings.HasPrefix(path, "~/") {
		relativePath := strings.TrimPrefix(path, "~/")
		patterns = append(patterns,
			"/home/*/"+relativePath,  // Common Linux pattern
			"/Users/*/"+relativePath, // Common macOS pattern
		)
		if home := homeDir(); home != "" {
			patterns = append(patterns, filepath.Join(home, relativePath))
		}
	}

	for _, prefix := range []string{"$HOME/", "${HOME}/"} {
		if strings.HasPrefix(path, prefix) {
			patterns = append(patterns, m.generatePathPatterns("~/"+strings.TrimPrefix(path, prefix))...)
		}
	}

	return patterns
}

func (m *FilePathMatcher) String() string {
	return "filepath:" + m.pattern
}

// GlobMatcher matches the file name against a glob such as "*.key"
type GlobMatcher struct {
	pattern string
}

func NewGlobMatcher(pattern string) *GlobMatcher {
	return &GlobMatcher{pattern: pattern}
}

func (m *GlobMatcher) Match(path string) bool {
	matched, _ := filepath.Match(m.pattern, filepath.Base(path))
	return matched
}

func (m *GlobMatcher) String() string {
	return "glob:" + m.pattern
}
