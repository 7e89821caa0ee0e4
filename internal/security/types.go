package security

import (
	"fmt"
	"sync"
)

// AccessRules is the on-disk security configuration
type AccessRules struct {
	Version       string        `yaml:"version"`
	Settings      Settings      `yaml:"settings"`
	AccessControl AccessControl `yaml:"access_control"`
}

// Settings controls how the rules file is used
type Settings struct {
	AutoReload bool `yaml:"auto_reload"`
}

// AccessControl lists the paths tools may not touch.
// When AllowedRoots is non-empty every path must also lie beneath one of its entries.
type AccessControl struct {
	DenyFiles    []string `yaml:"deny_files"`
	AllowedRoots []string `yaml:"allowed_roots"`
}

// PatternMatcher matches a path against a single deny pattern
type PatternMatcher interface {
	Match(path string) bool
	String() string
}

// DenyListChecker manages file access control
type DenyListChecker struct {
	filePatterns  []string
	allowedRoots  []string
	compiledFiles []PatternMatcher
	mutex         sync.RWMutex
}

// AccessDeniedError is returned when a path is rejected by the access rules
type AccessDeniedError struct {
	Path   string
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: %s (%s)", e.Path, e.Reason)
}
