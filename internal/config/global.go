package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// StateFilePathEnvVar overrides the location of the state file
const StateFilePathEnvVar = "PDFTOOLS_STATE_PATH"

// StateFile represents the cached state for mcp-pdftools
type StateFile struct {
	// Ghostscript discovery
	GhostscriptPath    string `json:"ghostscript_path,omitempty"`
	GhostscriptVersion string `json:"ghostscript_version,omitempty"`
	LastChecked        int64  `json:"last_checked,omitempty"` // Unix timestamp

	mu   sync.RWMutex `json:"-"`
	path string
}

var (
	globalState *StateFile
	stateOnce   sync.Once
)

// GetGlobalState returns the singleton global state
func GetGlobalState() *StateFile {
	stateOnce.Do(func() {
		globalState = LoadState(getStatePath())
	})
	return globalState
}

// LoadState reads the state stored at path. A missing or corrupt file yields empty state.
func LoadState(path string) *StateFile {
	state := &StateFile{path: path}

	lock := flock.New(path + ".lock")
	if locked, err := lock.TryRLock(); err == nil && locked {
		defer func() { _ = lock.Unlock() }()
	}

	if data, err := os.ReadFile(path); err == nil {
		// Ignore JSON parsing errors and use defaults
		_ = json.Unmarshal(data, state)
	}

	return state
}

// Save writes the state to disk while holding the state file lock
func (s *StateFile) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	lock := flock.New(s.path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock state file: %w", err)
	}
	if !locked {
		return fmt.Errorf("state file is locked by another process")
	}
	defer func() { _ = lock.Unlock() }()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// SetGhostscript records the discovered Ghostscript binary and saves the state
func (s *StateFile) SetGhostscript(path, version string) error {
	s.mu.Lock()
	s.GhostscriptPath = path
	s.GhostscriptVersion = version
	s.LastChecked = getCurrentTimestamp()
	s.mu.Unlock()

	return s.Save()
}

// GetGhostscript returns the cached Ghostscript path and version
func (s *StateFile) GetGhostscript() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.GhostscriptPath, s.GhostscriptVersion
}

// Path returns the file backing this state
func (s *StateFile) Path() string {
	return s.path
}

// IsStale checks if the cached state is stale (older than 24 hours)
func (s *StateFile) IsStale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.LastChecked == 0 {
		return true
	}

	return getCurrentTimestamp()-s.LastChecked > int64((24 * time.Hour).Seconds())
}

// getStatePath returns the path to the global state file
func getStatePath() string {
	if customPath := os.Getenv(StateFilePathEnvVar); customPath != "" {
		return customPath
	}

	// Default to ~/.mcp-pdftools/state.json
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".mcp-pdftools", "state.json")
}

// getCurrentTimestamp returns the current Unix timestamp
func getCurrentTimestamp() int64 {
	return time.Now().Unix()
}
