package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	EnabledEnvVar = "PDFTOOLS_SECURITY_ENABLED"
	ConfigEnvVar  = "PDFTOOLS_SECURITY_CONFIG"
)

// Manager applies the access rules to file paths used by tools
type Manager struct {
	checker *DenyListChecker
	store   *RuleStore
}

var (
	globalManager      *Manager
	globalManagerMutex sync.RWMutex
)

// NewManager loads rules from rulesPath and keeps the deny list in sync with it
func NewManager(rulesPath string) (*Manager, error) {
	m := &Manager{checker: NewDenyListChecker(nil, nil)}

	store, err := NewRuleStore(rulesPath, func(rules *AccessRules) {
		m.checker.UpdateDenyLists(rules.AccessControl.DenyFiles, rules.AccessControl.AllowedRoots)
	})
	if err != nil {
		return nil, err
	}
	m.store = store
	return m, nil
}

// NewManagerWithRules builds a manager from in-memory rules
func NewManagerWithRules(rules *AccessRules) *Manager {
	return &Manager{
		checker: NewDenyListChecker(rules.AccessControl.DenyFiles, rules.AccessControl.AllowedRoots),
	}
}

// CheckFileAccess returns an error if filePath may not be used
func (m *Manager) CheckFileAccess(filePath string) error {
	if filePath == "" {
		return nil
	}
	if err := m.checker.CheckFile(filePath); err != nil {
		logrus.WithFields(logrus.Fields{
			"path":  filePath,
			"event": "file_access_blocked",
		}).Warn(err.Error())
		return err
	}
	return nil
}

// Close releases the rules file watcher
func (m *Manager) Close() error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}

// RulesPath returns the default location of the rules file
func RulesPath() string {
	if envPath := os.Getenv(ConfigEnvVar); envPath != "" {
		return expandPath(envPath)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mcp-pdftools", "security.yaml")
}

// InitGlobalManager enables access control when PDFTOOLS_SECURITY_ENABLED is true.
// Failures are logged and leave access control off.
func InitGlobalManager() error {
	globalManagerMutex.Lock()
	defer globalManagerMutex.Unlock()

	if globalManager != nil {
		return nil
	}

	if !strings.EqualFold(os.Getenv(EnabledEnvVar), "true") {
		logrus.Debug("File access control not enabled")
		return nil
	}

	manager, err := NewManager(RulesPath())
	if err != nil {
		logrus.WithError(err).Warn("Failed to initialise file access control, continuing without it")
		return fmt.Errorf("failed to initialise file access control: %w", err)
	}

	globalManager = manager
	logrus.WithField("rules_path", RulesPath()).Debug("File access control initialised")
	return nil
}

// SetGlobalManager replaces the global manager, returning the previous one
func SetGlobalManager(m *Manager) *Manager {
	globalManagerMutex.Lock()
	defer globalManagerMutex.Unlock()
	prev := globalManager
	globalManager = m
	return prev
}

// IsEnabled returns whether access control is active
func IsEnabled() bool {
	globalManagerMutex.RLock()
	defer globalManagerMutex.RUnlock()
	return globalManager != nil
}

// CheckFileAccess checks file access via the global manager
func CheckFileAccess(filePath string) error {
	globalManagerMutex.RLock()
	manager := globalManager
	globalManagerMutex.RUnlock()

	if manager == nil {
		return nil
	}
	return manager.CheckFileAccess(filePath)
}
