package security

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigTemplate string

// RuleStore loads the YAML rules file and optionally keeps it in sync with disk
type RuleStore struct {
	rulesPath string
	rules     *AccessRules
	onChange  func(*AccessRules)
	watcher   *fsnotify.Watcher
	mutex     sync.RWMutex
}

// NewRuleStore loads rulesPath, writing the default rules first if the file is missing.
// onChange is called after every successful reload.
func NewRuleStore(rulesPath string, onChange func(*AccessRules)) (*RuleStore, error) {
	store := &RuleStore{
		rulesPath: rulesPath,
		onChange:  onChange,
	}

	if err := store.ensureRulesFile(); err != nil {
		return nil, fmt.Errorf("failed to ensure rules file: %w", err)
	}

	if err := store.LoadRules(); err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	if store.Rules().Settings.AutoReload {
		if err := store.startFileWatcher(); err != nil {
			logrus.WithError(err).Warn("Failed to start rule file watcher, auto-reload disabled")
		}
	}

	return store, nil
}

// ensureRulesFile creates the default rules file if it doesn't exist
func (r *RuleStore) ensureRulesFile() error {
	if _, err := os.Stat(r.rulesPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(r.rulesPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(r.rulesPath, []byte(DefaultRules()), 0600); err != nil {
		return fmt.Errorf("failed to create default rules: %w", err)
	}

	logrus.WithField("path", r.rulesPath).Debug("Created default security rules")
	return nil
}

// DefaultRules returns the default rules file content
func DefaultRules() string {
	return strings.ReplaceAll(defaultConfigTemplate, "{{.Timestamp}}", time.Now().Format(time.RFC3339))
}

// ParseRules decodes a rules document
func ParseRules(data []byte) (*AccessRules, error) {
	rules := &AccessRules{}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("failed to parse security rules: %w", err)
	}
	return rules, nil
}

// LoadRules reads the rules file from disk and notifies onChange
func (r *RuleStore) LoadRules() error {
	data, err := os.ReadFile(r.rulesPath)
	if err != nil {
		return fmt.Errorf("failed to read rules file: %w", err)
	}

	rules, err := ParseRules(data)
	if err != nil {
		return err
	}

	r.mutex.Lock()
	r.rules = rules
	r.mutex.Unlock()

	if r.onChange != nil {
		r.onChange(rules)
	}

	logrus.WithFields(logrus.Fields{
		"path":       r.rulesPath,
		"deny_files": len(rules.AccessControl.DenyFiles),
	}).Debug("Security rules loaded")
	return nil
}

// Rules returns the most recently loaded rules
func (r *RuleStore) Rules() *AccessRules {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.rules
}

// Path returns the rules file location
func (r *RuleStore) Path() string {
	return r.rulesPath
}

// Close stops watching the rules file
func (r *RuleStore) Close() error {
	r.mutex.Lock()
	watcher := r.watcher
	r.watcher = nil
	r.mutex.Unlock()

	if watcher == nil {
		return nil
	}
	return watcher.Close()
}

// startFileWatcher watches the rules file's directory so editors that replace the file are handled
func (r *RuleStore) startFileWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(r.rulesPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch rules file: %w", err)
	}

	r.mutex.Lock()
	r.watcher = watcher
	r.mutex.Unlock()

	target := filepath.Clean(r.rulesPath)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					logrus.Debug("Security rules file changed, reloading")
					if err := r.LoadRules(); err != nil {
						logrus.WithError(err).Error("Failed to reload security rules")
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.WithError(err).Error("Security rules file watcher error")
			}
		}
	}()

	return nil
}
