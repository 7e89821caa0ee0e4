package registry

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sammcj/mcp-pdftools/internal/tools"
	"github.com/sirupsen/logrus"
)

// DisabledToolsEnvVar lists tools that must never be exposed
const DisabledToolsEnvVar = "DISABLED_TOOLS"

var (
	// toolRegistry is a map of tool names to tool implementations
	toolRegistry = make(map[string]tools.Tool)

	// disabledTools is a set of tool names to disable
	disabledTools = make(map[string]bool)

	// logger is the shared logger instance
	logger *logrus.Logger

	// cache is the shared cache instance
	cache *sync.Map
)

// Init initialises the registry and shared resources
func Init(l *logrus.Logger) {
	logger = l
	cache = &sync.Map{}

	parseDisabledTools()
}

// parseDisabledTools parses the DISABLED_TOOLS environment variable
func parseDisabledTools() {
	disabledTools = make(map[string]bool)

	for tool := range strings.SplitSeq(os.Getenv(DisabledToolsEnvVar), ",") {
		tool = tools.NormaliseToolName(tool)
		if tool == "" {
			continue
		}
		disabledTools[tool] = true
		if logger != nil {
			logger.WithField("tool", tool).Debug("Tool disabled")
		}
	}
}

// additionalTools are off unless listed in ENABLE_ADDITIONAL_TOOLS.
// pdf_save writes to arbitrary destinations.
var additionalTools = map[string]bool{
	"pdf-save": true,
}

// RequiresEnablement reports whether toolName is off unless listed in ENABLE_ADDITIONAL_TOOLS
func RequiresEnablement(toolName string) bool {
	return additionalTools[tools.NormaliseToolName(toolName)]
}

// ShouldRegisterTool checks if a tool should be registered based on:
// 1. DISABLED_TOOLS - explicit disable, highest priority
// 2. Tool's enablement requirement
// 3. ENABLE_ADDITIONAL_TOOLS (explicit enable)
func ShouldRegisterTool(toolName string) bool {
	if disabledTools[tools.NormaliseToolName(toolName)] {
		if logger != nil {
			logger.WithField("tool", toolName).Debug("Tool disabled via environment variable")
		}
		return false
	}

	if RequiresEnablement(toolName) {
		enabled := tools.IsToolEnabled(toolName)
		if logger != nil {
			logger.WithFields(logrus.Fields{"tool": toolName, "enabled": enabled}).Debug("Tool requires enablement")
		}
		return enabled
	}

	return true
}

// Register adds a tool implementation to the registry.
// Tools register from init(), before Init has read the environment, so
// filtering happens again when tools are listed.
func Register(tool tools.Tool) {
	if toolRegistry == nil {
		toolRegistry = make(map[string]tools.Tool)
	}

	toolName := tool.Definition().Name
	toolRegistry[toolName] = tool
	if logger != nil {
		logger.WithField("tool", toolName).Debug("Tool registered")
	}
}

// GetTool retrieves an enabled tool by name
func GetTool(name string) (tools.Tool, bool) {
	if !ShouldRegisterTool(name) {
		return nil, false
	}
	tool, ok := toolRegistry[name]
	return tool, ok
}

// GetEnabledTools returns all tools that are enabled for MCP server registration
func GetEnabledTools() map[string]tools.Tool {
	filteredTools := make(map[string]tools.Tool)
	for name, tool := range toolRegistry {
		if !ShouldRegisterTool(name) {
			continue
		}
		filteredTools[name] = tool
	}
	return filteredTools
}

// GetLogger returns the shared logger instance
func GetLogger() *logrus.Logger {
	return logger
}

// GetCache returns the shared cache instance
func GetCache() *sync.Map {
	return cache
}

// GetEnabledToolNames returns a sorted list of enabled tool names
func GetEnabledToolNames() []string {
	var names []string
	for name := range GetEnabledTools() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetToolNamesWithExtendedHelp returns a sorted list of enabled tool names that provide extended help
func GetToolNamesWithExtendedHelp() []string {
	var names []string
	for name, tool := range GetEnabledTools() {
		if _, ok := tool.(tools.ExtendedHelpProvider); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Unregister removes a tool. Intended for tests.
func Unregister(name string) {
	delete(toolRegistry, name)
}
