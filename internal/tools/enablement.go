package tools

import (
	"os"
	"strings"
)

// EnableAdditionalToolsEnvVar lists tools that are off unless named here
const EnableAdditionalToolsEnvVar = "ENABLE_ADDITIONAL_TOOLS"

// IsToolEnabled checks if a tool is enabled via the ENABLE_ADDITIONAL_TOOLS environment variable.
// The environment variable should contain a comma-separated list of tool names, or "all".
// Tool names are case-insensitive, spaces are ignored and underscores match hyphens.
//
// Example: ENABLE_ADDITIONAL_TOOLS="pdf-save"
func IsToolEnabled(toolName string) bool {
	enabledTools := os.Getenv(EnableAdditionalToolsEnvVar)
	if enabledTools == "" {
		return false
	}

	if strings.TrimSpace(strings.ToLower(enabledTools)) == "all" {
		return true
	}

	normalisedToolName := NormaliseToolName(toolName)
	for tool := range strings.SplitSeq(enabledTools, ",") {
		if NormaliseToolName(tool) == normalisedToolName {
			return true
		}
	}

	return false
}

// NormaliseToolName lowercases a tool name, trims it and maps underscores to hyphens
func NormaliseToolName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-"))
}
