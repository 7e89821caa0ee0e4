package testutils

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// MockTool implements the Tool interface for testing
type MockTool struct {
	definition mcp.Tool
	executeErr error
	result     *mcp.CallToolResult
	lastArgs   map[string]any
}

// NewMockTool creates a new mock tool
func NewMockTool(name string) *MockTool {
	return &MockTool{
		definition: mcp.NewTool(name,
			mcp.WithDescription("Mock tool for testing"),
			mcp.WithString("input",
				mcp.Required(),
				mcp.Description("Test input parameter"),
			),
		),
		result: mcp.NewToolResultText("mock result"),
	}
}

// WithError configures the mock to return an error
func (m *MockTool) WithError(err error) *MockTool {
	m.executeErr = err
	return m
}

// WithResult configures the mock to return a specific result
func (m *MockTool) WithResult(result *mcp.CallToolResult) *MockTool {
	m.result = result
	return m
}

// LastArgs returns the arguments of the most recent Execute call
func (m *MockTool) LastArgs() map[string]any {
	return m.lastArgs
}

// Definition returns the tool's definition for MCP registration
func (m *MockTool) Definition() mcp.Tool {
	return m.definition
}

// Execute executes the mock tool
func (m *MockTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	m.lastArgs = args
	if m.executeErr != nil {
		return nil, m.executeErr
	}
	return m.result, nil
}
