// Package cli runs the PDF tools directly from the command line without an
// MCP server. Tools are invoked in-process through the registry.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sahilm/fuzzy"
	"github.com/sammcj/mcp-pdftools/internal/pdf"
	"github.com/sammcj/mcp-pdftools/internal/registry"
	"github.com/sammcj/mcp-pdftools/internal/tools"
	"github.com/sirupsen/logrus"
)

// OutputFormat controls how tool results are rendered.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

var (
	successColour = color.New(color.FgGreen, color.Bold)
	failureColour = color.New(color.FgRed, color.Bold)
	dimColour     = color.New(color.Faint)
)

// Runner executes CLI commands against the tool registry.
type Runner struct {
	logger *logrus.Logger
	cache  *sync.Map
	output OutputFormat
	out    io.Writer
}

// NewRunner creates a Runner that writes to stdout.
func NewRunner(logger *logrus.Logger, cache *sync.Map, output OutputFormat) *Runner {
	return &Runner{logger: logger, cache: cache, output: output, out: os.Stdout}
}

// SetOutput redirects rendered output, mainly for tests.
func (r *Runner) SetOutput(w io.Writer) {
	r.out = w
}

// ListTools prints all enabled tools with their descriptions.
func (r *Runner) ListTools() error {
	enabled := registry.GetEnabledTools()

	type entry struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	entries := make([]entry, 0, len(enabled))
	for _, t := range enabled {
		def := t.Definition()
		entries = append(entries, entry{Name: def.Name, Description: firstSentence(def.Description)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	if r.output == OutputJSON {
		return writeJSON(r.out, entries)
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.Name, e.Description)
	}
	return w.Flush()
}

// HelpTool prints the parameters and examples of a single tool.
func (r *Runner) HelpTool(name string) error {
	tool, err := lookupTool(name)
	if err != nil {
		return err
	}
	def := tool.Definition()

	if r.output == OutputJSON {
		return writeJSON(r.out, def)
	}

	fmt.Fprintf(r.out, "Tool: %s\n\n", def.Name)
	if def.Description != "" {
		fmt.Fprintf(r.out, "%s\n\n", def.Description)
	}

	props := def.InputSchema.Properties
	if len(props) == 0 {
		fmt.Fprintln(r.out, "No parameters.")
	} else {
		required := make(map[string]bool, len(def.InputSchema.Required))
		for _, name := range def.InputSchema.Required {
			required[name] = true
		}

		names := make([]string, 0, len(props))
		for k := range props {
			names = append(names, k)
		}
		slices.Sort(names)

		fmt.Fprintln(r.out, "Parameters:")
		w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
		for _, pName := range names {
			pMap, ok := props[pName].(map[string]any)
			if !ok {
				continue
			}
			pType, _ := pMap["type"].(string)
			pDesc, _ := pMap["description"].(string)

			reqMark := ""
			if required[pName] {
				reqMark = " (required)"
			}
			fmt.Fprintf(w, "  --%s\t%s\t%s%s%s\n", toFlagName(pName), pType, firstSentence(pDesc), reqMark, formatEnum(pMap))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if provider, ok := tool.(tools.ExtendedHelpProvider); ok {
		if help := provider.ProvideExtendedInfo(); help != nil && len(help.Examples) > 0 {
			fmt.Fprintln(r.out, "\nExamples:")
			for _, ex := range help.Examples {
				fmt.Fprintf(r.out, "  %s\n", ex.Description)
				fmt.Fprintf(r.out, "    mcp-pdftools cli run %s%s\n", toFlagName(def.Name), exampleFlags(ex.Arguments))
			}
		}
	}
	return nil
}

// RunTool executes a tool by name with the given arguments.
// args can be:
//   - A single JSON string: '{"key": "value"}'
//   - Flag-style arguments: --key=value --flag
//   - Mixed: --key=value '{"other": "json"}'  (flags take precedence)
func (r *Runner) RunTool(ctx context.Context, name string, args []string) error {
	tool, err := lookupTool(name)
	if err != nil {
		return err
	}

	params, err := parseArgs(args, tool.Definition())
	if err != nil {
		return fmt.Errorf("argument error: %w", err)
	}

	if r.logger != nil {
		ctx = pdf.WithReporter(ctx, pdf.LogReporter{Logger: r.logger})
	}

	result, err := tool.Execute(ctx, r.logger, r.cache, params)
	if err != nil {
		return fmt.Errorf("tool error: %w", err)
	}

	return r.renderResult(result)
}

// lookupTool resolves name to an enabled tool, suggesting a close match when there is none
func lookupTool(name string) (tools.Tool, error) {
	if resolved, found := resolveTool(name); found {
		tool, _ := registry.GetTool(resolved)
		return tool, nil
	}

	msg := fmt.Sprintf("unknown tool: %s", name)
	candidates := registry.GetEnabledToolNames()
	if matches := fuzzy.Find(strings.ReplaceAll(name, "-", "_"), candidates); len(matches) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", matches[0].Str)
	}
	return nil, fmt.Errorf("%s, run 'mcp-pdftools cli list' to see available tools", msg)
}

// parseArgs converts CLI arguments into a map[string]any suitable for tool.Execute().
// Supports JSON input, --key=value flags, and --flag (boolean true).
func parseArgs(args []string, def mcp.Tool) (map[string]any, error) {
	params := make(map[string]any)
	schema := buildSchemaInfo(def)

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "{") {
			var obj map[string]any
			if err := json.Unmarshal([]byte(arg), &obj); err != nil {
				return nil, fmt.Errorf("invalid JSON argument: %w", err)
			}
			// Flags win over JSON
			for k, v := range obj {
				if _, exists := params[k]; !exists {
					params[k] = v
				}
			}
			continue
		}

		if strings.HasPrefix(arg, "--") {
			key, val, err := parseFlag(arg, args, &i, schema)
			if err != nil {
				return nil, err
			}
			params[key] = val
			continue
		}

		return nil, fmt.Errorf("unexpected argument: %s (use --key=value flags or pass a JSON object)", arg)
	}

	return params, nil
}

// schemaInfo holds resolved schema information for argument parsing.
type schemaInfo struct {
	// typeMap maps parameter names to their JSON Schema types
	typeMap map[string]string
	// flagToParam maps kebab-case flag names to parameter names
	flagToParam map[string]string
}

// parseFlag parses a single --key=value or --key value or --flag (bool true).
func parseFlag(arg string, args []string, idx *int, schema schemaInfo) (string, any, error) {
	stripped := strings.TrimPrefix(arg, "--")

	if flagName, rawVal, found := strings.Cut(stripped, "="); found {
		paramName := schema.resolveParam(flagName)
		return paramName, coerceValue(rawVal, schema.typeMap[paramName]), nil
	}

	flagName := stripped
	paramName := schema.resolveParam(flagName)

	if schema.typeMap[paramName] == "boolean" {
		return paramName, true, nil
	}

	*idx++
	if *idx >= len(args) {
		return "", nil, fmt.Errorf("flag --%s requires a value", flagName)
	}
	return paramName, coerceValue(args[*idx], schema.typeMap[paramName]), nil
}

func (s schemaInfo) resolveParam(flagName string) string {
	if actual, ok := s.flagToParam[flagName]; ok {
		return actual
	}
	return strings.ReplaceAll(flagName, "-", "_")
}

func buildSchemaInfo(def mcp.Tool) schemaInfo {
	info := schemaInfo{
		typeMap:     make(map[string]string, len(def.InputSchema.Properties)),
		flagToParam: make(map[string]string, len(def.InputSchema.Properties)),
	}
	for name, prop := range def.InputSchema.Properties {
		if pm, ok := prop.(map[string]any); ok {
			if t, ok := pm["type"].(string); ok {
				info.typeMap[name] = t
			}
		}
		info.flagToParam[toFlagName(name)] = name
	}
	return info
}

// coerceValue converts a string value to the Go type implied by its JSON Schema type.
func coerceValue(raw, schemaType string) any {
	switch schemaType {
	case "number", "integer":
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
		return raw
	case "boolean":
		switch strings.ToLower(raw) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
		return raw
	case "array":
		var arr []any
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			return arr
		}
		return strings.Split(raw, ",")
	case "object":
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err == nil {
			return obj
		}
		return raw
	default:
		return raw
	}
}

// renderResult formats a CallToolResult for the terminal. Result records
// carrying a success flag get a coloured status line.
func (r *Runner) renderResult(result *mcp.CallToolResult) error {
	if result == nil {
		return nil
	}

	if r.output == OutputJSON {
		return writeJSON(r.out, result)
	}

	var failed error
	for _, content := range result.Content {
		text, ok := content.(mcp.TextContent)
		if !ok {
			data, err := json.MarshalIndent(content, "", "  ")
			if err != nil {
				fmt.Fprintf(r.out, "%+v\n", content)
			} else {
				fmt.Fprintln(r.out, string(data))
			}
			continue
		}

		if status, ok := outcomeOf(text.Text); ok {
			if *status.Success {
				successColour.Fprintln(r.out, "✓ Success")
			} else {
				failureColour.Fprintf(r.out, "✗ Failed: %s\n", status.Error)
				failed = fmt.Errorf("operation failed: %s", status.Error)
			}
		}
		fmt.Fprintln(r.out, text.Text)
	}

	if result.IsError {
		return fmt.Errorf("tool returned an error")
	}
	return failed
}

// outcome is the success flag shared by combine and compress result records
type outcome struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// outcomeOf extracts the success flag from a JSON result record
func outcomeOf(text string) (outcome, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return outcome{}, false
	}
	var o outcome
	if err := json.Unmarshal([]byte(trimmed), &o); err != nil || o.Success == nil {
		return outcome{}, false
	}
	return o, true
}

// resolveTool looks up a tool by name, trying the name as-is first and then
// with hyphens converted to underscores.
func resolveTool(name string) (string, bool) {
	if _, ok := registry.GetTool(name); ok {
		return name, true
	}
	snakeName := strings.ReplaceAll(name, "-", "_")
	if snakeName != name {
		if _, ok := registry.GetTool(snakeName); ok {
			return snakeName, true
		}
	}
	return name, false
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// firstSentence trims a description to its first line and sentence
func firstSentence(s string) string {
	if before, _, found := strings.Cut(s, "\n"); found {
		s = before
	}
	if before, _, found := strings.Cut(s, ". "); found {
		return before + "."
	}
	return s
}

// toFlagName converts camelCase or snake_case to kebab-case for CLI flags.
func toFlagName(s string) string {
	s = strings.ReplaceAll(s, "_", "-")
	var out strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				out.WriteByte('-')
			}
			out.WriteRune(r + 32)
		} else {
			out.WriteRune(r)
		}
	}
	return out.String()
}

func formatEnum(pMap map[string]any) string {
	var vals []string
	switch enum := pMap["enum"].(type) {
	case []string:
		vals = enum
	case []any:
		for _, v := range enum {
			vals = append(vals, fmt.Sprint(v))
		}
	}
	if len(vals) == 0 {
		return ""
	}
	return dimColour.Sprint(" [" + strings.Join(vals, "|") + "]")
}

// exampleFlags renders example arguments as CLI flags in a stable order
func exampleFlags(args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		var val string
		switch v := args[k].(type) {
		case string:
			val = v
		default:
			data, err := json.Marshal(v)
			if err != nil {
				continue
			}
			val = "'" + string(data) + "'"
		}
		fmt.Fprintf(&b, " --%s=%s", toFlagName(k), val)
	}
	return b.String()
}
