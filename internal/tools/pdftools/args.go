package pdftools

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sammcj/mcp-pdftools/internal/pdf"
	"github.com/sammcj/mcp-pdftools/internal/security"
)

// requireString returns a non-empty string argument
func requireString(args map[string]any, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || strings.TrimSpace(val) == "" {
		return "", fmt.Errorf("missing or invalid required parameter: %s", key)
	}
	return strings.TrimSpace(val), nil
}

// optionalString returns a string argument or def when absent
func optionalString(args map[string]any, key, def string) string {
	if val, ok := args[key].(string); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return def
}

// optionalBool accepts booleans and their common string spellings
func optionalBool(args map[string]any, key string, def bool) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// optionalInt accepts JSON numbers, integers from the CLI and numeric strings
func optionalInt(args map[string]any, key string, def int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	n, err := toInt(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %w", key, err)
	}
	return n, nil
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not a whole number", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported number type %T", raw)
	}
}

// stringList accepts a JSON array, a []string or a comma separated string
func stringList(args map[string]any, key string) ([]string, error) {
	var out []string
	switch v := args[key].(type) {
	case nil:
		return nil, nil
	case []string:
		out = v
	case []any:
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", key, i)
			}
			out = append(out, s)
		}
	case string:
		if strings.HasPrefix(strings.TrimSpace(v), "[") {
			if err := json.Unmarshal([]byte(v), &out); err != nil {
				return nil, fmt.Errorf("invalid %s: %w", key, err)
			}
		} else {
			out = strings.Split(v, ",")
		}
	default:
		return nil, fmt.Errorf("%s must be an array of strings", key)
	}

	cleaned := make([]string, 0, len(out))
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned, nil
}

// intList accepts a JSON array of numbers or a []int
func intList(raw any) ([]int, error) {
	switch v := raw.(type) {
	case []int:
		return v, nil
	case []any:
		out := make([]int, 0, len(v))
		for i, item := range v {
			n, err := toInt(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out = append(out, n)
		}
		return out, nil
	case []string:
		out := make([]int, 0, len(v))
		for i, item := range v {
			n, err := toInt(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out = append(out, n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of page numbers, got %T", raw)
	}
}

// checkInputFile validates an input path: absolute, permitted, present and within size limits
func checkInputFile(path string) (os.FileInfo, error) {
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("path must be absolute: %s", path)
	}
	if err := security.CheckFileAccess(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory: %s", path)
	}
	if err := pdf.ValidateFileSize(info.Size()); err != nil {
		return nil, fmt.Errorf("file size validation failed: %w", err)
	}
	return info, nil
}

// checkOutputPath validates an optional output path
func checkOutputPath(path string) error {
	if path == "" {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("output_path must be an absolute path")
	}
	return security.CheckFileAccess(path)
}
