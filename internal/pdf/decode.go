package pdf

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Record is the set of types that can be decoded from tool arguments
type Record interface {
	CombineResult | CompressionResult | FileInfo | PDFDocument | ThumbnailResult
}

// Decode builds a record from JSON text ([]byte or string), an existing record
// or any structured value such as a map decoded from an MCP argument.
// Textual and structured forms of the same data decode to the same record.
func Decode[T Record](source any) (*T, error) {
	data, done, err := normalise[T](source)
	if err != nil {
		return nil, err
	}
	if done != nil {
		return done, nil
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", out, err)
	}
	return &out, nil
}

// DecodeSlice builds a slice of records from a JSON array or a structured list
func DecodeSlice[T Record](source any) ([]T, error) {
	switch src := source.(type) {
	case []T:
		return append([]T(nil), src...), nil
	case []*T:
		out := make([]T, 0, len(src))
		for _, item := range src {
			if item != nil {
				out = append(out, *item)
			}
		}
		return out, nil
	case []any:
		out := make([]T, 0, len(src))
		for i, item := range src {
			rec, err := Decode[T](item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out = append(out, *rec)
		}
		return out, nil
	}

	data, err := asJSON(source)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode list of %T: %w", *new(T), err)
	}
	return out, nil
}

// normalise returns either the JSON encoding of source or, when source is
// already a record, a copy of it.
func normalise[T Record](source any) ([]byte, *T, error) {
	switch src := source.(type) {
	case T:
		return nil, &src, nil
	case *T:
		if src == nil {
			return nil, nil, ErrEmptySource
		}
		cp := *src
		return nil, &cp, nil
	}
	data, err := asJSON(source)
	return data, nil, err
}

func asJSON(source any) ([]byte, error) {
	switch src := source.(type) {
	case nil:
		return nil, ErrEmptySource
	case string:
		if strings.TrimSpace(src) == "" {
			return nil, ErrEmptySource
		}
		return []byte(src), nil
	case []byte:
		if len(src) == 0 {
			return nil, ErrEmptySource
		}
		return src, nil
	case json.RawMessage:
		if len(src) == 0 {
			return nil, ErrEmptySource
		}
		return src, nil
	default:
		data, err := json.Marshal(src)
		if err != nil {
			return nil, fmt.Errorf("failed to encode source: %w", err)
		}
		return data, nil
	}
}
