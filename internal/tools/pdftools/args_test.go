package pdftools

import (
	"testing"

	"github.com/sammcj/mcp-pdftools/internal/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalInt(t *testing.T) {
	args := map[string]any{
		"json":  float64(120),
		"cli":   int64(80),
		"text":  " 42 ",
		"frac":  1.5,
		"word":  "wide",
		"other": true,
	}

	n, err := optionalInt(args, "json", 0)
	require.NoError(t, err)
	assert.Equal(t, 120, n)

	n, err = optionalInt(args, "cli", 0)
	require.NoError(t, err)
	assert.Equal(t, 80, n)

	n, err = optionalInt(args, "text", 0)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	n, err = optionalInt(args, "missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	for _, key := range []string{"frac", "word", "other"} {
		_, err = optionalInt(args, key, 0)
		assert.Error(t, err, key)
	}
}

func TestStringList(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{"json array", []any{"/a.pdf", " /b.pdf "}, []string{"/a.pdf", "/b.pdf"}},
		{"string slice", []string{"/a.pdf", ""}, []string{"/a.pdf"}},
		{"comma separated", "/a.pdf,/b.pdf", []string{"/a.pdf", "/b.pdf"}},
		{"json text", `["/a.pdf","/b.pdf"]`, []string{"/a.pdf", "/b.pdf"}},
		{"absent", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stringList(map[string]any{"paths": tt.raw}, "paths")
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := stringList(map[string]any{"paths": []any{"/a.pdf", 3.0}}, "paths")
	assert.Error(t, err)

	_, err = stringList(map[string]any{"paths": 12}, "paths")
	assert.Error(t, err)
}

func TestIntList(t *testing.T) {
	got, err := intList([]any{float64(3), int64(1), "2"})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, got)

	got, err = intList([]string{"2", "1"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, got)

	_, err = intList([]any{"x"})
	assert.ErrorContains(t, err, "item 0")

	_, err = intList(map[string]any{})
	assert.Error(t, err)
}

func TestParsePageOrderArg(t *testing.T) {
	got, err := parsePageOrderArg("3,1,2", 3)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, got)

	got, err = parsePageOrderArg("[2, 1]", 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, got)

	got, err = parsePageOrderArg([]any{float64(1), float64(1)}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, got)

	_, err = parsePageOrderArg([]any{float64(4)}, 3)
	assert.ErrorIs(t, err, pdf.ErrInvalidPageOrder)

	_, err = parsePageOrderArg([]any{}, 3)
	assert.ErrorIs(t, err, pdf.ErrEmptyPageOrder)

	_, err = parsePageOrderArg(nil, 3)
	assert.Error(t, err)
}

func TestCheckInputFile(t *testing.T) {
	dir := t.TempDir()

	_, err := checkInputFile("relative.pdf")
	assert.ErrorContains(t, err, "must be absolute")

	_, err = checkInputFile(dir + "/missing.pdf")
	assert.ErrorContains(t, err, "does not exist")

	_, err = checkInputFile(dir)
	assert.ErrorContains(t, err, "directory")
}

func TestInInputOrder(t *testing.T) {
	paths := []string{"/a.pdf", "/denied.pdf", "/b.txt", "/a.pdf", "/c.pdf"}
	skipped := []pdf.SkippedFile{
		{Path: "/denied.pdf", Error: "access denied"},
		{Path: "/a.pdf", Error: "first"},
		{Path: "/b.txt", Error: "file is not a PDF"},
		{Path: "/a.pdf", Error: "second"},
	}

	ordered := inInputOrder(paths, skipped)
	require.Len(t, ordered, 4)
	assert.Equal(t, "first", ordered[0].Error)
	assert.Equal(t, "/denied.pdf", ordered[1].Path)
	assert.Equal(t, "/b.txt", ordered[2].Path)
	assert.Equal(t, "second", ordered[3].Error)

	assert.Empty(t, inInputOrder(paths, nil))
}
