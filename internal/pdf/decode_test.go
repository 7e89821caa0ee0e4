package pdf

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_TextAndStructuredAgree(t *testing.T) {
	text := `{"id":"a1b2c3d4","path":"/docs/a.pdf","name":"a.pdf","pageCount":3,"size":2048,"sizeText":"2.0 KB","pageOrder":[2,0,1]}`

	var structured map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &structured))

	fromText, err := Decode[PDFDocument](text)
	require.NoError(t, err)
	fromBytes, err := Decode[PDFDocument]([]byte(text))
	require.NoError(t, err)
	fromMap, err := Decode[PDFDocument](structured)
	require.NoError(t, err)

	assert.Equal(t, fromText, fromBytes)
	assert.Equal(t, fromText, fromMap)
	assert.Equal(t, []int{2, 0, 1}, fromText.PageOrder)
	assert.Equal(t, int64(2048), fromText.Size)
}

func TestDecode_ExistingRecord(t *testing.T) {
	original := CompressionResult{Success: true, OriginalSize: 100, CompressedSize: 40, SavingsPercent: 60, OutputPath: "/tmp/c.pdf"}

	byValue, err := Decode[CompressionResult](original)
	require.NoError(t, err)
	assert.Equal(t, original, *byValue)

	byPointer, err := Decode[CompressionResult](&original)
	require.NoError(t, err)
	assert.Equal(t, original, *byPointer)

	byPointer.OutputPath = "changed"
	assert.Equal(t, "/tmp/c.pdf", original.OutputPath, "decoding copies the record")
}

// checkDecodeAgrees encodes rec and decodes it back from text, bytes and a generic map
func checkDecodeAgrees[T Record](t *testing.T, rec T) {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var structured map[string]any
	require.NoError(t, json.Unmarshal(data, &structured))

	for name, source := range map[string]any{
		"text":       string(data),
		"bytes":      data,
		"structured": structured,
	} {
		decoded, err := Decode[T](source)
		require.NoError(t, err, name)
		assert.Equal(t, rec, *decoded, name)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	t.Run("CombineResult", func(t *testing.T) {
		checkDecodeAgrees(t, CombineResult{Success: true, FileCount: 2, PageCount: 9, OutputSize: 4096, OutputPath: "/tmp/combined.pdf"})
		checkDecodeAgrees(t, *CombineFailure(1, ErrTooFewFiles))
	})
	t.Run("CompressionResult", func(t *testing.T) {
		checkDecodeAgrees(t, CompressionResult{Success: true, OriginalSize: 1048576, CompressedSize: 262144, SavingsPercent: 75, OutputPath: "/tmp/c.pdf"})
		checkDecodeAgrees(t, CompressionResult{Success: true, OriginalSize: 1000, CompressedSize: 1105, SavingsPercent: -10.5, OutputPath: "/tmp/grew.pdf"})
		checkDecodeAgrees(t, *CompressionFailure(2048, ErrEmptyFile))
	})
	t.Run("FileInfo", func(t *testing.T) {
		checkDecodeAgrees(t, FileInfo{Path: "/docs/notes.txt", Name: "notes.txt", Size: 1536, SizeText: FormatFileSize(1536)})
		checkDecodeAgrees(t, FileInfo{Path: "/docs/empty", Name: "empty", SizeText: FormatFileSize(0)})
	})
	t.Run("PDFDocument", func(t *testing.T) {
		checkDecodeAgrees(t, PDFDocument{ID: "a1b2c3d4", Path: "/docs/a.pdf", Name: "a.pdf", PageCount: 3, Size: 2048, SizeText: "2.0 KB"})
		checkDecodeAgrees(t, PDFDocument{ID: "e5f6a7b8", Path: "/docs/b.pdf", Name: "b.pdf", PageCount: 3, Size: 4096, SizeText: "4.0 KB", PageOrder: []int{2, 0, 1}})
	})
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode[FileInfo](nil)
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = Decode[FileInfo]("   ")
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = Decode[FileInfo]("{not json")
	assert.Error(t, err)

	_, err = Decode[FileInfo](`{"size":"large"}`)
	assert.Error(t, err)

	var nilDoc *PDFDocument
	_, err = Decode[PDFDocument](nilDoc)
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestDecodeSlice(t *testing.T) {
	text := `[{"id":"1","path":"/a.pdf","pageCount":1},{"id":"2","path":"/b.pdf","pageCount":2}]`

	fromText, err := DecodeSlice[PDFDocument](text)
	require.NoError(t, err)
	require.Len(t, fromText, 2)
	assert.Equal(t, "/b.pdf", fromText[1].Path)

	var structured []any
	require.NoError(t, json.Unmarshal([]byte(text), &structured))
	fromList, err := DecodeSlice[PDFDocument](structured)
	require.NoError(t, err)
	assert.Equal(t, fromText, fromList)

	fromTyped, err := DecodeSlice[PDFDocument](fromText)
	require.NoError(t, err)
	assert.Equal(t, fromText, fromTyped)

	_, err = DecodeSlice[PDFDocument]([]any{"not an object"})
	assert.ErrorContains(t, err, "item 0")
}
