package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sammcj/mcp-pdftools/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inspect(t *testing.T, path string) PDFDocument {
	t.Helper()
	doc, err := GetPDFInfo(path)
	require.NoError(t, err)
	return *doc
}

func TestCombinePDFs(t *testing.T) {
	testutils.IsolateWorkspace(t)
	dir := t.TempDir()

	a := inspect(t, testutils.WritePagedPDF(t, dir, "a.pdf", "A", 2))
	b := inspect(t, testutils.WritePagedPDF(t, dir, "b.pdf", "B", 3))

	rec := newRecordingReporter()
	ctx := WithReporter(context.Background(), rec)

	result, err := CombinePDFs(ctx, []PDFDocument{a, b}, CombineOptions{})
	require.NoError(t, err)
	require.NoError(t, result.Validate())

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.FileCount)
	assert.Equal(t, 5, result.PageCount)
	assert.Positive(t, result.OutputSize)
	assert.True(t, IsTempFile(result.OutputPath))

	assert.Equal(t, []string{"A 1", "A 2", "B 1", "B 2", "B 3"}, testutils.PageLabels(t, result.OutputPath))

	assert.Equal(t, []int{10, 30, 80, 100}, rec.percents[OpCombine])
	assert.Contains(t, rec.logs, "Adding: a.pdf (2 pages)")
	assert.Contains(t, rec.logs, "Adding: b.pdf (3 pages)")
}

func TestCombinePDFs_WithPageOrderAndOutputPath(t *testing.T) {
	testutils.IsolateWorkspace(t)
	dir := t.TempDir()

	a := inspect(t, testutils.WritePagedPDF(t, dir, "a.pdf", "A", 3))
	a.PageOrder = []int{2, 1, 0}
	b := PDFDocument{Path: testutils.WritePagedPDF(t, dir, "b.pdf", "B", 1)}

	out := filepath.Join(t.TempDir(), "nested", "combined")
	result, err := CombinePDFs(context.Background(), []PDFDocument{a, b}, CombineOptions{OutputPath: out})
	require.NoError(t, err)

	assert.Equal(t, out+".pdf", result.OutputPath)
	assert.Equal(t, 4, result.PageCount)
	assert.Equal(t, []string{"A 3", "A 2", "A 1", "B 1"}, testutils.PageLabels(t, result.OutputPath))
}

func TestCombinePDFs_PermutedPageOrder(t *testing.T) {
	testutils.IsolateWorkspace(t)
	dir := t.TempDir()

	a := inspect(t, testutils.WritePagedPDF(t, dir, "a.pdf", "A", 3))
	a.PageOrder = []int{2, 0, 1}
	b := inspect(t, testutils.WritePagedPDF(t, dir, "b.pdf", "B", 2))
	b.PageOrder = []int{1, 0}

	result, err := CombinePDFs(context.Background(), []PDFDocument{a, b}, CombineOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A 3", "A 1", "A 2", "B 2", "B 1"}, testutils.PageLabels(t, result.OutputPath))
}

func TestCombinePDFs_OutputPathGuards(t *testing.T) {
	testutils.IsolateWorkspace(t)
	dir := t.TempDir()
	aPath := testutils.WritePagedPDF(t, dir, "a.pdf", "A", 2)
	bPath := testutils.WritePagedPDF(t, dir, "b.pdf", "B", 1)
	docs := []PDFDocument{{Path: aPath}, {Path: bPath}}

	for _, out := range []string{aPath, filepath.Join(dir, "b")} {
		_, err := CombinePDFs(context.Background(), docs, CombineOptions{OutputPath: out, Overwrite: true})
		assert.ErrorIs(t, err, ErrOutputIsInput)
	}
	assert.Equal(t, []string{"A 1", "A 2"}, testutils.PageLabels(t, aPath), "inputs are untouched")
	assert.Equal(t, []string{"B 1"}, testutils.PageLabels(t, bPath))

	existing := testutils.WritePagedPDF(t, dir, "existing.pdf", "Old", 1)
	_, err := CombinePDFs(context.Background(), docs, CombineOptions{OutputPath: existing})
	assert.ErrorIs(t, err, ErrOutputExists)
	assert.Equal(t, []string{"Old 1"}, testutils.PageLabels(t, existing))

	result, err := CombinePDFs(context.Background(), docs, CombineOptions{OutputPath: existing, Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, existing, result.OutputPath)
	assert.Equal(t, []string{"A 1", "A 2", "B 1"}, testutils.PageLabels(t, existing))
}

func TestCombinePDFs_StalePageCount(t *testing.T) {
	testutils.IsolateWorkspace(t)
	dir := t.TempDir()

	stale := PDFDocument{Path: testutils.WritePagedPDF(t, dir, "a.pdf", "A", 5), PageCount: 2, PageOrder: []int{1, 0}}
	b := PDFDocument{Path: testutils.WritePagedPDF(t, dir, "b.pdf", "B", 1)}

	_, err := CombinePDFs(context.Background(), []PDFDocument{stale, b}, CombineOptions{})
	assert.ErrorContains(t, err, "record says 2 pages but the file has 5")
}

func TestCombinePDFs_Errors(t *testing.T) {
	testutils.IsolateWorkspace(t)
	dir := t.TempDir()
	a := inspect(t, testutils.WritePagedPDF(t, dir, "a.pdf", "A", 2))

	_, err := CombinePDFs(context.Background(), []PDFDocument{a}, CombineOptions{})
	assert.ErrorIs(t, err, ErrTooFewFiles)

	_, err = CombinePDFs(context.Background(), nil, CombineOptions{})
	assert.ErrorIs(t, err, ErrTooFewFiles)

	bad := a
	bad.PageOrder = []int{0, 0}
	_, err = CombinePDFs(context.Background(), []PDFDocument{a, bad}, CombineOptions{})
	assert.ErrorIs(t, err, ErrInvalidPageOrder)

	missing := PDFDocument{Path: filepath.Join(dir, "missing.pdf")}
	_, err = CombinePDFs(context.Background(), []PDFDocument{a, missing}, CombineOptions{})
	assert.ErrorContains(t, err, "missing.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CombinePDFs(ctx, []PDFDocument{a, a}, CombineOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMergeTwoFiles(t *testing.T) {
	testutils.IsolateWorkspace(t)
	dir := t.TempDir()
	a := testutils.WritePagedPDF(t, dir, "odd.pdf", "Odd", 3)
	b := testutils.WritePagedPDF(t, dir, "even.pdf", "Even", 2)

	tests := []struct {
		mode MergeMode
		want []string
	}{
		{MergeAppend, []string{"Odd 1", "Odd 2", "Odd 3", "Even 1", "Even 2"}},
		{MergeInterleave, []string{"Odd 1", "Even 1", "Odd 2", "Even 2", "Odd 3"}},
		{"", []string{"Odd 1", "Odd 2", "Odd 3", "Even 1", "Even 2"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			doc, err := MergeTwoFiles(context.Background(), a, b, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, 5, doc.PageCount)
			assert.True(t, IsTempFile(doc.Path))
			assert.Equal(t, tt.want, testutils.PageLabels(t, doc.Path))
		})
	}

	_, err := MergeTwoFiles(context.Background(), a, b, "shuffle")
	assert.ErrorContains(t, err, "unknown merge mode")
}

func TestOutputInfo_RemovesUnreadableOutput(t *testing.T) {
	testutils.IsolateWorkspace(t)

	broken, err := CreateTempFile("reordered", ".pdf")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(broken, []byte("not a pdf"), 0600))

	_, err = outputInfo(broken)
	assert.ErrorContains(t, err, "failed to read output")
	assert.NoFileExists(t, broken)
}

func TestReorderPages(t *testing.T) {
	testutils.IsolateWorkspace(t)
	path := testutils.WritePagedPDF(t, t.TempDir(), "doc.pdf", "Page", 4)

	doc, err := ReorderPages(context.Background(), path, []int{4, 3, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, 4, doc.PageCount)
	assert.Equal(t, []string{"Page 4", "Page 3", "Page 2", "Page 1"}, testutils.PageLabels(t, doc.Path))

	subset, err := ReorderPages(context.Background(), path, []int{2, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, 3, subset.PageCount, "subsets and repeats are allowed")
	assert.Equal(t, []string{"Page 2", "Page 2", "Page 1"}, testutils.PageLabels(t, subset.Path))

	_, err = ReorderPages(context.Background(), path, nil)
	assert.ErrorIs(t, err, ErrEmptyPageOrder)

	_, err = ReorderPages(context.Background(), path, []int{1, 5})
	assert.ErrorIs(t, err, ErrInvalidPageOrder)
}
