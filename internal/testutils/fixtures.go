package testutils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/phpdave11/gofpdf"
	"github.com/stretchr/testify/require"
)

func init() {
	api.DisableConfigDir()
}

// WritePDF creates a PDF in dir with one page per label. Each page shows its label.
func WritePDF(t testing.TB, dir, name string, labels ...string) string {
	t.Helper()
	require.NotEmpty(t, labels, "a PDF needs at least one page")

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", 24)
	for _, label := range labels {
		doc.AddPage()
		doc.Cell(40, 10, label)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, doc.OutputFileAndClose(path))
	return path
}

// WritePagedPDF creates a PDF with pages labelled "<prefix> 1" .. "<prefix> n"
func WritePagedPDF(t testing.TB, dir, name, prefix string, pages int) string {
	t.Helper()
	labels := make([]string, pages)
	for i := range labels {
		labels[i] = fmt.Sprintf("%s %d", prefix, i+1)
	}
	return WritePDF(t, dir, name, labels...)
}

var (
	showTextOp = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj`)
	pageSuffix = regexp.MustCompile(`(\d+)\.txt$`)
)

// PageLabels returns the text drawn on each page of the PDF at path, in page order.
// It reads the labels written by WritePDF.
func PageLabels(t testing.TB, path string) []string {
	t.Helper()
	outDir := t.TempDir()
	require.NoError(t, api.ExtractContentFile(path, outDir, nil, nil))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)

	type page struct {
		number int
		label  string
	}
	var pages []page
	for _, entry := range entries {
		m := pageSuffix.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		require.NoError(t, err)

		content, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		require.NoError(t, err)

		var parts []string
		for _, match := range showTextOp.FindAllStringSubmatch(string(content), -1) {
			parts = append(parts, match[1])
		}
		pages = append(pages, page{number: number, label: strings.Join(parts, " ")})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].number < pages[j].number })

	labels := make([]string, len(pages))
	for i, p := range pages {
		labels[i] = p.label
	}
	return labels
}

// WriteEncryptedPDF creates a single page PDF protected by a user password
func WriteEncryptedPDF(t testing.TB, dir, name string) string {
	t.Helper()
	plain := WritePDF(t, dir, "plain-"+name, "secret")
	path := filepath.Join(dir, name)

	conf := model.NewAESConfiguration("user-pass", "owner-pass", 256)
	require.NoError(t, api.EncryptFile(plain, path, conf))
	return path
}

// WriteFile creates a file with arbitrary content
func WriteFile(t testing.TB, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

// RequireGhostscript skips the test when no Ghostscript binary is on PATH
func RequireGhostscript(t testing.TB) {
	t.Helper()
	for _, name := range []string{"gs", "gswin64c.exe"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("ghostscript not installed")
}
