// Package pdftest builds small Letter-size PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

// PDF returns a document with the given number of pages, each labelled
// with its 1-based number.
func PDF(t testing.TB, pages int) []byte {
	t.Helper()
	f := gofpdf.New("P", "pt", "Letter", "")
	f.SetFont("Helvetica", "", 14)
	for i := 1; i <= pages; i++ {
		f.AddPage()
		f.Text(72, 72, fmt.Sprintf("page %d of %d", i, pages))
	}
	var buf bytes.Buffer
	if err := f.Output(&buf); err != nil {
		t.Fatalf("pdftest: building PDF: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes a PDF with the given page count to dir/name and returns
// its path.
func WriteFile(t testing.TB, dir, name string, pages int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, PDF(t, pages), 0o644); err != nil {
		t.Fatalf("pdftest: writing %s: %v", path, err)
	}
	return path
}
