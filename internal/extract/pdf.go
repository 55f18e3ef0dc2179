// Package extract turns uploaded file bytes into ordered text pages.
// The rest of the pipeline treats it as a black box: bytes in, pages out.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/S1nghAryan/pbl-4/internal/document"
	pdflib "github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for any upload that is not a PDF.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extractor converts raw document bytes into ordered text pages.
type Extractor interface {
	Extract(ctx context.Context, data []byte, filename string) ([]document.Page, error)
}

// PDFExtractor extracts text from PDF files. It tries the Go library
// first, then falls back to pdftotext if enabled.
type PDFExtractor struct {
	FallbackPdftotext bool
}

// IsPDF reports whether the filename carries a .pdf extension.
func IsPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte, filename string) ([]document.Page, error) {
	if !IsPDF(filename) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}

	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "pbl4-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	text, err := extractPDFText(tmpPath)
	if err != nil && e.FallbackPdftotext {
		text, err = extractPdftotext(ctx, tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	return SplitPages(text), nil
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\f") // Form feed as page separator.
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractPdftotext(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

// SplitPages converts form-feed separated text into ordered pages,
// dropping pages with no content.
func SplitPages(text string) []document.Page {
	var pages []document.Page
	for i, raw := range strings.Split(text, "\f") {
		page := strings.TrimSpace(raw)
		if page == "" {
			continue
		}
		pages = append(pages, document.Page{Number: i + 1, Text: page})
	}
	return pages
}
