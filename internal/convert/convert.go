// Package convert turns knowledge-base files into normalized text.
//
// Office formats and PDFs are delegated to external converters
// (libreoffice and pdftotext); markdown is read directly. The normalized
// output is what the chunker consumes.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType marks files whose extension has no converter.
var ErrUnsupportedType = errors.New("unsupported file type")

// Metadata describes how a document was converted.
type Metadata struct {
	OriginalFile     string
	FileType         string // extension without the dot
	ConversionMethod string // direct_markdown | direct_pdf | office_to_pdf
	Title            string // first heading for markdown sources, else base name
}

// Result is the outcome of converting one file.
type Result struct {
	Content string // raw converted text, pre-normalization
	Meta    Metadata
}

// Converter dispatches files to format-specific conversion paths.
type Converter struct {
	libreOfficeBin string
	pdfToTextBin   string
}

// NewConverter creates a converter using the default external binaries.
func NewConverter() *Converter {
	return &Converter{
		libreOfficeBin: "libreoffice",
		pdfToTextBin:   "pdftotext",
	}
}

// Convert reads and converts the file at path into text plus conversion
// metadata. The extension decides the conversion path; anything outside the
// supported set returns ErrUnsupportedType.
func (c *Converter) Convert(ctx context.Context, path string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(path))

	meta := Metadata{
		OriginalFile: path,
		FileType:     strings.TrimPrefix(ext, "."),
	}

	var content string
	var err error

	switch ext {
	case ".md":
		content, err = readMarkdown(path)
		meta.ConversionMethod = "direct_markdown"
		if err == nil {
			meta.Title = extractTitle([]byte(content))
		}
	case ".pdf":
		content, err = c.pdfToText(ctx, path)
		meta.ConversionMethod = "direct_pdf"
	case ".doc", ".docx", ".rtf":
		var pdfPath string
		pdfPath, err = c.officeToPDF(ctx, path)
		if err == nil {
			content, err = c.pdfToText(ctx, pdfPath)
		}
		meta.ConversionMethod = "office_to_pdf"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}

	if meta.Title == "" {
		meta.Title = strings.TrimSuffix(filepath.Base(path), ext)
	}

	return &Result{Content: content, Meta: meta}, nil
}

func readMarkdown(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// officeToPDF converts an office document to PDF next to the original,
// returning the PDF path.
func (c *Converter) officeToPDF(ctx context.Context, path string) (string, error) {
	outDir := filepath.Dir(path)

	cmd := exec.CommandContext(ctx, c.libreOfficeBin,
		"--headless", "--convert-to", "pdf", path, "--outdir", outDir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("libreoffice conversion failed: %w: %s", err, stderr.String())
	}

	base := filepath.Base(path)
	pdfPath := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
	return pdfPath, nil
}

// pdfToText extracts text from a PDF via pdftotext, reading the result
// from stdout.
func (c *Converter) pdfToText(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, c.pdfToTextBin, "-layout", path, "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext failed: %w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}
