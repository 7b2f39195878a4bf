// Package extract pulls plain text out of the documents a knowledge base is built from.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is the text of one source file.
type Document struct {
	Text   string
	Format string // lower-case extension without the dot
	Pages  int    // PDF pages, XLSX sheets; 1 for flat formats
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether ext (with leading dot) can be extracted.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".docx", ".xlsx", ".txt", ".md", ".text":
		return true
	}
	return false
}

// Extract reads the file at path and returns its text.
func (e *Extractor) Extract(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content according to ext, e.g. ".pdf".
func (e *Extractor) ExtractBytes(content []byte, ext string) (*Document, error) {
	ext = strings.ToLower(ext)
	doc := &Document{Format: strings.TrimPrefix(ext, "."), Pages: 1}
	var err error
	switch ext {
	case ".pdf":
		doc.Text, doc.Pages, err = extractPDF(content)
	case ".docx":
		doc.Text, err = extractDOCX(content)
	case ".xlsx":
		doc.Text, doc.Pages, err = extractExcel(content)
	case ".txt", ".md", ".text":
		doc.Text = extractPlain(content)
	default:
		return nil, fmt.Errorf("unsupported document format %q (supported: .pdf .docx .xlsx .txt .md)", ext)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}
