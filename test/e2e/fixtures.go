package e2e

import (
	"archive/zip"
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SupportedFileExtensions are the source formats generated for conversion tests.
// PDF is not generated here (no minimal PDF with extractable text).
var SupportedFileExtensions = []string{".txt", ".md", ".docx", ".xlsx"}

// WriteMinimalFile returns the bytes of a minimal file of type ext whose extracted
// text contains each paragraph. Paragraphs become w:p elements in DOCX and rows in XLSX.
func WriteMinimalFile(ext string, paragraphs ...string) ([]byte, error) {
	switch ext {
	case ".docx":
		return minimalDocx(paragraphs), nil
	case ".xlsx":
		return minimalXlsx(paragraphs)
	default:
		return []byte(strings.Join(paragraphs, "\n\n")), nil
	}
}

func minimalDocx(paragraphs []string) []byte {
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func minimalXlsx(paragraphs []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	for i, p := range paragraphs {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue("Sheet1", cell, p); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
