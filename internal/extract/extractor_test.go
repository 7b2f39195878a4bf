package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("Hello world\nLine 2"), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got.Text != "Hello world\nLine 2" || got.Format != "txt" || got.Pages != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestExtractBytes_plainBOMAndChinese(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes(append([]byte{0xEF, 0xBB, 0xBF}, "幼儿园。"...), ".MD")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got.Text != "幼儿园。" {
		t.Errorf("got %q", got.Text)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("hello\x80world"), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got.Text != "hello�world" {
		t.Errorf("got %q", got.Text)
	}
}

func TestExtractBytes_unsupported(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("raw"), ".pptx"); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if Supported(".pptx") || !Supported(".PDF") {
		t.Error("Supported mismatch")
	}
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got.Text != "Title\nValue 1\tValue 2" {
		t.Errorf("got %q", got.Text)
	}
	if got.Pages != 1 {
		t.Errorf("expected 1 sheet, got %d", got.Pages)
	}
}

func TestExtract_plainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	if err := os.WriteFile(path, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Text != "File content" {
		t.Errorf("got %q", got.Text)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	if _, err := NewExtractor().Extract("/nonexistent/path/file.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestExtractBytes_pdfGarbage(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("not a pdf"), ".pdf"); err == nil {
		t.Error("expected error for invalid PDF")
	}
}

func docxZip(files map[string]string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		fw, _ := w.Create(name)
		_, _ = fw.Write([]byte(body))
	}
	_ = w.Close()
	return buf.Bytes()
}

const wordDoc = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p w:rsidR="00A1"><w:r><w:t>幼儿的学习</w:t></w:r><w:r><w:t xml:space="preserve"> &amp; 发展</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>第二段</w:t></w:r></w:p>` +
	`</w:body></w:document>`

func TestExtractBytes_docx(t *testing.T) {
	content := docxZip(map[string]string{"word/document.xml": wordDoc})
	got, err := NewExtractor().ExtractBytes(content, ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got.Text != "幼儿的学习 & 发展\n第二段" {
		t.Errorf("got %q", got.Text)
	}
}

func TestExtractBytes_docxContentTypes(t *testing.T) {
	content := docxZip(map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/word/document2.xml"/>
</Types>`,
		"word/document2.xml": wordDoc,
	})
	got, err := NewExtractor().ExtractBytes(content, ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got.Text != "幼儿的学习 & 发展\n第二段" {
		t.Errorf("got %q", got.Text)
	}
}

func TestExtractBytes_docxInvalid(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for non-zip docx")
	}
	if _, err := e.ExtractBytes(docxZip(map[string]string{"other.xml": "<a/>"}), ".docx"); err == nil {
		t.Error("expected error for docx without a body")
	}
}
