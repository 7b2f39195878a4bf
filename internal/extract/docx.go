package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	defaultDocxBody     = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	wordprocessingNS    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// extractDOCX returns the text runs of the main document part, one paragraph per line.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	bodyPath := mainPartPath(zr)
	if bodyPath == "" {
		bodyPath = defaultDocxBody
	}
	f := findZipFile(zr, bodyPath)
	if f == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", bodyPath)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("extract DOCX: open %s: %w", bodyPath, err)
	}
	defer rc.Close()
	return paragraphs(rc)
}

// paragraphs walks WordprocessingML and collects w:t text, breaking lines at w:p ends.
func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		out    strings.Builder
		para   strings.Builder
		inText bool
	)
	flush := func() {
		if s := strings.TrimSpace(para.String()); s != "" {
			if out.Len() > 0 {
				out.WriteByte('\n')
			}
			out.WriteString(s)
		}
		para.Reset()
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("extract DOCX: parse: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if isWord(t.Name, "t") {
				inText = true
			} else if isWord(t.Name, "tab") {
				para.WriteByte('\t')
			}
		case xml.EndElement:
			if isWord(t.Name, "t") {
				inText = false
			} else if isWord(t.Name, "p") {
				flush()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	flush()
	return out.String(), nil
}

// isWord matches w:local whether or not the document binds the w prefix.
func isWord(n xml.Name, local string) bool {
	return n.Local == local && (n.Space == wordprocessingNS || n.Space == "w")
}

// mainPartPath reads [Content_Types].xml for the main document part; "" if absent.
func mainPartPath(zr *zip.Reader) string {
	f := findZipFile(zr, contentTypesPath)
	if f == nil {
		return ""
	}
	rc, err := f.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()

	var types struct {
		Overrides []struct {
			PartName    string `xml:"PartName,attr"`
			ContentType string `xml:"ContentType,attr"`
		} `xml:"Override"`
	}
	if err := xml.NewDecoder(rc).Decode(&types); err != nil {
		return ""
	}
	for _, o := range types.Overrides {
		if o.ContentType == docxMainContentType {
			return strings.TrimPrefix(o.PartName, "/")
		}
	}
	return ""
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
