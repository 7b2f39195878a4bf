package e2e

import (
	"strings"
	"testing"

	"github.com/remixer1943/Ai/internal/extract"
)

func TestWriteMinimalFile_AllExtensionsExtractable(t *testing.T) {
	e := extract.NewExtractor()
	paragraphs := []string{"苹果是一种水果", "猫是一种宠物"}
	for _, ext := range SupportedFileExtensions {
		t.Run(ext, func(t *testing.T) {
			content, err := WriteMinimalFile(ext, paragraphs...)
			if err != nil {
				t.Fatalf("WriteMinimalFile: %v", err)
			}
			if len(content) == 0 {
				t.Fatal("empty content")
			}
			doc, err := e.ExtractBytes(content, ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			for _, p := range paragraphs {
				if !strings.Contains(doc.Text, p) {
					t.Errorf("extracted text %q does not contain %q", doc.Text, p)
				}
			}
		})
	}
}
