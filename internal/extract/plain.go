package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractPlain returns content as a string without a UTF-8 BOM. Invalid UTF-8
// sequences are replaced with the replacement character.
func extractPlain(content []byte) string {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�")
	}
	return string(content)
}
