package knowledge

import (
	"strings"
	"unicode"
)

// Preprocess normalizes extracted text before chunking. Whitespace runs collapse to one
// space, except between two CJK characters where PDF line wrapping leaves breaks that are
// not word boundaries; those are dropped. Zero-width and control characters are removed.
func Preprocess(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	var last rune
	pending := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			pending = true
			continue
		case isInvisible(r):
			continue
		}
		if pending && last != 0 && !(isCJK(last) && isCJK(r)) {
			b.WriteByte(' ')
		}
		pending = false
		b.WriteRune(r)
		last = r
	}
	return b.String()
}

// isCJK reports Han characters and full-width CJK punctuation.
func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		(r >= 0x3000 && r <= 0x303f) || // CJK symbols and punctuation
		(r >= 0xff00 && r <= 0xffef) // half-width and full-width forms
}

func isInvisible(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\ufeff':
		return true
	}
	return unicode.IsControl(r)
}
