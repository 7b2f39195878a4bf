package embedding

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

const maxWordRunes = 100

// WordPieceTokenizer implements the BERT tokenizer used by bge-*-zh models: basic
// splitting (lowercase, accents stripped, Han characters and punctuation as single
// words) followed by greedy longest-match WordPiece over the model's vocab.txt.
type WordPieceTokenizer struct {
	vocab     map[string]int64
	lowercase bool
	cls       int64
	sep       int64
	pad       int64
	unk       int64
}

// LoadVocab reads a vocab.txt file, one token per line, the line number being the id.
func LoadVocab(path string) (map[string]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var id int64
	for sc.Scan() {
		tok := strings.TrimRight(sc.Text(), "\r")
		if _, ok := vocab[tok]; !ok {
			vocab[tok] = id
		}
		id++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocab %s: %w", path, err)
	}
	return vocab, nil
}

// NewWordPieceTokenizer builds a tokenizer over vocab. The special tokens [CLS], [SEP],
// [PAD] and [UNK] must be present.
func NewWordPieceTokenizer(vocab map[string]int64, lowercase bool) (*WordPieceTokenizer, error) {
	t := &WordPieceTokenizer{vocab: vocab, lowercase: lowercase}
	for tok, dst := range map[string]*int64{"[CLS]": &t.cls, "[SEP]": &t.sep, "[PAD]": &t.pad, "[UNK]": &t.unk} {
		id, ok := vocab[tok]
		if !ok {
			return nil, fmt.Errorf("vocab has no %s token", tok)
		}
		*dst = id
	}
	return t, nil
}

// Tokenize produces [CLS] pieces [SEP] padded with [PAD] to maxTokens (256 when <= 0).
// Pieces beyond maxTokens-2 are dropped.
func (t *WordPieceTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	if maxTokens < 2 {
		maxTokens = 2
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)
	for i := range inputIDs {
		inputIDs[i] = t.pad
	}

	inputIDs[0] = t.cls
	attentionMask[0] = 1
	pos := 1
	for _, id := range t.pieces(text) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = id
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = t.sep
	attentionMask[pos] = 1
	return inputIDs, attentionMask, tokenTypeIDs
}

func (t *WordPieceTokenizer) pieces(text string) []int64 {
	if t.lowercase {
		text = stripAccents(strings.ToLower(text))
	}
	var ids []int64
	for _, word := range SplitWords(text) {
		ids = append(ids, t.wordPiece(word)...)
	}
	return ids
}

// wordPiece splits word greedily into the longest vocabulary entries, continuation
// pieces carrying the "##" prefix. A word that cannot be covered becomes [UNK].
func (t *WordPieceTokenizer) wordPiece(word string) []int64 {
	runes := []rune(word)
	if len(runes) > maxWordRunes {
		return []int64{t.unk}
	}
	var ids []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		found := false
		for end > start {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if id, ok := t.vocab[sub]; ok {
				ids = append(ids, id)
				found = true
				break
			}
			end--
		}
		if !found {
			return []int64{t.unk}
		}
		start = end
	}
	return ids
}

func stripAccents(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SplitWords splits text on whitespace and drops control characters. Han characters
// and punctuation are emitted as single-rune words.
func SplitWords(text string) []string {
	var words []string
	start := -1
	flush := func(i int) {
		if start >= 0 {
			words = append(words, text[start:i])
			start = -1
		}
	}
	for i, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush(i)
		case r == 0 || r == unicode.ReplacementChar || unicode.IsControl(r):
			flush(i)
		case unicode.Is(unicode.Han, r) || isPunct(r):
			flush(i)
			words = append(words, string(r))
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(text))
	return words
}

// isPunct treats every non-alphanumeric ASCII symbol as punctuation, as BERT does.
func isPunct(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
