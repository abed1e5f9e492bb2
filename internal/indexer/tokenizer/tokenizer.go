// Package tokenizer normalises raw words into index terms. Each word is
// part-of-speech tagged, lemmatised, lower-cased and filtered against the
// stop-word list; words carrying punctuation are split into their ASCII
// alphanumeric runs.
package tokenizer

import (
	"strings"
)

// Tokenize turns a sequence of raw words into Terms. Output order follows
// input order and repeated terms are kept.
func Tokenize(words []string) []string {
	if len(words) == 0 {
		return nil
	}
	tags := Tag(words)
	tokens := make([]string, 0, len(words))
	for i, word := range words {
		lemma := strings.ToLower(Lemmatize(word, wordNetPOS(tags[i])))
		if isASCIIAlnum(lemma) && IsValidToken(lemma) {
			tokens = append(tokens, lemma)
			continue
		}
		tokens = appendRuns(tokens, lemma)
	}
	return tokens
}

// TokenizeText splits text on whitespace and tokenizes the resulting words.
func TokenizeText(text string) []string {
	return Tokenize(Words(text))
}

// Words splits visible text into raw words on whitespace.
func Words(text string) []string {
	return strings.Fields(text)
}

// IsValidToken reports whether token may be emitted as a Term.
func IsValidToken(token string) bool {
	return len(token) > 1 && !IsStopWord(token)
}

// appendRuns emits every valid ASCII alphanumeric run of word.
func appendRuns(tokens []string, word string) []string {
	start := -1
	for i := 0; i < len(word); i++ {
		if isASCIIAlnumByte(word[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if run := word[start:i]; IsValidToken(run) {
				tokens = append(tokens, run)
			}
			start = -1
		}
	}
	if start >= 0 {
		if run := word[start:]; IsValidToken(run) {
			tokens = append(tokens, run)
		}
	}
	return tokens
}

func isASCIIAlnum(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isASCIIAlnumByte(s[i]) {
			return false
		}
	}
	return true
}

func isASCIIAlnumByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
