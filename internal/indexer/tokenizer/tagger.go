package tokenizer

import (
	"strings"
	"unicode"
)

// Penn Treebank tags produced by Tag.
const (
	TagNoun         = "NN"
	TagNounPlural   = "NNS"
	TagProperNoun   = "NNP"
	TagVerb         = "VB"
	TagVerbPast     = "VBD"
	TagVerbGerund   = "VBG"
	TagVerbPastPart = "VBN"
	TagVerbPresent  = "VBP"
	TagVerbThird    = "VBZ"
	TagAdjective    = "JJ"
	TagAdjSuperl    = "JJS"
	TagAdverb       = "RB"
	TagDeterminer   = "DT"
	TagPronoun      = "PRP"
	TagPreposition  = "IN"
	TagConjunction  = "CC"
	TagModal        = "MD"
	TagTo           = "TO"
	TagNumber       = "CD"
	TagSymbol       = "SYM"
)

var closedClass = map[string]string{
	"a": TagDeterminer, "an": TagDeterminer, "the": TagDeterminer,
	"this": TagDeterminer, "that": TagDeterminer, "these": TagDeterminer,
	"those": TagDeterminer, "each": TagDeterminer, "every": TagDeterminer,
	"i": TagPronoun, "you": TagPronoun, "he": TagPronoun, "she": TagPronoun,
	"it": TagPronoun, "we": TagPronoun, "they": TagPronoun, "me": TagPronoun,
	"him": TagPronoun, "her": TagPronoun, "us": TagPronoun, "them": TagPronoun,
	"in": TagPreposition, "on": TagPreposition, "at": TagPreposition,
	"of": TagPreposition, "for": TagPreposition, "with": TagPreposition,
	"by": TagPreposition, "from": TagPreposition, "about": TagPreposition,
	"into": TagPreposition, "over": TagPreposition, "under": TagPreposition,
	"and": TagConjunction, "or": TagConjunction, "but": TagConjunction,
	"nor": TagConjunction,
	"can": TagModal, "could": TagModal, "may": TagModal, "might": TagModal,
	"must": TagModal, "shall": TagModal, "should": TagModal, "will": TagModal,
	"would": TagModal,
	"to":    TagTo,
	"is":    TagVerbThird, "has": TagVerbThird, "does": TagVerbThird,
	"are": TagVerbPresent, "am": TagVerbPresent, "have": TagVerbPresent,
	"do":  TagVerbPresent,
	"was": TagVerbPast, "were": TagVerbPast, "had": TagVerbPast,
	"did":  TagVerbPast,
	"been": TagVerbPastPart, "done": TagVerbPastPart,
	"being": TagVerbGerund,
}

var adjectiveSuffixes = []string{"ous", "ful", "ive", "able", "ible", "less", "ical", "al", "ic"}

// Tag assigns a Penn Treebank part-of-speech tag to every word using
// closed-class lookups and suffix heuristics. The result has the same length
// as words.
func Tag(words []string) []string {
	tags := make([]string, len(words))
	for i, w := range words {
		tags[i] = tagWord(w, i == 0)
	}
	return tags
}

func tagWord(word string, sentenceStart bool) string {
	if word == "" {
		return TagSymbol
	}
	lower := strings.ToLower(word)
	if tag, ok := closedClass[lower]; ok {
		return tag
	}
	if isNumeric(lower) {
		return TagNumber
	}
	if !isLetters(lower) {
		return TagSymbol
	}
	if _, ok := verbExceptions[lower]; ok {
		return TagVerbPast
	}
	if !sentenceStart && unicode.IsUpper(rune(word[0])) {
		return TagProperNoun
	}
	n := len(lower)
	switch {
	case n > 4 && strings.HasSuffix(lower, "ly"):
		return TagAdverb
	case n > 4 && strings.HasSuffix(lower, "ing"):
		return TagVerbGerund
	case n > 3 && strings.HasSuffix(lower, "ed"):
		return TagVerbPast
	case n > 5 && strings.HasSuffix(lower, "est"):
		return TagAdjSuperl
	}
	for _, suffix := range adjectiveSuffixes {
		if n > len(suffix)+2 && strings.HasSuffix(lower, suffix) {
			return TagAdjective
		}
	}
	if n > 3 && strings.HasSuffix(lower, "s") &&
		!strings.HasSuffix(lower, "ss") &&
		!strings.HasSuffix(lower, "us") &&
		!strings.HasSuffix(lower, "is") {
		return TagNounPlural
	}
	return TagNoun
}

// wordNetPOS maps a Penn tag onto the four lemmatiser classes. Unknown tags
// map to posDefault.
func wordNetPOS(tag string) pos {
	switch tag {
	case "JJ", "JJR", "JJS":
		return posAdjective
	case "NN", "NNP", "NNS":
		return posNoun
	case "RB", "RBR", "RBS":
		return posAdverb
	case "VB", "VBD", "VBG", "VBN", "VBP", "VBZ":
		return posVerb
	default:
		return posDefault
	}
}

func isLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return s != ""
}

func isNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
