package tokenizer

import (
	"strings"

	"github.com/kljensen/snowball/english"
)

type pos int

const (
	posDefault pos = iota
	posNoun
	posVerb
	posAdjective
	posAdverb
)

// substitution replaces suffix with replacement. Exact rules are taken as
// is; the others must keep the word's Snowball stem, which Porter stemming
// cannot do for "-sis" or "-f" singulars.
type substitution struct {
	suffix      string
	replacement string
	exact       bool
}

// Detachment rules per word class, tried in order.
var substitutions = map[pos][]substitution{
	posNoun: {
		{"yses", "ysis", true}, {"heses", "hesis", true},
		{"ouses", "ouse", true}, {"auses", "ause", true},
		{"alves", "alf", true}, {"elves", "elf", true},
		{"ches", "ch", false}, {"shes", "sh", false}, {"ses", "s", false},
		{"ves", "f", false}, {"oes", "o", false}, {"xes", "x", false},
		{"zes", "z", false}, {"men", "man", false}, {"ies", "y", false},
		{"s", "", false},
	},
	posVerb: {
		{"ing", "e", false}, {"ing", "", false}, {"ies", "y", false},
		{"es", "e", false}, {"es", "", false}, {"ed", "e", false},
		{"ed", "", false}, {"s", "", false},
	},
	posAdjective: {
		{"est", "", false}, {"est", "e", false}, {"er", "", false}, {"er", "e", false},
	},
}

var nounExceptions = map[string]string{
	"children": "child", "men": "man", "women": "woman", "people": "person",
	"mice": "mouse", "feet": "foot", "teeth": "tooth", "geese": "goose",
	"indices": "index", "matrices": "matrix", "analyses": "analysis",
	"crises": "crisis", "oases": "oasis", "diagnoses": "diagnosis",
	"prognoses": "prognosis", "synopses": "synopsis", "ellipses": "ellipsis",
	"buses": "bus", "gases": "gas", "wolves": "wolf", "knives": "knife",
	"wives": "wife", "lives": "life", "leaves": "leaf", "thieves": "thief",
	"loaves": "loaf", "valves": "valve", "canoes": "canoe",
}

var verbExceptions = map[string]string{
	"was": "be", "were": "be", "been": "be", "am": "be", "is": "be", "are": "be",
	"has": "have", "had": "have", "did": "do", "does": "do", "done": "do",
	"went": "go", "gone": "go", "made": "make", "ran": "run", "saw": "see",
	"seen": "see", "took": "take", "taken": "take", "got": "get",
	"gave": "give", "given": "give", "found": "find", "wrote": "write",
	"written": "write", "began": "begin", "begun": "begin", "knew": "know",
	"known": "know", "thought": "think", "taught": "teach",
	"brought": "bring", "built": "build", "led": "lead", "held": "hold",
}

var adjectiveExceptions = map[string]string{
	"better": "good", "best": "good", "worse": "bad", "worst": "bad",
}

// Lemmatize returns the dictionary form of word for the given word class.
// A detached candidate is only accepted when it shares the word's Snowball
// stem, which rejects rules that would cut into the root ("news" -> "new").
// A rule never turns a content word into a stop word ("theses" is not
// "these"). Words containing anything other than letters are returned
// unchanged.
func Lemmatize(word string, class pos) string {
	lower := strings.ToLower(word)
	if !isLetters(lower) {
		return word
	}
	if class == posDefault {
		class = posNoun
	}
	if lemma, ok := exceptionFor(lower, class); ok {
		return lemma
	}
	rules := substitutions[class]
	if len(rules) == 0 {
		return lower
	}
	stem := english.Stem(lower, true)
	stop := IsStopWord(lower)
	for _, rule := range rules {
		if len(lower) <= len(rule.suffix) || !strings.HasSuffix(lower, rule.suffix) {
			continue
		}
		base := lower[:len(lower)-len(rule.suffix)] + rule.replacement
		for _, candidate := range candidates(base, rule.replacement == "") {
			if len(candidate) < 2 || (!stop && IsStopWord(candidate)) {
				continue
			}
			if rule.exact || english.Stem(candidate, true) == stem {
				return candidate
			}
		}
	}
	return lower
}

func exceptionFor(word string, class pos) (string, bool) {
	var table map[string]string
	switch class {
	case posNoun:
		table = nounExceptions
	case posVerb:
		table = verbExceptions
	case posAdjective:
		table = adjectiveExceptions
	}
	lemma, ok := table[word]
	return lemma, ok
}

// candidates yields base and, for bare detachments ending in a doubled
// consonant ("runn"), the undoubled form.
func candidates(base string, bare bool) []string {
	n := len(base)
	if bare && n > 2 && base[n-1] == base[n-2] && !isVowel(base[n-1]) {
		return []string{base, base[:n-1]}
	}
	return []string{base}
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
