package playbook

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize converts text to a canonical form for comparison: Unicode NFC,
// lower-cased, trimmed, with runs of whitespace collapsed to single spaces.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	s = strings.TrimSpace(s)

	var b strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
		} else {
			b.WriteRune(r)
			prevSpace = false
		}
	}
	return b.String()
}

// Tokenize splits text into its lower-cased word set. Words are maximal runs
// of letters and digits, so punctuation and hyphenation differences do not
// produce distinct tokens. Deduplication and retrieval share this tokenizer.
func Tokenize(s string) map[string]bool {
	s = strings.ToLower(norm.NFC.String(s))

	tokens := make(map[string]bool)
	var word strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			word.WriteRune(r)
		} else if word.Len() > 0 {
			tokens[word.String()] = true
			word.Reset()
		}
	}
	if word.Len() > 0 {
		tokens[word.String()] = true
	}

	return tokens
}

// Jaccard computes the Jaccard index |A∩B| / |A∪B| between two token sets.
// It is 0 when either set is empty, so content with no tokens never matches
// anything.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for token := range a {
		if b[token] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
