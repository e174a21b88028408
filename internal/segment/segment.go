// Package segment splits cleaned text into sentences.
//
// The boundary rule is intentionally simple: a sentence ends at '.', '?' or
// '!' when the next non-space rune is a letter or digit. The terminator stays
// with the sentence to its left; the whitespace between sentences is dropped.
// Text without any terminator is a single sentence.
package segment

import (
	"iter"
	"strings"
	"unicode"
)

// Sentences returns a lazy sequence over the sentences of text. The sequence
// is finite and can be ranged over more than once.
func Sentences(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		runes := []rune(text)
		start := 0
		i := 0
		for i < len(runes) {
			r := runes[i]
			i++
			if r != '.' && r != '?' && r != '!' {
				continue
			}
			// Peek past whitespace for the start of a following sentence.
			j := i
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j >= len(runes) || !isSentenceStart(runes[j]) {
				continue
			}
			s := strings.TrimSpace(string(runes[start:i]))
			if s != "" && !yield(s) {
				return
			}
			start = j
			i = j
		}
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			yield(s)
		}
	}
}

// Split materializes Sentences into a slice.
func Split(text string) []string {
	var out []string
	for s := range Sentences(text) {
		out = append(out, s)
	}
	return out
}

func isSentenceStart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// extractionReplacer strips the characters the linguistic service should
// never see; left in place they fragment the lexicon into near-duplicate
// words ("report" vs "report,").
var extractionReplacer = strings.NewReplacer(
	"'", "", ".", "", ":", "", ";", "", "?", "", "!", "",
	`"`, "", ",", "", "(", "", ")", "", "‘", "", "’", "",
)

// CleanForExtraction normalizes a sentence before n-gram extraction:
// lowercased, punctuation stripped, and with a non-empty helperName the
// "hi <name>" greeting token removed so it never enters the lexicon. The
// cleaned form is also what gets stored, which is why summaries capitalize
// and re-terminate each sentence.
func CleanForExtraction(sentence, helperName string) string {
	s := extractionReplacer.Replace(strings.ToLower(sentence))
	if helperName != "" {
		s = strings.ReplaceAll(s, "hi "+strings.ToLower(helperName)+" ", "")
	}
	return strings.TrimSpace(s)
}

// StripGreeting removes the leading helper-name greeting ("hi <name>",
// case-insensitive) from a forum posting so it is not treated as content.
// Matching is done rune-wise: lowercasing a copy can change byte offsets
// (U+0130 folds to two runes), so byte indexes found in a folded copy must
// never be used to slice the original.
func StripGreeting(text, helperName string) string {
	greeting := []rune("hi " + helperName)
	runes := []rune(text)
	for i := 0; i+len(greeting) <= len(runes); i++ {
		if runesFoldEqual(runes[i:i+len(greeting)], greeting) {
			text = string(runes[:i]) + string(runes[i+len(greeting):])
			break
		}
	}
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(text), ",.!"))
}

func runesFoldEqual(a, b []rune) bool {
	for i := range a {
		if unicode.ToLower(a[i]) != unicode.ToLower(b[i]) {
			return false
		}
	}
	return true
}

// AddressedTo reports whether a posting subject or body greets the helper by
// name ("hi <name>", case-insensitive).
func AddressedTo(text, helperName string) bool {
	return strings.Contains(strings.ToLower(text), "hi "+strings.ToLower(helperName))
}
