package policy

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	homeworkAlias = regexp.MustCompile(`\bhomework\s*(\d+)\b`)
	hwSpaced      = regexp.MustCompile(`\bhw\s+(\d+)\b`)
	midtermJoined = regexp.MustCompile(`\bmidterm(\d+)\b`)
)

// Normalize lower-cases s, maps punctuation to spaces, collapses whitespace and
// folds common assessment spellings ("Homework 1" -> "hw1", "midterm1" -> "midterm 1").
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	s = homeworkAlias.ReplaceAllString(s, "hw$1")
	s = hwSpaced.ReplaceAllString(s, "hw$1")
	s = midtermJoined.ReplaceAllString(s, "midterm $1")
	return s
}

// Tokens splits normalized text into words.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// ContainsPhrase reports whether the words of phrase occur contiguously in text.
func ContainsPhrase(text, phrase string) bool {
	return ContainsTokens(Tokens(text), Tokens(phrase))
}

// ContainsTokens reports whether needle occurs contiguously in hay.
func ContainsTokens(hay, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(hay) {
		return false
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		match := true
		for j := range needle {
			if hay[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// MatchScore compares a slot value with a field value: 2 for an exact match,
// 1 when one contains the other on word boundaries, 0 otherwise. Containment
// is by whole words, so a partial word ("piaz" against "Piazza") scores 0
// where a raw substring test would accept it.
func MatchScore(field, slot string) int {
	f, s := Tokens(field), Tokens(slot)
	if len(f) == 0 || len(s) == 0 {
		return 0
	}
	if strings.Join(f, " ") == strings.Join(s, " ") {
		return 2
	}
	if ContainsTokens(f, s) || ContainsTokens(s, f) {
		return 1
	}
	return 0
}
