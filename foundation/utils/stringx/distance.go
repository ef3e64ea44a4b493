// File: distance.go
// Title: Edit Distance and Similarity
// Description: Levenshtein distance and a normalised similarity ratio used
//              for fuzzy actor lookup and "did you mean" suggestions.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package stringx

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Levenshtein returns the edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	return fuzzy.LevenshteinDistance(a, b)
}

// Similarity returns a case-insensitive ratio in [0,1], 1 meaning equal.
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}
