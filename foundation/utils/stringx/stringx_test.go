// File: stringx_test.go
// Title: Unit Tests for String Utilities
// Description: Table-driven tests for blank checks, splitting, truncation and
//              edit distance.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-18

package stringx

import (
	"math"
	"reflect"
	"testing"
)

func TestIsBlank(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"empty string", "", true},
		{"whitespace", " \t\n", true},
		{"text", " hi ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBlank(tt.input); got != tt.expected {
				t.Errorf("IsBlank(%q) = %v; want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestWords(t *testing.T) {
	got := Words("  Give\t@Me  keycard ")
	want := []string{"give", "@me", "keycard"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Words() = %v; want %v", got, want)
	}
}

func TestTruncateAndPad(t *testing.T) {
	if got := Truncate("teleport", 5, "…"); got != "tele…" {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("tp", 5, "…"); got != "tp" {
		t.Errorf("Truncate() short = %q", got)
	}
	if got := PadRight("tp", 4, '.'); got != "tp.." {
		t.Errorf("PadRight() = %q", got)
	}
	if got := FirstNonBlank(" ", "", "x"); got != "x" {
		t.Errorf("FirstNonBlank() = %q", got)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"heal", "", 4},
		{"kill", "kil", 1},
		{"teleport", "telport", 1},
		{"kitten", "sitting", 3},
		{"größe", "grösse", 2},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := Levenshtein(tt.a, tt.b); got != tt.want {
				t.Errorf("Levenshtein(%q, %q) = %d; want %d", tt.a, tt.b, got, tt.want)
			}
			if got := Levenshtein(tt.b, tt.a); got != tt.want {
				t.Errorf("Levenshtein is not symmetric for %q/%q", tt.a, tt.b)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("Alice", "alice"); got != 1 {
		t.Errorf("case-insensitive equality = %v", got)
	}
	if got := Similarity("", ""); got != 1 {
		t.Errorf("empty strings = %v", got)
	}
	if got := Similarity("bob", "bib"); math.Abs(got-2.0/3.0) > 1e-9 {
		t.Errorf("Similarity(bob, bib) = %v", got)
	}
}
