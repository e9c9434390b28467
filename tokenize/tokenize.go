// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package tokenize turns raw sentence text into the normalized,
// whitespace-separated word form the store and ranker operate on.
//
// The transformation is pure and total: it never fails and always
// terminates, matching the contract required of the Add request path.
package tokenize

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// punctuation is the set of characters dropped before splitting into words.
var punctuation = map[rune]struct{}{
	'!': {}, ',': {}, '.': {}, ':': {}, ';': {}, '?': {}, '-': {}, '"': {}, '(': {}, ')': {},
}

// Tokenizer normalizes text and filters stop words loaded once from disk.
type Tokenizer struct {
	stopWords *StopWords
}

// New builds a Tokenizer backed by the given stop-word list. A nil
// StopWords is equivalent to an empty list.
func New(stopWords *StopWords) *Tokenizer {
	return &Tokenizer{stopWords: stopWords}
}

// Tokenize normalizes text into a single whitespace-separated string of
// words: apostrophes become spaces, the text is lowercased, punctuation
// is dropped, tokens of length <= 1 and stop words are removed, and any
// multi-byte rune is rewritten as its \u{XXXX} escape.
func (t *Tokenizer) Tokenize(text string) string {
	replaced := strings.ReplaceAll(text, "'", " ")
	lowered := strings.ToLower(replaced)

	var stripped strings.Builder
	stripped.Grow(len(lowered))
	for _, r := range lowered {
		if _, ok := punctuation[r]; ok {
			continue
		}
		stripped.WriteRune(r)
	}

	fields := strings.Fields(stripped.String())

	words := make([]string, 0, len(fields))
	for _, w := range fields {
		if len(w) <= 1 {
			continue
		}
		if t.stopWords.has(w) {
			continue
		}
		words = append(words, escapeMultibyte(w))
	}

	return strings.Join(words, " ")
}

// escapeMultibyte rewrites every rune whose UTF-8 encoding exceeds one
// byte into its \u{XXXX} escape sequence, leaving ASCII untouched.
func escapeMultibyte(word string) string {
	hasMultibyte := false
	for _, r := range word {
		if utf8.RuneLen(r) > 1 {
			hasMultibyte = true
			break
		}
	}
	if !hasMultibyte {
		return word
	}

	var out strings.Builder
	out.Grow(len(word))
	for _, r := range word {
		if utf8.RuneLen(r) > 1 {
			fmt.Fprintf(&out, "\\u{%x}", r)
		} else {
			out.WriteRune(r)
		}
	}
	return out.String()
}
