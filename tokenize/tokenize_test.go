// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package tokenize

import (
	"testing"

	"github.com/google/gofuzz"
)

func TestTokenizeStability(t *testing.T) {
	plaintext := "I really like apples! But I prefer Gravitalia, sometimes... yeah?"

	tok := New(nil)
	got := tok.Tokenize(plaintext)
	want := "really like apples but prefer gravitalia sometimes yeah"
	if got != want {
		t.Fatalf("Tokenize() = %q, want %q", got, want)
	}

	tokWithStops := New(NewStopWords([]string{"i", "but"}))
	got = tokWithStops.Tokenize(plaintext)
	want = "really like apples prefer gravitalia sometimes yeah"
	if got != want {
		t.Fatalf("Tokenize() with stop words = %q, want %q", got, want)
	}
}

func TestTokenizeIdempotent(t *testing.T) {
	tok := New(nil)

	f := fuzz.New().NilChance(0).Funcs(func(s *string, c fuzz.Continue) {
		letters := "abcdefghijklmnopqrstuvwxyz "
		n := c.Intn(40)
		b := make([]byte, n)
		for i := range b {
			b[i] = letters[c.Intn(len(letters))]
		}
		*s = string(b)
	})

	for i := 0; i < 200; i++ {
		var s string
		f.Fuzz(&s)

		once := tok.Tokenize(s)
		twice := tok.Tokenize(once)
		if once != twice {
			t.Fatalf("Tokenize not idempotent for %q: once=%q twice=%q", s, once, twice)
		}
	}
}

func TestTokenizeTotal(t *testing.T) {
	tok := New(nil)
	inputs := []string{"", " ", "\t\n", "!!!", "a", "ok", "☃ snowman", "it's"}
	for _, in := range inputs {
		_ = tok.Tokenize(in) // must never panic
	}
}

func TestTokenizeMultibyteEscape(t *testing.T) {
	tok := New(nil)
	got := tok.Tokenize("café être")
	if got == "" {
		t.Fatal("expected non-empty output")
	}
	for _, r := range got {
		if r > 0x7f {
			t.Fatalf("expected only ASCII output, got %q", got)
		}
	}
}
