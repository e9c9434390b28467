// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package tokenize

import (
	"bufio"
	"os"
	"strings"
)

// StopWords is a case-sensitive, lowercase-compared exclusion list loaded
// once from a newline-separated text file. A missing file is equivalent
// to an empty list.
type StopWords struct {
	words map[string]struct{}
}

// LoadStopWords reads path, one stop word per line. If path can't be
// opened the returned list is empty — absence of the file is not an error.
func LoadStopWords(path string) *StopWords {
	sw := &StopWords{words: make(map[string]struct{})}

	f, err := os.Open(path)
	if err != nil {
		return sw
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sw.words[line] = struct{}{}
	}
	return sw
}

// NewStopWords builds a StopWords list directly from a slice, mainly for tests.
func NewStopWords(words []string) *StopWords {
	sw := &StopWords{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		sw.words[w] = struct{}{}
	}
	return sw
}

func (sw *StopWords) has(word string) bool {
	if sw == nil || sw.words == nil {
		return false
	}
	_, ok := sw.words[strings.ToLower(word)]
	return ok
}
