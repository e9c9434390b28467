// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package ranker maintains a word-count table and answers top-K
// most-frequent-word queries.
//
// Grounded on squid-algorithm's MapAlgorithm (hashtable.rs): set/remove
// mutate counts under a single writer lock; rank takes a consistent
// snapshot so a concurrent rank call never observes a table mid-mutation.
package ranker

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Word pairs a token with its observed occurrence count.
type Word struct {
	Word       string `json:"word"`
	Occurrence uint32 `json:"occurrence"`
}

// Backend is the interface a ranking algorithm must satisfy. The
// current enumerated set of backends is {hashmap}; service.algorithm
// selects one by tag at startup.
type Backend interface {
	// Set increments word's count by one, inserting it at count 1 if absent.
	Set(word string)
	// Remove decrements word's count, deleting the key once it reaches zero.
	Remove(word string)
	// Rank returns the k words with the largest count, descending.
	Rank(k uint32) []Word
}

// HashMap is the {hashmap} backend: a plain map guarded by a
// RWMutex, matching squid-algorithm's only supported algorithm.
type HashMap struct {
	mu     sync.RWMutex
	counts map[string]uint32

	metrics *metrics
}

// New builds a HashMap ranking backend. reg may be nil to disable metrics.
func New(reg prometheus.Registerer) *HashMap {
	return &HashMap{
		counts:  make(map[string]uint32),
		metrics: newMetrics(reg),
	}
}

// Set implements Backend.
func (h *HashMap) Set(word string) {
	if word == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.counts[word]++
	h.metrics.wordsSet.Inc()
}

// Remove implements Backend. Absent words are a no-op, matching the
// idempotent expiry action required by the TTL scheduler.
func (h *HashMap) Remove(word string) {
	if word == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	count, ok := h.counts[word]
	if !ok {
		return
	}
	if count <= 1 {
		delete(h.counts, word)
	} else {
		h.counts[word] = count - 1
	}
	h.metrics.wordsRemoved.Inc()
}

// Rank implements Backend. A single call never mutates the table and
// ties are broken deterministically (by word, ascending) within the call.
func (h *HashMap) Rank(k uint32) []Word {
	h.mu.RLock()
	snapshot := make([]Word, 0, len(h.counts))
	for w, c := range h.counts {
		snapshot = append(snapshot, Word{Word: w, Occurrence: c})
	}
	h.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].Occurrence != snapshot[j].Occurrence {
			return snapshot[i].Occurrence > snapshot[j].Occurrence
		}
		return snapshot[i].Word < snapshot[j].Word
	})

	if uint32(len(snapshot)) > k {
		snapshot = snapshot[:k]
	}
	return snapshot
}

// Len reports the number of distinct tracked words, mainly for tests
// and diagnostics.
func (h *HashMap) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.counts)
}
