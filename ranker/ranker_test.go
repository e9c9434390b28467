// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package ranker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetRemoveInvariant(t *testing.T) {
	h := New(nil)

	setCalls := 0
	effectiveRemoves := 0

	words := []string{"a", "b", "a", "c", "a", "b"}
	for _, w := range words {
		h.Set(w)
		setCalls++
	}

	toRemove := []string{"a", "a", "z", "b"}
	for _, w := range toRemove {
		before := h.Len()
		_ = before
		h.Remove(w)
	}
	// manual accounting: a:3->2->1 (2 effective), z: absent (0 effective), b:2->1 (1 effective)
	effectiveRemoves = 3

	sum := uint32(0)
	rank := h.Rank(100)
	for _, wd := range rank {
		require.GreaterOrEqual(t, wd.Occurrence, uint32(1))
		sum += wd.Occurrence
	}
	require.Equal(t, uint32(setCalls-effectiveRemoves), sum)
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	h := New(nil)
	h.Remove("ghost")
	require.Equal(t, 0, h.Len())
}

func TestRemoveDecrementsThenDeletes(t *testing.T) {
	h := New(nil)
	h.Set("word")
	h.Set("word")
	require.Equal(t, 1, h.Len())

	h.Remove("word")
	rank := h.Rank(10)
	require.Len(t, rank, 1)
	require.Equal(t, uint32(1), rank[0].Occurrence)

	h.Remove("word")
	require.Equal(t, 0, h.Len())
}

func TestRankTopK(t *testing.T) {
	h := New(nil)
	multiset := map[string]int{"x": 5, "y": 3, "z": 3, "w": 1}
	for word, n := range multiset {
		for i := 0; i < n; i++ {
			h.Set(word)
		}
	}

	top2 := h.Rank(2)
	require.Len(t, top2, 2)
	require.Equal(t, "x", top2[0].Word)
	require.Equal(t, uint32(5), top2[0].Occurrence)

	all := h.Rank(100)
	require.Len(t, all, 4)
}

func TestRankDoesNotMutate(t *testing.T) {
	h := New(nil)
	h.Set("a")
	h.Set("a")
	h.Set("b")

	before := h.Len()
	_ = h.Rank(1)
	require.Equal(t, before, h.Len())
}
