// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wordbank/wordbank/config"
	"github.com/wordbank/wordbank/ranker"
	"github.com/wordbank/wordbank/store"
	"github.com/wordbank/wordbank/tokenize"
	"github.com/wordbank/wordbank/ttl"
)

func newTestFacade(t *testing.T, cfg config.Service) *Facade {
	t.Helper()
	st, err := store.Open(t.TempDir(), 0)
	require.NoError(t, err)
	rk := ranker.New(nil)
	sched := ttl.New(st, rk, nil, nil)
	st.SetScheduler(sched)
	tok := tokenize.New(nil)

	f := New(st, rk, sched, tok, cfg, nil)
	f.Warmup()
	t.Cleanup(func() { f.Shutdown() })
	return f
}

func TestAddThenLeaderboardBasicCounts(t *testing.T) {
	f := newTestFacade(t, config.Service{MessageType: config.MessageAnything})

	require.NoError(t, f.Add("Gravitalia is amazing", 0))

	words := f.Leaderboard(3)
	require.Len(t, words, 3)
	for _, w := range words {
		require.Equal(t, uint32(1), w.Occurrence)
	}
}

func TestAddRepeatedAccumulatesCount(t *testing.T) {
	f := newTestFacade(t, config.Service{MessageType: config.MessageAnything})

	for i := 0; i < 5; i++ {
		require.NoError(t, f.Add("Gravitalia is amazing", 0))
	}

	words := f.Leaderboard(1)
	require.Len(t, words, 1)
	require.Equal(t, uint32(5), words[0].Occurrence)
}

func TestHashtagMessageTypeFiltersToHashtagsOnly(t *testing.T) {
	f := newTestFacade(t, config.Service{MessageType: config.MessageHashtag})

	require.NoError(t, f.Add("love #paris and #paris", 0))

	words := f.Leaderboard(10)
	require.Equal(t, []ranker.Word{{Word: "#paris", Occurrence: 2}}, words)
}

func TestExcludeListFiltersExactTokens(t *testing.T) {
	f := newTestFacade(t, config.Service{
		MessageType: config.MessageAnything,
		Exclude:     []string{"love"},
	})

	require.NoError(t, f.Add("love is love", 0))

	words := f.Leaderboard(10)
	require.Equal(t, []ranker.Word{{Word: "is", Occurrence: 1}}, words)
}

func TestTTLExpiryRemovesFromLeaderboardAndNotifiesSubscriber(t *testing.T) {
	f := newTestFacade(t, config.Service{MessageType: config.MessageAnything})

	ch := make(chan store.Entry, 1)
	f.Subscribe(ch)

	require.NoError(t, f.Add("expiring soon", 1))

	require.Eventually(t, func() bool {
		return len(f.Leaderboard(10)) == 0
	}, 3*time.Second, 20*time.Millisecond)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expiry subscriber never received notification")
	}
}

func TestMaxWordsClampsLeaderboardLength(t *testing.T) {
	f := newTestFacade(t, config.Service{MessageType: config.MessageAnything, MaxWords: 1})

	require.NoError(t, f.Add("alpha beta gamma", 0))

	words := f.Leaderboard(10)
	require.Len(t, words, 1)
}
