// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wordbank/wordbank/config"
	"github.com/wordbank/wordbank/ranker"
	"github.com/wordbank/wordbank/store"
	"github.com/wordbank/wordbank/tokenize"
	"github.com/wordbank/wordbank/ttl"

	"github.com/wordbank/wordbank/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(t.TempDir(), 0)
	require.NoError(t, err)
	rk := ranker.New(nil)
	sched := ttl.New(st, rk, nil, nil)
	st.SetScheduler(sched)
	tok := tokenize.New(nil)

	facade := service.New(st, rk, sched, tok, config.Service{MessageType: config.MessageAnything}, nil)
	facade.Warmup()
	t.Cleanup(func() { facade.Shutdown() })

	srv := NewServer(facade, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestAddAndLeaderboardEndToEnd(t *testing.T) {
	ts := newTestServer(t)

	addBody, _ := json.Marshal(AddRequest{Sentence: "Gravitalia is amazing", Lifetime: 0})
	resp, err := http.Post(ts.URL+"/v1/add", "application/json", bytes.NewReader(addBody))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	lbBody, _ := json.Marshal(LeaderboardRequest{Length: 3})
	resp, err = http.Post(ts.URL+"/v1/leaderboard", "application/json", bytes.NewReader(lbBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out LeaderboardResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Words, 3)
}

func TestAddRejectsNonPost(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/add")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAddRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/add", "application/json", bytes.NewReader([]byte("not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
