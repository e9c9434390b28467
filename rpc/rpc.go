// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package rpc serves the service facade's two methods as JSON
// request/response pairs framed over HTTP/2 cleartext (h2c).
//
// golang.org/x/net/http2 + golang.org/x/net/http2/h2c upgrade a stock
// net/http server to real HTTP/2 framing without TLS, keeping every
// byte of business logic in package service — rpc only marshals,
// dispatches, and unmarshals, the same division of labor a generated
// gRPC stub would have.
package rpc

import (
	"encoding/json"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/wordbank/wordbank/ranker"
	"github.com/wordbank/wordbank/service"
)

// AddRequest is the body of POST /v1/add.
type AddRequest struct {
	Sentence string `json:"sentence"`
	Lifetime uint64 `json:"lifetime"`
}

// LeaderboardRequest is the body of POST /v1/leaderboard.
type LeaderboardRequest struct {
	Length uint32 `json:"length"`
}

// LeaderboardResponse is the body returned by POST /v1/leaderboard.
type LeaderboardResponse struct {
	Words []ranker.Word `json:"words"`
}

// Server dispatches the two RPC methods onto a service.Facade.
type Server struct {
	facade *service.Facade
	logger log.Logger
	mux    *http.ServeMux
}

// NewServer builds a Server backed by facade.
func NewServer(facade *service.Facade, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &Server{facade: facade, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("/v1/add", s.handleAdd)
	s.mux.HandleFunc("/v1/leaderboard", s.handleLeaderboard)
	return s
}

// Handler returns an http.Handler that serves HTTP/2 cleartext,
// falling back to HTTP/1.1 for any client that doesn't upgrade.
func (s *Server) Handler() http.Handler {
	h2s := &http2.Server{}
	return h2c.NewHandler(s.mux, h2s)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.facade.Add(req.Sentence, req.Lifetime); err != nil {
		level.Error(s.logger).Log("msg", "add failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte("{}"))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LeaderboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	words := s.facade.Leaderboard(req.Length)
	resp := LeaderboardResponse{Words: words}
	if resp.Words == nil {
		resp.Words = []ranker.Word{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
