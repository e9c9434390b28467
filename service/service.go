// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package service implements the facade: the two request handlers
// (Add, Leaderboard) plus the startup/shutdown sequence that wires
// the sentence store, ranking engine and TTL scheduler together.
//
// This component has no direct analogue in the original WAL and
// follows the surrounding packages' logging convention (go-kit/log)
// rather than any one specific source file. Errors from the store are
// returned unchanged, as xerr values.
package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/wordbank/wordbank/config"
	"github.com/wordbank/wordbank/ranker"
	"github.com/wordbank/wordbank/store"
	"github.com/wordbank/wordbank/tokenize"
	"github.com/wordbank/wordbank/ttl"
)

// Facade exposes Add and Leaderboard over the core subsystems.
type Facade struct {
	store     *store.Instance
	ranker    ranker.Backend
	scheduler *ttl.Scheduler
	tokenizer *tokenize.Tokenizer
	cfg       config.Service
	logger    log.Logger
}

// New builds a Facade from already-open subsystems. Callers must have
// already wired st and sched together with st.SetScheduler(sched),
// since the scheduler itself requires a live *store.Instance to
// construct. Call Warmup once before serving requests.
func New(st *store.Instance, rk ranker.Backend, sched *ttl.Scheduler, tok *tokenize.Tokenizer, cfg config.Service, logger log.Logger) *Facade {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Facade{store: st, ranker: rk, scheduler: sched, tokenizer: tok, cfg: cfg, logger: logger}
}

// Warmup runs the startup sequence: rebuild the ranker from every
// entry loaded at store.Open, register TTLs for entries that carry
// one (so a restart doesn't orphan a future expiry), clear the loaded
// list, then start the scheduler's background promotion loop.
func (f *Facade) Warmup() {
	for _, e := range f.store.LoadedEntries() {
		for _, w := range e.Words() {
			if f.shouldCount(w) {
				f.ranker.Set(w)
			}
		}
		if expireAt, ok := e.ExpireAt(); ok && expireAt > 0 {
			f.scheduler.Register(e.ID, expireAt)
		}
	}
	f.store.ClearLoaded()
	f.scheduler.Start()
}

// Add tokenizes sentence, durably inserts it, registers its TTL if
// lifetime > 0, and updates the ranker for its counted words.
func (f *Facade) Add(sentence string, lifetime uint64) error {
	words := f.tokenizer.Tokenize(sentence)

	entry := store.Entry{
		ID:                 store.NewID(),
		OriginalText:       &sentence,
		PostProcessingText: words,
		Lang:               "fr",
		CreationDate:       uint64(time.Now().Unix()),
	}
	if lifetime > 0 {
		entry.Meta = fmt.Sprintf("expire_at:%d", uint64(time.Now().Unix())+lifetime)
	}

	if err := f.store.Insert(entry); err != nil {
		level.Error(f.logger).Log("msg", "insert failed", "id", entry.ID, "err", err)
		return err
	}

	for _, w := range entry.Words() {
		if f.shouldCount(w) {
			f.ranker.Set(w)
		}
	}
	return nil
}

// Leaderboard returns the top length counted words, clamped by
// service.max_words, with the "%20" URL-escape artifact rewritten
// back to a literal space.
func (f *Facade) Leaderboard(length uint32) []ranker.Word {
	if f.cfg.MaxWords > 0 && length > f.cfg.MaxWords {
		length = f.cfg.MaxWords
	}
	words := f.ranker.Rank(length)
	for i := range words {
		words[i].Word = strings.ReplaceAll(words[i].Word, "%20", " ")
	}
	return words
}

// Shutdown flushes the store and stops the scheduler. Call once, on
// interrupt.
func (f *Facade) Shutdown() error {
	f.scheduler.Close()
	return f.store.Close()
}

// shouldCount applies service.message_type and service.exclude to one
// already-tokenized word. Stop-words are applied earlier, inside the
// tokenizer; this filter runs strictly after tokenization.
func (f *Facade) shouldCount(word string) bool {
	switch f.cfg.MessageType {
	case config.MessageWord:
		if strings.HasPrefix(word, "#") {
			return false
		}
	case config.MessageHashtag:
		if !strings.HasPrefix(word, "#") {
			return false
		}
	}
	for _, excluded := range f.cfg.Exclude {
		if word == excluded {
			return false
		}
	}
	return true
}

// Subscribe registers ch to receive a copy of every entry the TTL
// scheduler expires. This one Go channel is the full streaming
// surface, left unbound to any transport so a caller (e.g.
// cmd/wordbankd) can log expirations without requiring a dedicated
// streaming RPC method.
func (f *Facade) Subscribe(ch chan<- store.Entry) {
	f.scheduler.SetSubscriber(ch)
}
