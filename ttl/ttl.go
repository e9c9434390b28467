// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package ttl implements the two-tier TTL scheduler: entries expiring
// in a later hour bucket than the current one sit in an hour-bucketed
// map until their bucket comes due, at which point they get a one-shot
// per-second timer.
//
// Grounded on squid-db's ttl.rs TTL<T> (periods: HashMap<u64, Vec<Entry>>
// keyed by hour, promoted to one-shot timers by an hourly wake loop).
// The scheduler owns no entries itself — only ids and expiry
// timestamps — and reaches the store and ranker through narrow
// interfaces (Store, ranker.Backend); it imports package store only for
// the Entry type, and package store never imports ttl.
package ttl

import (
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wordbank/wordbank/ranker"
	"github.com/wordbank/wordbank/store"
)

// Store is the narrow view of the sentence store the scheduler needs
// to carry out an expiry: look the entry up, then remove it. Satisfied
// by *store.Instance.
type Store interface {
	Get(id string) (*store.Entry, error)
	Delete(id string) error
}

type scheduledEntry struct {
	id       string
	expireAt uint64
}

// Scheduler tracks pending expirations and fires them at (approximately)
// their expire_at second, within a couple seconds' tolerance.
type Scheduler struct {
	mu      sync.Mutex
	periods map[uint64][]scheduledEntry // hour bucket -> entries

	store  Store
	ranker ranker.Backend

	subscriber chan<- store.Entry

	now     func() uint64
	logger  log.Logger
	metrics *metrics

	stop chan struct{}
	done chan struct{}
}

// New builds a Scheduler. st and rk are non-owning handles: the
// scheduler never constructs or closes them.
func New(st Store, rk ranker.Backend, logger log.Logger, reg prometheus.Registerer) *Scheduler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Scheduler{
		periods: make(map[uint64][]scheduledEntry),
		store:   st,
		ranker:  rk,
		now:     func() uint64 { return uint64(time.Now().Unix()) },
		logger:  logger,
		metrics: newMetrics(reg),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// SetSubscriber wires a channel that receives a copy of every entry
// right before it is deleted for expiring. Sends are non-blocking: a
// slow or absent subscriber never delays expiry.
func (s *Scheduler) SetSubscriber(ch chan<- store.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriber = ch
}

// Register schedules id to expire at expireAt (unix seconds). Per the
// three-way branch in squid-db's ttl.rs add_entry: already-due entries
// expire from a fresh goroutine immediately, entries due within the
// current hour get a one-shot timer now, and everything else waits in
// its hour bucket for the hourly promotion loop.
func (s *Scheduler) Register(id string, expireAt uint64) {
	now := s.now()
	s.metrics.registered.Inc()

	switch {
	case expireAt <= now:
		go s.expire(id)
	case expireAt/3600 == now/3600:
		delay := time.Duration(expireAt-now) * time.Second
		time.AfterFunc(delay, func() { s.expire(id) })
	default:
		bucket := expireAt / 3600
		s.mu.Lock()
		s.periods[bucket] = append(s.periods[bucket], scheduledEntry{id: id, expireAt: expireAt})
		s.mu.Unlock()
	}
}

// Start launches the hourly promotion loop. Call once; Close stops it.
func (s *Scheduler) Start() {
	go s.run()
}

// Close stops the promotion loop. Already-armed per-second timers are
// not cancelled; they are fire-and-forget by design.
func (s *Scheduler) Close() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) run() {
	defer close(s.done)
	for {
		now := time.Now()
		untilNextHour := time.Duration(3600-now.Unix()%3600) * time.Second
		timer := time.NewTimer(untilNextHour)
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
			s.promoteDueBuckets()
		}
	}
}

// promoteDueBuckets arms a one-shot timer for every entry in every
// hour bucket that has reached or passed its hour.
func (s *Scheduler) promoteDueBuckets() {
	nowSec := s.now()
	currentHour := nowSec / 3600

	s.mu.Lock()
	due := make([]scheduledEntry, 0)
	for hour, entries := range s.periods {
		if hour <= currentHour {
			due = append(due, entries...)
			delete(s.periods, hour)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		entry := e
		var delay time.Duration
		if entry.expireAt > nowSec {
			delay = time.Duration(entry.expireAt-nowSec) * time.Second
		}
		time.AfterFunc(delay, func() { s.expire(entry.id) })
	}
}

// expire fetches id, publishes it to the subscriber, deletes it from
// the store, and decrements the ranker for each of its words. A
// missing id (already deleted, e.g. by an explicit client delete) is
// treated as an already-satisfied expiry: no error, no side effects.
func (s *Scheduler) expire(id string) {
	entry, err := s.store.Get(id)
	if err != nil {
		level.Error(s.logger).Log("msg", "ttl expiry: failed to fetch entry", "id", id, "err", err)
		return
	}
	if entry == nil {
		return
	}

	s.mu.Lock()
	sub := s.subscriber
	s.mu.Unlock()
	if sub != nil {
		select {
		case sub <- *entry:
		default:
		}
	}

	if err := s.store.Delete(id); err != nil {
		level.Error(s.logger).Log("msg", "ttl expiry: failed to delete entry", "id", id, "err", err)
		return
	}

	for _, w := range entry.Words() {
		s.ranker.Remove(w)
	}
	s.metrics.expired.Inc()
}
