// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// storeMetrics mirrors a raft WAL's metric family names, generalized
// to the sentence-store domain.
type storeMetrics struct {
	entriesWritten   prometheus.Counter
	entryBytesWritten prometheus.Counter
	inserts          prometheus.Counter
	entriesRead      prometheus.Counter
	segmentRotations prometheus.Counter
	deletes          prometheus.Counter
	flushes          prometheus.Counter
	memtableSize     prometheus.Gauge
}

func newStoreMetrics(reg prometheus.Registerer) *storeMetrics {
	return &storeMetrics{
		entriesWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wordbank_store_entries_written_total",
			Help: "wordbank_store_entries_written_total counts entries durably appended to a segment.",
		}),
		entryBytesWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wordbank_store_entry_bytes_written_total",
			Help: "wordbank_store_entry_bytes_written_total counts encoded entry bytes written, excluding framing.",
		}),
		inserts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wordbank_store_inserts_total",
			Help: "wordbank_store_inserts_total counts calls to Insert.",
		}),
		entriesRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wordbank_store_entries_read_total",
			Help: "wordbank_store_entries_read_total counts calls to Get that found an entry.",
		}),
		segmentRotations: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wordbank_store_segment_rotations_total",
			Help: "wordbank_store_segment_rotations_total counts how many times a new active segment was opened.",
		}),
		deletes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wordbank_store_deletes_total",
			Help: "wordbank_store_deletes_total counts calls to Delete that found a matching entry.",
		}),
		flushes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wordbank_store_flushes_total",
			Help: "wordbank_store_flushes_total counts memtable flushes to disk.",
		}),
		memtableSize: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "wordbank_store_memtable_entries",
			Help: "wordbank_store_memtable_entries is the current number of buffered, unflushed entries.",
		}),
	}
}
