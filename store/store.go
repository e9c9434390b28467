// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package store implements the sentence store: a segmented
// append-only record store with an in-memory primary index, a
// write-through memtable, a per-segment record cap, and a delete
// policy that rewrites the containing segment (write-temp-then-rename).
//
// Grounded on a raft WAL's segmented log architecture (Open/StoreLogs/
// rotate state machine) generalized from a raft log (fixed-size
// records addressed by monotonic index) to a sentence store
// (variable-size records addressed by opaque id, with in-place delete
// instead of front/back truncation).
package store

import (
	"os"
	"sync"
	"unsafe"

	"github.com/benbjohnson/immutable"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wordbank/wordbank/store/metadb"
	"github.com/wordbank/wordbank/store/segment"
	"github.com/wordbank/wordbank/xerr"
)

// Scheduler is the narrow interface the store needs from a TTL
// scheduler. It breaks the store<->ttl cyclic reference: the ttl
// package depends on store (for Entry and the Store interface it
// needs), but store never imports ttl — it only calls through this
// interface, which *ttl.Scheduler happens to satisfy.
type Scheduler interface {
	Register(id string, expireAt uint64)
}

// entryStructSize approximates sizeof(Entry) the way a fixed-layout
// size_of check would (counting the struct's fixed layout, not the
// heap bytes its strings point at). The resulting over/under-estimate
// versus actual memory use is intentional, not a bug: it is the exact
// memtable threshold formula this store is required to use.
var entryStructSize = int(unsafe.Sizeof(Entry{}))

// Instance is one sentence store: a directory of segment files plus
// the in-memory index and memtable layered over it.
type Instance struct {
	mu sync.RWMutex

	dir string

	index         *immutable.SortedMap[string, string] // id -> segment name (no extension)
	activeSegment string
	activeFile    *os.File
	activeCount   int

	memtable            []Entry
	memtableThresholdKB int

	// loaded holds every entry found on disk at Open, so the facade can
	// rebuild the ranker from it. Cleared after warm-up to reclaim RAM.
	loaded []Entry

	scheduler Scheduler
	metaDB    *metadb.DB
	metrics   *storeMetrics
	logger    log.Logger
}

// Option configures an Instance at Open time.
type Option func(*Instance)

// WithScheduler wires a TTL scheduler so Insert can register entries
// that carry a non-zero expire_at.
func WithScheduler(s Scheduler) Option {
	return func(i *Instance) { i.scheduler = s }
}

// WithLogger sets the logger used for background/best-effort failures.
func WithLogger(l log.Logger) Option {
	return func(i *Instance) { i.logger = l }
}

// WithMetrics registers the store's counters and gauges with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(i *Instance) { i.metrics = newStoreMetrics(reg) }
}

// WithMetaDB attaches a durable segment-metadata cache.
func WithMetaDB(db *metadb.DB) Option {
	return func(i *Instance) { i.metaDB = db }
}

// SetScheduler wires the TTL scheduler after Open, breaking the
// construction-order cycle between store and ttl: the scheduler
// itself needs a live *Instance to be built.
func (inst *Instance) SetScheduler(s Scheduler) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.scheduler = s
}

// Open loads dir (creating it if necessary), decoding every segment
// file found, populating the primary index and the loaded-entries
// list, and opening (or creating) the active segment for appends.
func Open(dir string, memtableThresholdKB int, opts ...Option) (*Instance, error) {
	inst := &Instance{
		dir:                 dir,
		memtableThresholdKB: memtableThresholdKB,
		logger:              log.NewNopLogger(),
		index:               &immutable.SortedMap[string, string]{},
	}
	for _, opt := range opts {
		opt(inst)
	}
	if inst.metrics == nil {
		inst.metrics = newStoreMetrics(nil)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, xerr.IO(xerr.DirectoryCreation, err, "creating store directory "+dir)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, xerr.IO(xerr.ReadingError, err, "listing store directory "+dir)
	}

	activeName := ""
	activeCount := 0

	for _, de := range dirEntries {
		if de.IsDir() || filepathExt(de.Name()) != "."+segment.Ext {
			continue
		}
		name := trimExt(de.Name())
		path := segment.Path(dir, name)

		records, err := segment.ReadAll(path)
		if err != nil {
			return nil, xerr.IO(xerr.ReadingError, err, "reading segment "+name)
		}

		for _, raw := range records {
			e, err := decodeEntry(raw)
			if err != nil {
				return nil, xerr.IO(xerr.DeserializationError, err, "decoding entry in segment "+name)
			}
			inst.index = inst.index.Set(e.ID, name)
			inst.loaded = append(inst.loaded, e)
		}

		if activeName == "" && len(records) < segment.MaxEntriesPerSegment {
			activeName = name
			activeCount = len(records)
		}
	}

	if activeName == "" {
		activeName = segment.NewName()
		activeCount = 0
	}

	f, err := segment.Open(segment.Path(dir, activeName))
	if err != nil {
		return nil, xerr.IO(xerr.WritingError, err, "opening active segment "+activeName)
	}
	inst.activeSegment = activeName
	inst.activeFile = f
	inst.activeCount = activeCount

	if inst.metaDB != nil {
		if recorded, _ := inst.metaDB.ActiveSegment(); recorded != "" && recorded != activeName {
			level.Warn(inst.logger).Log("msg", "metadb active segment disagrees with directory scan", "recorded", recorded, "scanned", activeName)
		}
		_ = inst.metaDB.SetActiveSegment(activeName)
	}

	return inst, nil
}

// Insert adds a new entry. If the entry carries a non-zero expire_at
// it is registered with the wired scheduler before any bytes are
// written. Depending on memtableThresholdKB, the entry is either
// appended to the active segment immediately or buffered in the
// memtable until a flush is triggered.
func (inst *Instance) Insert(e Entry) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	if expireAt, ok := e.ExpireAt(); ok && expireAt > 0 && inst.scheduler != nil {
		inst.scheduler.Register(e.ID, expireAt)
	}

	inst.metrics.inserts.Inc()

	if inst.memtableThresholdKB == 0 {
		return inst.appendToActiveLocked(e)
	}

	inst.memtable = append(inst.memtable, e)
	inst.metrics.memtableSize.Set(float64(len(inst.memtable)))

	if (len(inst.memtable)*entryStructSize)/1000 >= inst.memtableThresholdKB {
		return inst.flushLocked()
	}
	return nil
}

// appendToActiveLocked writes one entry straight to the active
// segment, rotating to a fresh segment if the cap is reached.
// inst.mu must be held.
func (inst *Instance) appendToActiveLocked(e Entry) error {
	encoded, err := encodeEntry(e)
	if err != nil {
		return xerr.IO(xerr.SerializationError, err, "encoding entry "+e.ID)
	}

	if err := segment.AppendRecord(inst.activeFile, encoded); err != nil {
		return xerr.IO(xerr.WritingError, err, "appending to segment "+inst.activeSegment)
	}
	inst.metrics.entriesWritten.Inc()
	inst.metrics.entryBytesWritten.Add(float64(len(encoded)))

	inst.index = inst.index.Set(e.ID, inst.activeSegment)
	inst.activeCount++

	if inst.activeCount >= segment.MaxEntriesPerSegment {
		return inst.rotateLocked()
	}
	return nil
}

// rotateLocked seals the active segment and opens a fresh one.
// inst.mu must be held.
func (inst *Instance) rotateLocked() error {
	sealed := inst.activeSegment
	if err := inst.activeFile.Close(); err != nil {
		return xerr.IO(xerr.WritingError, err, "closing sealed segment "+sealed)
	}
	if inst.metaDB != nil {
		_ = inst.metaDB.RecordSealed(sealed)
	}

	name := segment.NewName()
	f, err := segment.Open(segment.Path(inst.dir, name))
	if err != nil {
		return xerr.IO(xerr.WritingError, err, "creating segment "+name)
	}
	inst.activeSegment = name
	inst.activeFile = f
	inst.activeCount = 0
	inst.metrics.segmentRotations.Inc()

	if inst.metaDB != nil {
		_ = inst.metaDB.SetActiveSegment(name)
	}
	return nil
}

// flushLocked writes every buffered memtable entry to the active
// segment, one at a time, so segment rotation (and therefore the
// 10,000-record cap) is enforced identically to the threshold-0 path.
// This sidesteps the off-by-one risk a batch-splitting implementation
// would carry at the segment boundary. inst.mu must be held.
func (inst *Instance) flushLocked() error {
	remaining := inst.memtable
	for i, e := range remaining {
		if err := inst.appendToActiveLocked(e); err != nil {
			inst.memtable = remaining[i:]
			inst.metrics.memtableSize.Set(float64(len(inst.memtable)))
			return err
		}
	}
	inst.memtable = nil
	inst.metrics.memtableSize.Set(0)
	inst.metrics.flushes.Inc()
	return nil
}

// Flush forces any buffered memtable entries to disk.
func (inst *Instance) Flush() error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.flushLocked()
}

// Get returns the entry with the given id, or nil if it doesn't exist.
func (inst *Instance) Get(id string) (*Entry, error) {
	inst.mu.RLock()
	segName, inIndex := inst.index.Get(id)
	var fromMemtable *Entry
	if !inIndex {
		for i := range inst.memtable {
			if inst.memtable[i].ID == id {
				e := inst.memtable[i]
				fromMemtable = &e
				break
			}
		}
	}
	inst.mu.RUnlock()

	if fromMemtable != nil {
		inst.metrics.entriesRead.Inc()
		return fromMemtable, nil
	}
	if !inIndex {
		return nil, nil
	}

	records, err := segment.ReadAll(segment.Path(inst.dir, segName))
	if err != nil {
		return nil, xerr.IO(xerr.ReadingError, err, "reading segment "+segName)
	}
	for _, raw := range records {
		e, err := decodeEntry(raw)
		if err != nil {
			return nil, xerr.IO(xerr.DeserializationError, err, "decoding entry")
		}
		if e.ID == id {
			inst.metrics.entriesRead.Inc()
			return &e, nil
		}
	}
	return nil, nil
}

// Delete removes the entry with the given id, if any. An unknown id
// is a silent success, matching the idempotent TTL expiry contract.
func (inst *Instance) Delete(id string) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	segName, inIndex := inst.index.Get(id)
	if !inIndex {
		filtered := inst.memtable[:0]
		removed := false
		for _, e := range inst.memtable {
			if e.ID == id {
				removed = true
				continue
			}
			filtered = append(filtered, e)
		}
		inst.memtable = filtered
		if removed {
			inst.metrics.deletes.Inc()
		}
		return nil
	}

	path := segment.Path(inst.dir, segName)
	records, err := segment.ReadAll(path)
	if err != nil {
		return xerr.IO(xerr.ReadingError, err, "reading segment "+segName)
	}

	kept := make([][]byte, 0, len(records))
	found := false
	for _, raw := range records {
		e, derr := decodeEntry(raw)
		if derr == nil && e.ID == id {
			found = true
			continue
		}
		kept = append(kept, raw)
	}
	if !found {
		// Index pointed at a segment that no longer has this id: drop
		// the stale index entry and move on (silent success).
		inst.index = inst.index.Delete(id)
		return nil
	}

	isActive := segName == inst.activeSegment
	if isActive {
		if err := inst.activeFile.Close(); err != nil {
			return xerr.IO(xerr.WritingError, err, "closing active segment for rewrite")
		}
	}

	if err := segment.WriteAll(inst.dir, path, kept); err != nil {
		if isActive {
			if f, reopenErr := segment.Open(path); reopenErr == nil {
				inst.activeFile = f
			}
		}
		return xerr.IO(xerr.WritingError, err, "rewriting segment "+segName)
	}

	if isActive {
		f, err := segment.Open(path)
		if err != nil {
			return xerr.IO(xerr.WritingError, err, "reopening active segment after rewrite")
		}
		inst.activeFile = f
		inst.activeCount = len(kept)
	}

	inst.index = inst.index.Delete(id)
	inst.metrics.deletes.Inc()
	return nil
}

// LoadedEntries returns a copy of the entries found at Open time, for
// the facade's ranker warm-up pass.
func (inst *Instance) LoadedEntries() []Entry {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	out := make([]Entry, len(inst.loaded))
	copy(out, inst.loaded)
	return out
}

// ClearLoaded drops the loaded-entries list to reclaim memory once the
// facade has finished its ranker warm-up pass.
func (inst *Instance) ClearLoaded() {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.loaded = nil
}

// Close flushes any buffered entries and releases file handles.
func (inst *Instance) Close() error {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	err := inst.flushLocked()
	if cerr := inst.activeFile.Close(); cerr != nil && err == nil {
		err = xerr.IO(xerr.WritingError, cerr, "closing active segment")
	}
	if inst.metaDB != nil {
		if merr := inst.metaDB.Close(); merr != nil && err == nil {
			err = merr
		}
	}
	return err
}

func filepathExt(name string) string {
	for i := len(name) - 1; i >= 0 && name[i] != '/'; i-- {
		if name[i] == '.' {
			return name[i:]
		}
	}
	return ""
}

func trimExt(name string) string {
	ext := filepathExt(name)
	return name[:len(name)-len(ext)]
}
