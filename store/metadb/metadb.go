// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package metadb durably tracks which segment is currently active and
// which segments have been sealed, the way a raft log's MetaStore
// lets Open() recover without re-deriving that state from file
// contents alone. It is a best-effort cache: store.Open always falls
// back to a full directory scan as the source of truth and only logs
// if metadb disagrees.
package metadb

import (
	"go.etcd.io/bbolt"
)

var bucketName = []byte("wordbank-meta")

const activeSegmentKey = "active_segment"

// DB is a tiny bbolt-backed key/value store for sentence-store metadata.
type DB struct {
	bolt *bbolt.DB
}

// Open opens (creating if necessary) the metadata database at path.
func Open(path string) (*DB, error) {
	b, err := bbolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, err
	}
	err = b.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		b.Close()
		return nil, err
	}
	return &DB{bolt: b}, nil
}

// Close closes the underlying bbolt database.
func (d *DB) Close() error {
	if d == nil {
		return nil
	}
	return d.bolt.Close()
}

// SetActiveSegment records name as the current active segment.
func (d *DB) SetActiveSegment(name string) error {
	if d == nil {
		return nil
	}
	return d.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(activeSegmentKey), []byte(name))
	})
}

// ActiveSegment returns the last segment name recorded as active, or
// "" if none has been recorded yet.
func (d *DB) ActiveSegment() (string, error) {
	if d == nil {
		return "", nil
	}
	var name string
	err := d.bolt.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(activeSegmentKey))
		name = string(v)
		return nil
	})
	return name, err
}

// RecordSealed marks name as sealed by adding it to the "sealed"
// sub-bucket. The active slot is left unchanged; the caller is expected
// to call SetActiveSegment with the new tail immediately afterwards.
func (d *DB) RecordSealed(name string) error {
	if d == nil {
		return nil
	}
	return d.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		sealedBucket, err := b.CreateBucketIfNotExists([]byte("sealed"))
		if err != nil {
			return err
		}
		return sealedBucket.Put([]byte(name), []byte{1})
	})
}
